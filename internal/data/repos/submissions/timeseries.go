package submissions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/domain"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/platform/logger"
)

type PointRepo interface {
	ListBySubmission(ctx context.Context, tx *gorm.DB, submissionID uuid.UUID) ([]*types.TimeSeriesPoint, error)
	// ListInWindow returns the points of the given submissions whose period
	// falls inside [start, end] inclusive.
	ListInWindow(ctx context.Context, tx *gorm.DB, submissionIDs []uuid.UUID, start, end time.Time) ([]*types.TimeSeriesPoint, error)
	// ListPeriods returns the raw period dates of one submission's points;
	// callers normalize to months.
	ListPeriods(ctx context.Context, tx *gorm.DB, submissionID uuid.UUID) ([]time.Time, error)
	Create(ctx context.Context, tx *gorm.DB, rows []*types.TimeSeriesPoint) error
	Update(ctx context.Context, tx *gorm.DB, row *types.TimeSeriesPoint) error
	DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
	DeleteBySubmission(ctx context.Context, tx *gorm.DB, submissionID uuid.UUID) error
}

type pointRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPointRepo(db *gorm.DB, baseLog *logger.Logger) PointRepo {
	return &pointRepo{db: db, log: baseLog.With("repo", "TimeSeriesPointRepo")}
}

func (r *pointRepo) ListBySubmission(ctx context.Context, tx *gorm.DB, submissionID uuid.UUID) ([]*types.TimeSeriesPoint, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.TimeSeriesPoint
	if err := t.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Order("period ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *pointRepo) ListInWindow(ctx context.Context, tx *gorm.DB, submissionIDs []uuid.UUID, start, end time.Time) ([]*types.TimeSeriesPoint, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.TimeSeriesPoint
	if len(submissionIDs) == 0 {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("submission_id IN ?", submissionIDs).
		Where("period >= ? AND period <= ?", types.Day(start), types.Day(end)).
		Order("period ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *pointRepo) ListPeriods(ctx context.Context, tx *gorm.DB, submissionID uuid.UUID) ([]time.Time, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []time.Time
	if err := t.WithContext(ctx).Model(&types.TimeSeriesPoint{}).
		Where("submission_id = ?", submissionID).
		Order("period ASC").
		Pluck("period", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *pointRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.TimeSeriesPoint) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return nil
	}
	return t.WithContext(ctx).Create(&rows).Error
}

func (r *pointRepo) Update(ctx context.Context, tx *gorm.DB, row *types.TimeSeriesPoint) error {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).Save(row).Error
}

func (r *pointRepo) DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return t.WithContext(ctx).Where("id IN ?", ids).Delete(&types.TimeSeriesPoint{}).Error
}

func (r *pointRepo) DeleteBySubmission(ctx context.Context, tx *gorm.DB, submissionID uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).Where("submission_id = ?", submissionID).Delete(&types.TimeSeriesPoint{}).Error
}

package submissions

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/domain"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/platform/logger"
)

type RowRepo interface {
	ListBySubmission(ctx context.Context, tx *gorm.DB, submissionID uuid.UUID) ([]*types.SubmissionRow, error)
	Create(ctx context.Context, tx *gorm.DB, rows []*types.SubmissionRow) error
	Update(ctx context.Context, tx *gorm.DB, row *types.SubmissionRow) error
	DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
	DeleteBySubmission(ctx context.Context, tx *gorm.DB, submissionID uuid.UUID) error
}

type rowRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRowRepo(db *gorm.DB, baseLog *logger.Logger) RowRepo {
	return &rowRepo{db: db, log: baseLog.With("repo", "SubmissionRowRepo")}
}

func (r *rowRepo) ListBySubmission(ctx context.Context, tx *gorm.DB, submissionID uuid.UUID) ([]*types.SubmissionRow, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.SubmissionRow
	if err := t.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Order("position ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *rowRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.SubmissionRow) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return nil
	}
	return t.WithContext(ctx).Create(&rows).Error
}

func (r *rowRepo) Update(ctx context.Context, tx *gorm.DB, row *types.SubmissionRow) error {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).Save(row).Error
}

func (r *rowRepo) DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return t.WithContext(ctx).Where("id IN ?", ids).Delete(&types.SubmissionRow{}).Error
}

func (r *rowRepo) DeleteBySubmission(ctx context.Context, tx *gorm.DB, submissionID uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).Where("submission_id = ?", submissionID).Delete(&types.SubmissionRow{}).Error
}

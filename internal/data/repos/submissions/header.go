package submissions

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/domain"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/platform/logger"
)

type HeaderRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.SubmissionHeader) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.SubmissionHeader, error)
	// ListByScope is the broad candidate fetch of the aggregation engine: all
	// headers for (assignment, metric, layer), not window-filtered, ordered by
	// (submitted_at, id).
	ListByScope(ctx context.Context, tx *gorm.DB, assignmentID, metricID, layerID uuid.UUID) ([]*types.SubmissionHeader, error)
	Save(ctx context.Context, tx *gorm.DB, row *types.SubmissionHeader) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type headerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewHeaderRepo(db *gorm.DB, baseLog *logger.Logger) HeaderRepo {
	return &headerRepo{db: db, log: baseLog.With("repo", "SubmissionHeaderRepo")}
}

func (r *headerRepo) Create(ctx context.Context, tx *gorm.DB, row *types.SubmissionHeader) error {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).Create(row).Error
}

func (r *headerRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.SubmissionHeader, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out types.SubmissionHeader
	if err := t.WithContext(ctx).Where("id = ?", id).First(&out).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

func (r *headerRepo) ListByScope(ctx context.Context, tx *gorm.DB, assignmentID, metricID, layerID uuid.UUID) ([]*types.SubmissionHeader, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.SubmissionHeader
	if err := t.WithContext(ctx).
		Where("assignment_id = ? AND metric_id = ? AND layer_id = ?", assignmentID, metricID, layerID).
		Order("submitted_at ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *headerRepo) Save(ctx context.Context, tx *gorm.DB, row *types.SubmissionHeader) error {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).Save(row).Error
}

func (r *headerRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).Where("id = ?", id).Delete(&types.SubmissionHeader{}).Error
}

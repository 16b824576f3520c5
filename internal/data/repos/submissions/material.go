package submissions

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/domain"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/platform/logger"
)

type MaterialPointRepo interface {
	ListBySubmission(ctx context.Context, tx *gorm.DB, submissionID uuid.UUID) ([]*types.MaterialDataPoint, error)
	Create(ctx context.Context, tx *gorm.DB, rows []*types.MaterialDataPoint) error
	Update(ctx context.Context, tx *gorm.DB, row *types.MaterialDataPoint) error
	DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
	DeleteBySubmission(ctx context.Context, tx *gorm.DB, submissionID uuid.UUID) error
}

type materialPointRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMaterialPointRepo(db *gorm.DB, baseLog *logger.Logger) MaterialPointRepo {
	return &materialPointRepo{db: db, log: baseLog.With("repo", "MaterialPointRepo")}
}

func (r *materialPointRepo) ListBySubmission(ctx context.Context, tx *gorm.DB, submissionID uuid.UUID) ([]*types.MaterialDataPoint, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.MaterialDataPoint
	if err := t.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Order("period ASC, material_type ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *materialPointRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.MaterialDataPoint) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return nil
	}
	return t.WithContext(ctx).Create(&rows).Error
}

func (r *materialPointRepo) Update(ctx context.Context, tx *gorm.DB, row *types.MaterialDataPoint) error {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).Save(row).Error
}

func (r *materialPointRepo) DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return t.WithContext(ctx).Where("id IN ?", ids).Delete(&types.MaterialDataPoint{}).Error
}

func (r *materialPointRepo) DeleteBySubmission(ctx context.Context, tx *gorm.DB, submissionID uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).Where("submission_id = ?", submissionID).Delete(&types.MaterialDataPoint{}).Error
}

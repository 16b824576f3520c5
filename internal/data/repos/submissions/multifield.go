package submissions

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/domain"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/platform/logger"
)

type FieldSeriesRepo interface {
	ListBySubmission(ctx context.Context, tx *gorm.DB, submissionID uuid.UUID) ([]*types.FieldSeriesEntry, error)
	Create(ctx context.Context, tx *gorm.DB, rows []*types.FieldSeriesEntry) error
	Update(ctx context.Context, tx *gorm.DB, row *types.FieldSeriesEntry) error
	DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
	DeleteBySubmission(ctx context.Context, tx *gorm.DB, submissionID uuid.UUID) error
}

type fieldSeriesRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFieldSeriesRepo(db *gorm.DB, baseLog *logger.Logger) FieldSeriesRepo {
	return &fieldSeriesRepo{db: db, log: baseLog.With("repo", "FieldSeriesRepo")}
}

func (r *fieldSeriesRepo) ListBySubmission(ctx context.Context, tx *gorm.DB, submissionID uuid.UUID) ([]*types.FieldSeriesEntry, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.FieldSeriesEntry
	if err := t.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Order("period ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *fieldSeriesRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.FieldSeriesEntry) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return nil
	}
	return t.WithContext(ctx).Create(&rows).Error
}

func (r *fieldSeriesRepo) Update(ctx context.Context, tx *gorm.DB, row *types.FieldSeriesEntry) error {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).Save(row).Error
}

func (r *fieldSeriesRepo) DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return t.WithContext(ctx).Where("id IN ?", ids).Delete(&types.FieldSeriesEntry{}).Error
}

func (r *fieldSeriesRepo) DeleteBySubmission(ctx context.Context, tx *gorm.DB, submissionID uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).Where("submission_id = ?", submissionID).Delete(&types.FieldSeriesEntry{}).Error
}

type FieldDataRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, row *types.FieldDataEntry) error
	GetBySubmission(ctx context.Context, tx *gorm.DB, submissionID uuid.UUID) (*types.FieldDataEntry, error)
	DeleteBySubmission(ctx context.Context, tx *gorm.DB, submissionID uuid.UUID) error
}

type fieldDataRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFieldDataRepo(db *gorm.DB, baseLog *logger.Logger) FieldDataRepo {
	return &fieldDataRepo{db: db, log: baseLog.With("repo", "FieldDataRepo")}
}

func (r *fieldDataRepo) Upsert(ctx context.Context, tx *gorm.DB, row *types.FieldDataEntry) error {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "submission_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"field_data", "updated_at"}),
	}).Create(row).Error
}

func (r *fieldDataRepo) GetBySubmission(ctx context.Context, tx *gorm.DB, submissionID uuid.UUID) (*types.FieldDataEntry, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out types.FieldDataEntry
	if err := t.WithContext(ctx).Where("submission_id = ?", submissionID).First(&out).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

func (r *fieldDataRepo) DeleteBySubmission(ctx context.Context, tx *gorm.DB, submissionID uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).Where("submission_id = ?", submissionID).Delete(&types.FieldDataEntry{}).Error
}

package submissions

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/domain"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/platform/logger"
)

type ValueRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, row *types.SubmissionValue) error
	GetBySubmission(ctx context.Context, tx *gorm.DB, submissionID uuid.UUID) (*types.SubmissionValue, error)
	ListBySubmissionIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.SubmissionValue, error)
	DeleteBySubmission(ctx context.Context, tx *gorm.DB, submissionID uuid.UUID) error
}

type valueRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewValueRepo(db *gorm.DB, baseLog *logger.Logger) ValueRepo {
	return &valueRepo{db: db, log: baseLog.With("repo", "SubmissionValueRepo")}
}

func (r *valueRepo) Upsert(ctx context.Context, tx *gorm.DB, row *types.SubmissionValue) error {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "submission_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"numeric_value", "text_value", "updated_at"}),
	}).Create(row).Error
}

func (r *valueRepo) GetBySubmission(ctx context.Context, tx *gorm.DB, submissionID uuid.UUID) (*types.SubmissionValue, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out types.SubmissionValue
	if err := t.WithContext(ctx).Where("submission_id = ?", submissionID).First(&out).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

func (r *valueRepo) ListBySubmissionIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.SubmissionValue, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.SubmissionValue
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(ctx).Where("submission_id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *valueRepo) DeleteBySubmission(ctx context.Context, tx *gorm.DB, submissionID uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).Where("submission_id = ?", submissionID).Delete(&types.SubmissionValue{}).Error
}

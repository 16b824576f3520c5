package definitions

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/domain"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/platform/logger"
)

type AssignmentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.Assignment) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Assignment, error)
	ListByForm(ctx context.Context, tx *gorm.DB, formID uuid.UUID) ([]*types.Assignment, error)
}

type assignmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAssignmentRepo(db *gorm.DB, baseLog *logger.Logger) AssignmentRepo {
	return &assignmentRepo{db: db, log: baseLog.With("repo", "AssignmentRepo")}
}

func (r *assignmentRepo) Create(ctx context.Context, tx *gorm.DB, row *types.Assignment) error {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).Create(row).Error
}

func (r *assignmentRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Assignment, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out types.Assignment
	if err := t.WithContext(ctx).Where("id = ?", id).First(&out).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

func (r *assignmentRepo) ListByForm(ctx context.Context, tx *gorm.DB, formID uuid.UUID) ([]*types.Assignment, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Assignment
	if err := t.WithContext(ctx).Where("form_id = ?", formID).Order("period_start ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

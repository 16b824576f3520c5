package definitions

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/domain"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/platform/logger"
)

type FormRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.Form) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Form, error)
	GetByCode(ctx context.Context, tx *gorm.DB, code string) (*types.Form, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.Form, error)
}

type formRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFormRepo(db *gorm.DB, baseLog *logger.Logger) FormRepo {
	return &formRepo{db: db, log: baseLog.With("repo", "FormRepo")}
}

func (r *formRepo) Create(ctx context.Context, tx *gorm.DB, row *types.Form) error {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).Create(row).Error
}

func (r *formRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Form, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out types.Form
	if err := t.WithContext(ctx).Where("id = ?", id).First(&out).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

func (r *formRepo) GetByCode(ctx context.Context, tx *gorm.DB, code string) (*types.Form, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out types.Form
	if err := t.WithContext(ctx).Where("code = ?", code).First(&out).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

func (r *formRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Form, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Form
	if err := t.WithContext(ctx).Order("code ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

package definitions

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/domain"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/platform/logger"
)

type LayerRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.Layer) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Layer, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.Layer, error)
}

type layerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLayerRepo(db *gorm.DB, baseLog *logger.Logger) LayerRepo {
	return &layerRepo{db: db, log: baseLog.With("repo", "LayerRepo")}
}

func (r *layerRepo) Create(ctx context.Context, tx *gorm.DB, row *types.Layer) error {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).Create(row).Error
}

func (r *layerRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Layer, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out types.Layer
	if err := t.WithContext(ctx).Where("id = ?", id).First(&out).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

func (r *layerRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Layer, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Layer
	if err := t.WithContext(ctx).Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

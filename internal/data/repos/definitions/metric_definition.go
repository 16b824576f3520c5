package definitions

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/domain"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/platform/logger"
)

type MetricDefinitionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.MetricDefinition) error
	// UpsertByCode creates or refreshes a definition keyed on its code; used
	// by the template loader.
	UpsertByCode(ctx context.Context, tx *gorm.DB, row *types.MetricDefinition) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.MetricDefinition, error)
	GetByCode(ctx context.Context, tx *gorm.DB, code string) (*types.MetricDefinition, error)
	ListByForm(ctx context.Context, tx *gorm.DB, formID uuid.UUID) ([]*types.MetricDefinition, error)
	Update(ctx context.Context, tx *gorm.DB, row *types.MetricDefinition) error
	// Delete refuses to remove a definition still referenced by submissions.
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type metricDefinitionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMetricDefinitionRepo(db *gorm.DB, baseLog *logger.Logger) MetricDefinitionRepo {
	return &metricDefinitionRepo{db: db, log: baseLog.With("repo", "MetricDefinitionRepo")}
}

func (r *metricDefinitionRepo) Create(ctx context.Context, tx *gorm.DB, row *types.MetricDefinition) error {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).Create(row).Error
}

func (r *metricDefinitionRepo) UpsertByCode(ctx context.Context, tx *gorm.DB, row *types.MetricDefinition) error {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "kind", "location", "unit_type", "unit", "min_value", "max_value",
			"aggregates_inputs", "allow_multiple_submissions_per_period",
			"emission_category", "emission_subcategory", "energy_category", "energy_subcategory",
			"pollutant_category", "pollutant_subcategory", "config", "updated_at",
		}),
	}).Create(row).Error
}

func (r *metricDefinitionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.MetricDefinition, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out types.MetricDefinition
	if err := t.WithContext(ctx).Where("id = ?", id).First(&out).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

func (r *metricDefinitionRepo) GetByCode(ctx context.Context, tx *gorm.DB, code string) (*types.MetricDefinition, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out types.MetricDefinition
	if err := t.WithContext(ctx).Where("code = ?", code).First(&out).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

func (r *metricDefinitionRepo) ListByForm(ctx context.Context, tx *gorm.DB, formID uuid.UUID) ([]*types.MetricDefinition, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.MetricDefinition
	if err := t.WithContext(ctx).Where("form_id = ?", formID).Order("code ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *metricDefinitionRepo) Update(ctx context.Context, tx *gorm.DB, row *types.MetricDefinition) error {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).Save(row).Error
}

func (r *metricDefinitionRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	t := tx
	if t == nil {
		t = r.db
	}
	var count int64
	if err := t.WithContext(ctx).Model(&types.SubmissionHeader{}).
		Where("metric_id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return types.NewError(types.CodePreconditionFailed, "MetricDefinitionRepo.Delete",
			"metric definition still referenced by submissions", nil)
	}
	return t.WithContext(ctx).Where("id = ?", id).Delete(&types.MetricDefinition{}).Error
}

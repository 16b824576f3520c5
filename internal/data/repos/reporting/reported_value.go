package reporting

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/domain"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/platform/logger"
)

// Key identifies one reported value row.
type Key struct {
	AssignmentID    uuid.UUID
	MetricID        uuid.UUID
	LayerID         uuid.UUID
	ReportingPeriod time.Time
	Level           types.Level
}

type ReportedValueRepo interface {
	// Upsert inserts or replaces the row for the key carried by the model.
	// Last write wins; each recompute rebuilds the row from scratch.
	Upsert(ctx context.Context, tx *gorm.DB, row *types.ReportedValue) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ReportedValue, error)
	GetByKey(ctx context.Context, tx *gorm.DB, key Key) (*types.ReportedValue, error)
	DeleteByKey(ctx context.Context, tx *gorm.DB, key Key) error
	ListByAssignment(ctx context.Context, tx *gorm.DB, assignmentID uuid.UUID) ([]*types.ReportedValue, error)
	ListByMetric(ctx context.Context, tx *gorm.DB, assignmentID, metricID, layerID uuid.UUID) ([]*types.ReportedValue, error)
}

type reportedValueRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReportedValueRepo(db *gorm.DB, baseLog *logger.Logger) ReportedValueRepo {
	return &reportedValueRepo{db: db, log: baseLog.With("repo", "ReportedValueRepo")}
}

func (r *reportedValueRepo) Upsert(ctx context.Context, tx *gorm.DB, row *types.ReportedValue) error {
	t := tx
	if t == nil {
		t = r.db
	}
	row.ReportingPeriod = types.Day(row.ReportingPeriod)
	return t.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "assignment_id"}, {Name: "metric_id"}, {Name: "layer_id"},
			{Name: "reporting_period"}, {Name: "level"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"aggregated_numeric_value", "aggregated_text_value", "aggregation_method",
			"source_submission_count", "first_submission_at", "last_submission_at",
			"calculated_at", "last_updated_at",
		}),
	}).Create(row).Error
}

func (r *reportedValueRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ReportedValue, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out types.ReportedValue
	if err := t.WithContext(ctx).Where("id = ?", id).First(&out).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

func (r *reportedValueRepo) GetByKey(ctx context.Context, tx *gorm.DB, key Key) (*types.ReportedValue, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out types.ReportedValue
	err := t.WithContext(ctx).
		Where("assignment_id = ? AND metric_id = ? AND layer_id = ? AND reporting_period = ? AND level = ?",
			key.AssignmentID, key.MetricID, key.LayerID, types.Day(key.ReportingPeriod), key.Level).
		First(&out).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

func (r *reportedValueRepo) DeleteByKey(ctx context.Context, tx *gorm.DB, key Key) error {
	t := tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(ctx).
		Where("assignment_id = ? AND metric_id = ? AND layer_id = ? AND reporting_period = ? AND level = ?",
			key.AssignmentID, key.MetricID, key.LayerID, types.Day(key.ReportingPeriod), key.Level).
		Delete(&types.ReportedValue{}).Error
}

func (r *reportedValueRepo) ListByAssignment(ctx context.Context, tx *gorm.DB, assignmentID uuid.UUID) ([]*types.ReportedValue, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.ReportedValue
	if err := t.WithContext(ctx).
		Where("assignment_id = ?", assignmentID).
		Order("reporting_period ASC, level ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *reportedValueRepo) ListByMetric(ctx context.Context, tx *gorm.DB, assignmentID, metricID, layerID uuid.UUID) ([]*types.ReportedValue, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.ReportedValue
	if err := t.WithContext(ctx).
		Where("assignment_id = ? AND metric_id = ? AND layer_id = ?", assignmentID, metricID, layerID).
		Order("reporting_period ASC, level ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

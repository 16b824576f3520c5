package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReportedValue caches the last computed aggregate per (assignment, metric,
// layer, period, level). ReportingPeriod is the end of the aggregation
// window. Rows are deleted when a recalculation finds zero contributing
// submissions.
type ReportedValue struct {
	ID           uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	AssignmentID uuid.UUID         `gorm:"type:uuid;not null;index;uniqueIndex:ux_reported_value,priority:1" json:"assignment_id"`
	MetricID     uuid.UUID         `gorm:"type:uuid;not null;index;uniqueIndex:ux_reported_value,priority:2" json:"metric_id"`
	Metric       *MetricDefinition `gorm:"foreignKey:MetricID;references:ID" json:"metric,omitempty"`
	LayerID      uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:ux_reported_value,priority:3" json:"layer_id"`

	ReportingPeriod time.Time `gorm:"column:reporting_period;not null;uniqueIndex:ux_reported_value,priority:4" json:"reporting_period"`
	Level           Level     `gorm:"column:level;not null;uniqueIndex:ux_reported_value,priority:5" json:"level"`

	AggregatedNumericValue *float64          `gorm:"column:aggregated_numeric_value" json:"aggregated_numeric_value,omitempty"`
	AggregatedTextValue    *string           `gorm:"column:aggregated_text_value" json:"aggregated_text_value,omitempty"`
	AggregationMethod      AggregationMethod `gorm:"column:aggregation_method" json:"aggregation_method,omitempty"`

	SourceSubmissionCount int        `gorm:"column:source_submission_count;not null;default:0" json:"source_submission_count"`
	FirstSubmissionAt     *time.Time `gorm:"column:first_submission_at" json:"first_submission_at,omitempty"`
	LastSubmissionAt      *time.Time `gorm:"column:last_submission_at" json:"last_submission_at,omitempty"`

	CalculatedAt  time.Time `gorm:"column:calculated_at;not null" json:"calculated_at"`
	LastUpdatedAt time.Time `gorm:"column:last_updated_at;not null;autoUpdateTime" json:"last_updated_at"`
}

func (ReportedValue) TableName() string { return "reported_value" }

// AggregateResult is what a kind-specific aggregation algorithm returns for
// one window. A nil result means nothing contributed.
type AggregateResult struct {
	NumericValue      *float64
	TextValue         *string
	Method            AggregationMethod
	ContributingCount int
}

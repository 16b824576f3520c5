package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SubmissionHeader identifies one reporting event for (assignment, metric,
// layer, period). Exactly one kind-specific payload hangs off each header.
//
// UniquenessKey closes the concurrent-create race: for metrics that do not
// allow multiple submissions per period the key is derived from the
// identifying tuple, so the unique index makes the check-and-insert atomic.
// Metrics that allow multiple submissions use the row id as the key, which
// never collides.
type SubmissionHeader struct {
	ID           uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	AssignmentID uuid.UUID         `gorm:"type:uuid;not null;index:idx_submission_scope" json:"assignment_id"`
	Assignment   *Assignment       `gorm:"constraint:OnDelete:CASCADE;foreignKey:AssignmentID;references:ID" json:"assignment,omitempty"`
	MetricID     uuid.UUID         `gorm:"type:uuid;not null;index:idx_submission_scope" json:"metric_id"`
	Metric       *MetricDefinition `gorm:"foreignKey:MetricID;references:ID" json:"metric,omitempty"`
	LayerID      uuid.UUID         `gorm:"type:uuid;not null;index:idx_submission_scope" json:"layer_id"`
	Layer        *Layer            `gorm:"foreignKey:LayerID;references:ID" json:"layer,omitempty"`

	ReportingPeriod  *time.Time `gorm:"column:reporting_period" json:"reporting_period,omitempty"`
	SourceIdentifier *string    `gorm:"column:source_identifier" json:"source_identifier,omitempty"`

	UniquenessKey string `gorm:"column:uniqueness_key;not null;uniqueIndex" json:"-"`

	SubmittedBy string    `gorm:"column:submitted_by" json:"submitted_by,omitempty"`
	SubmittedAt time.Time `gorm:"column:submitted_at;not null;index" json:"submitted_at"`
	Notes       string    `gorm:"column:notes" json:"notes,omitempty"`

	Verified   bool       `gorm:"column:verified;not null;default:false" json:"verified"`
	VerifiedBy *string    `gorm:"column:verified_by" json:"verified_by,omitempty"`
	VerifiedAt *time.Time `gorm:"column:verified_at" json:"verified_at,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (SubmissionHeader) TableName() string { return "submission_header" }

// UniquenessKeyFor derives the storage-level uniqueness key for a
// single-submission-per-period metric.
func UniquenessKeyFor(assignmentID, metricID, layerID uuid.UUID, period *time.Time) string {
	p := "none"
	if period != nil {
		p = Day(*period).Format("2006-01-02")
	}
	return fmt.Sprintf("%s|%s|%s|%s", assignmentID, metricID, layerID, p)
}

package recalcrun

import (
	"time"

	"github.com/google/uuid"

	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/domain"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/services"
)

const (
	WorkflowName  = "submission_recalc"
	ActivityApply = "submission_recalc_apply"
)

// ChangeInput is the serializable form of a submission change event. The
// workflow carries it verbatim; only the activity interprets it.
type ChangeInput struct {
	SubmissionID    uuid.UUID   `json:"submission_id"`
	AssignmentID    uuid.UUID   `json:"assignment_id"`
	MetricID        uuid.UUID   `json:"metric_id"`
	LayerID         uuid.UUID   `json:"layer_id"`
	Kind            domain.Kind `json:"kind"`
	ReportingPeriod *time.Time  `json:"reporting_period,omitempty"`
	Months          []time.Time `json:"months,omitempty"`
	Deleted         bool        `json:"deleted,omitempty"`
}

func FromChange(ev services.SubmissionChange) ChangeInput {
	return ChangeInput{
		SubmissionID:    ev.SubmissionID,
		AssignmentID:    ev.AssignmentID,
		MetricID:        ev.MetricID,
		LayerID:         ev.LayerID,
		Kind:            ev.Kind,
		ReportingPeriod: ev.ReportingPeriod,
		Months:          ev.Months,
		Deleted:         ev.Deleted,
	}
}

func (in ChangeInput) ToChange() services.SubmissionChange {
	return services.SubmissionChange{
		SubmissionID:    in.SubmissionID,
		AssignmentID:    in.AssignmentID,
		MetricID:        in.MetricID,
		LayerID:         in.LayerID,
		Kind:            in.Kind,
		ReportingPeriod: in.ReportingPeriod,
		Months:          in.Months,
		Deleted:         in.Deleted,
	}
}

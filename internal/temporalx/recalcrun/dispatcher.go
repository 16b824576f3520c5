package recalcrun

import (
	"context"
	"fmt"
	"time"

	temporalsdkclient "go.temporal.io/sdk/client"

	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/platform/logger"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/services"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/temporalx"
)

// Dispatcher hands submission change events to Temporal instead of running
// them in-process. Dispatch failures are logged and dropped; the synchronous
// recompute endpoint remains the repair path.
type Dispatcher struct {
	log *logger.Logger
	tc  temporalsdkclient.Client
	cfg temporalx.Config
}

func NewDispatcher(log *logger.Logger, tc temporalsdkclient.Client) (*Dispatcher, error) {
	if tc == nil {
		return nil, fmt.Errorf("recalcrun: temporal client is not configured")
	}
	return &Dispatcher{
		log: log.With("service", "RecalcDispatcher"),
		tc:  tc,
		cfg: temporalx.LoadConfig(),
	}, nil
}

func (d *Dispatcher) SubmissionChanged(ctx context.Context, ev services.SubmissionChange) {
	if d == nil || d.tc == nil {
		return
	}
	// Post-commit callers may carry a canceled request context.
	ctx = context.WithoutCancel(ctx)
	workflowID := fmt.Sprintf("recalc-%s-%d", ev.SubmissionID, time.Now().UnixNano())
	_, err := d.tc.ExecuteWorkflow(ctx, temporalsdkclient.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: d.cfg.TaskQueue,
	}, WorkflowName, FromChange(ev))
	if err != nil {
		d.log.Error("failed to dispatch recalc workflow",
			"workflow_id", workflowID,
			"submission_id", ev.SubmissionID,
			"assignment_id", ev.AssignmentID,
			"metric_id", ev.MetricID,
			"error", err)
		return
	}
	d.log.Info("dispatched recalc workflow", "workflow_id", workflowID, "submission_id", ev.SubmissionID)
}

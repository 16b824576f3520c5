package recalcrun

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.temporal.io/sdk/activity"

	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/platform/logger"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/services"
)

// Activities hosts the worker-side recalculation. The scheduler must run its
// tasks synchronously so the activity outcome reflects the whole fan-out.
type Activities struct {
	Log       *logger.Logger
	Scheduler services.RecalcScheduler
}

func (a *Activities) Apply(ctx context.Context, in ChangeInput) error {
	if a == nil || a.Scheduler == nil {
		return fmt.Errorf("recalcrun: activity not configured")
	}
	if in.SubmissionID == uuid.Nil {
		return fmt.Errorf("recalcrun: missing submission_id")
	}
	activity.RecordHeartbeat(ctx, in.SubmissionID.String())
	a.Scheduler.SubmissionChanged(ctx, in.ToChange())
	return nil
}

package aggregates

import (
	"context"
	"strings"
	"time"

	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/domain"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/pkg/dbctx"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/platform/logger"
	"gorm.io/gorm"
)

// BaseDeps bundles the shared write-path dependencies of the services layer.
type BaseDeps struct {
	DB     *gorm.DB
	Log    *logger.Logger
	Runner TxRunner
	Hooks  Hooks
}

func (d BaseDeps) WithDefaults() BaseDeps {
	if d.Runner == nil {
		d.Runner = NewGormTxRunner(d.DB)
	}
	if d.Hooks == nil {
		d.Hooks = noopHooks{}
	}
	return d
}

// ExecuteWrite runs fn inside a transaction, maps infrastructure errors into
// domain codes and reports the operation to the observability hooks.
func ExecuteWrite(ctx context.Context, deps BaseDeps, op string, fn func(dbc dbctx.Context) error) error {
	start := time.Now()
	deps = deps.WithDefaults()
	op = strings.TrimSpace(op)
	if op == "" {
		op = "write"
	}
	err := deps.Runner.InTx(ctx, fn)
	mapped := MapError(op, err)

	status := "success"
	if mapped != nil {
		status = errorStatus(mapped)
		if domain.IsCode(mapped, domain.CodeConflict) || domain.IsCode(mapped, domain.CodeDuplicateSubmission) {
			deps.Hooks.IncConflict(op)
		}
		if domain.IsCode(mapped, domain.CodeRetryable) {
			deps.Hooks.IncRetry(op)
		}
	}
	deps.Hooks.ObserveOperation(op, status, time.Since(start))
	return mapped
}

func errorStatus(err error) string {
	if err == nil {
		return "success"
	}
	code := strings.TrimSpace(string(domain.CodeOf(err)))
	if code == "" {
		return "failure"
	}
	return code
}

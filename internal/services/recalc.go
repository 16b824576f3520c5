package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/data/aggregates"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/data/repos"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/data/repos/reporting"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/domain"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/observability"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/pkg/dbctx"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/platform/logger"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/registry"
)

// TaskRunner decides where recalculation tasks execute. The default runs
// each task on its own goroutine; a synchronous runner serves tests and the
// operator CLI, and a Temporal-backed runner can enqueue durable work.
type TaskRunner interface {
	Run(ctx context.Context, name string, fn func(context.Context))
}

type AsyncRunner struct {
	wg sync.WaitGroup
}

// NewAsyncRunner runs tasks on detached goroutines. The task context survives
// the request that triggered it.
func NewAsyncRunner() *AsyncRunner { return &AsyncRunner{} }

func (r *AsyncRunner) Run(ctx context.Context, name string, fn func(context.Context)) {
	taskCtx := context.WithoutCancel(ctx)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		fn(taskCtx)
	}()
}

// Wait blocks until all scheduled tasks finish; used in shutdown and tests.
func (r *AsyncRunner) Wait() { r.wg.Wait() }

type syncRunner struct{}

func NewSyncRunner() TaskRunner { return syncRunner{} }

func (syncRunner) Run(ctx context.Context, name string, fn func(context.Context)) { fn(ctx) }

// RecalcScheduler turns committed submission changes into reported-value
// recompute tasks.
type RecalcScheduler interface {
	RecalcTrigger
	// RecomputeKey recomputes one reported value synchronously, returning the
	// error instead of swallowing it.
	RecomputeKey(ctx context.Context, key reporting.Key) (*domain.ReportedValue, error)
}

type RecalcDeps struct {
	Base aggregates.BaseDeps

	Metrics     repos.MetricDefinitionRepo
	Assignments repos.AssignmentRepo

	Aggregation AggregationService
	Notifier    EmissionNotifier
	Runner      TaskRunner
}

type recalcScheduler struct {
	deps RecalcDeps
	log  *logger.Logger
}

func NewRecalcScheduler(deps RecalcDeps) RecalcScheduler {
	deps.Base = deps.Base.WithDefaults()
	if deps.Runner == nil {
		deps.Runner = NewAsyncRunner()
	}
	if deps.Notifier == nil {
		deps.Notifier = NewNoopEmissionNotifier()
	}
	return &recalcScheduler{deps: deps, log: deps.Base.Log.With("service", "RecalcScheduler")}
}

type recalcTask struct {
	key reporting.Key
}

func (s *recalcScheduler) SubmissionChanged(ctx context.Context, ev SubmissionChange) {
	if !registry.Aggregatable(ev.Kind) {
		observability.Current().IncRecalcSkipped("not_aggregatable")
		return
	}
	metric, err := s.deps.Metrics.GetByID(ctx, nil, ev.MetricID)
	if err != nil || metric == nil {
		s.log.Warn("recalc trigger: metric unavailable", "metric_id", ev.MetricID, "error", err)
		return
	}
	assignment, err := s.deps.Assignments.GetByID(ctx, nil, ev.AssignmentID)
	if err != nil || assignment == nil {
		s.log.Warn("recalc trigger: assignment unavailable", "assignment_id", ev.AssignmentID, "error", err)
		return
	}

	for _, task := range s.enumerateTasks(assignment, ev) {
		task := task
		name := fmt.Sprintf("recalc %s/%s %s", ev.MetricID, task.key.Level, domain.Day(task.key.ReportingPeriod).Format("2006-01-02"))
		observability.Current().RecalcPendingInc()
		s.deps.Runner.Run(ctx, name, func(taskCtx context.Context) {
			defer observability.Current().RecalcPendingDec()
			s.runTask(taskCtx, metric, task.key)
		})
	}
}

// enumerateTasks maps one change event to the reported-value keys that need
// recomputing. Basic metrics report annually at the assignment end date,
// never monthly. Time-resolved kinds recompute every distinct affected month
// inside the assignment window plus the annual rollup.
func (s *recalcScheduler) enumerateTasks(assignment *domain.Assignment, ev SubmissionChange) []recalcTask {
	annual := recalcTask{key: reporting.Key{
		AssignmentID:    ev.AssignmentID,
		MetricID:        ev.MetricID,
		LayerID:         ev.LayerID,
		ReportingPeriod: domain.Day(assignment.PeriodEnd),
		Level:           domain.LevelAnnual,
	}}

	if ev.Kind == domain.KindBasic {
		return []recalcTask{annual}
	}

	months := ev.Months
	if ev.Deleted {
		// Orphan check: a delete may leave stale monthly rows in months the
		// snapshot missed, so scan the assignment window's final year too.
		months = append(months, assignmentYearMonths(assignment)...)
	}

	seen := map[time.Time]struct{}{}
	var tasks []recalcTask
	for _, raw := range months {
		month := domain.MonthStart(raw)
		if _, ok := seen[month]; ok {
			continue
		}
		seen[month] = struct{}{}
		if month.After(domain.Day(assignment.PeriodEnd)) || domain.MonthEnd(month).Before(domain.Day(assignment.PeriodStart)) {
			s.log.Warn("recalc trigger: month outside assignment window, skipping",
				"assignment_id", ev.AssignmentID, "metric_id", ev.MetricID, "month", month.Format("2006-01"))
			observability.Current().IncRecalcSkipped("outside_window")
			continue
		}
		periodEnd := domain.MonthEnd(month)
		if periodEnd.After(domain.Day(assignment.PeriodEnd)) {
			periodEnd = domain.Day(assignment.PeriodEnd)
		}
		tasks = append(tasks, recalcTask{key: reporting.Key{
			AssignmentID:    ev.AssignmentID,
			MetricID:        ev.MetricID,
			LayerID:         ev.LayerID,
			ReportingPeriod: periodEnd,
			Level:           domain.LevelMonthly,
		}})
	}
	return append(tasks, annual)
}

func assignmentYearMonths(assignment *domain.Assignment) []time.Time {
	start := domain.MonthStart(assignment.PeriodStart)
	end := domain.MonthStart(assignment.PeriodEnd)
	yearStart := domain.YearStart(assignment.PeriodEnd)
	if start.Before(yearStart) {
		start = yearStart
	}
	var out []time.Time
	for m := start; !m.After(end); m = m.AddDate(0, 1, 0) {
		out = append(out, m)
	}
	return out
}

// runTask recomputes one key. Failures are logged with full key context and
// swallowed: the reported value stays at its last known good state.
func (s *recalcScheduler) runTask(ctx context.Context, metric *domain.MetricDefinition, key reporting.Key) {
	start := time.Now()
	status := "success"
	defer func() {
		if r := recover(); r != nil {
			status = "panic"
			s.log.Error("recalc task panicked",
				"panic", r, "assignment_id", key.AssignmentID, "metric_id", key.MetricID,
				"layer_id", key.LayerID, "period", domain.Day(key.ReportingPeriod), "level", key.Level)
		}
		observability.Current().ObserveRecalcTask(string(metric.Kind), string(key.Level), status, time.Since(start))
	}()

	if _, err := s.recompute(ctx, metric, key); err != nil {
		status = "error"
		s.log.Error("recalc task failed",
			"error", err, "assignment_id", key.AssignmentID, "metric_id", key.MetricID,
			"layer_id", key.LayerID, "period", domain.Day(key.ReportingPeriod), "level", key.Level)
	}
}

func (s *recalcScheduler) RecomputeKey(ctx context.Context, key reporting.Key) (*domain.ReportedValue, error) {
	const op = "Recalc.RecomputeKey"
	metric, err := s.deps.Metrics.GetByID(ctx, nil, key.MetricID)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if metric == nil {
		return nil, domain.NewError(domain.CodeNotFound, op, fmt.Sprintf("metric not found: %s", key.MetricID), nil)
	}
	return s.recompute(ctx, metric, key)
}

func (s *recalcScheduler) recompute(ctx context.Context, metric *domain.MetricDefinition, key reporting.Key) (*domain.ReportedValue, error) {
	var stored *domain.ReportedValue
	err := aggregates.ExecuteWrite(ctx, s.deps.Base, "Recalc.Task", func(dbc dbctx.Context) error {
		var err error
		stored, err = s.deps.Aggregation.Recompute(dbc.Ctx, dbc.Tx, metric, key)
		if err != nil {
			return err
		}
		if stored != nil {
			id := stored.ID
			dbc.AfterCommit(func(ctx context.Context) {
				s.deps.Notifier.ReportedValueChanged(ctx, id)
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

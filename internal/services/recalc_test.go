package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/data/aggregates"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/data/repos"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/data/repos/reporting"
	repotest "github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/data/repos/testutil"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/domain"
)

// fakeAggregation records the keys the scheduler asks it to recompute.
type fakeAggregation struct {
	mu     sync.Mutex
	keys   []reporting.Key
	result *domain.ReportedValue
}

func (f *fakeAggregation) CalculateReportValue(context.Context, *gorm.DB, *domain.MetricDefinition, reporting.Key) (*domain.AggregateResult, error) {
	return nil, nil
}

func (f *fakeAggregation) Recompute(_ context.Context, _ *gorm.DB, _ *domain.MetricDefinition, key reporting.Key) (*domain.ReportedValue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, key)
	return f.result, nil
}

func (f *fakeAggregation) Keys() []reporting.Key {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]reporting.Key, len(f.keys))
	copy(out, f.keys)
	return out
}

type recordingNotifier struct {
	mu  sync.Mutex
	ids []uuid.UUID
}

func (n *recordingNotifier) ReportedValueChanged(_ context.Context, id uuid.UUID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ids = append(n.ids, id)
}

func (n *recordingNotifier) IDs() []uuid.UUID {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]uuid.UUID, len(n.ids))
	copy(out, n.ids)
	return out
}

type schedulerEnv struct {
	db          *gorm.DB
	Scheduler   RecalcScheduler
	Aggregation *fakeAggregation
	Notifier    *recordingNotifier
}

func newSchedulerEnv(t *testing.T) *schedulerEnv {
	t.Helper()
	db := repotest.DB(t)
	log := repotest.Logger(t)

	fake := &fakeAggregation{}
	notifier := &recordingNotifier{}
	scheduler := NewRecalcScheduler(RecalcDeps{
		Base:        aggregates.BaseDeps{DB: db, Log: log},
		Metrics:     repos.NewMetricDefinitionRepo(db, log),
		Assignments: repos.NewAssignmentRepo(db, log),
		Aggregation: fake,
		Notifier:    notifier,
		Runner:      NewSyncRunner(),
	})
	return &schedulerEnv{db: db, Scheduler: scheduler, Aggregation: fake, Notifier: notifier}
}

func changeFor(sc repotest.Scope, kind domain.Kind, months ...time.Time) SubmissionChange {
	return SubmissionChange{
		SubmissionID: uuid.New(),
		AssignmentID: sc.Assignment.ID,
		MetricID:     sc.Metric.ID,
		LayerID:      sc.Layer.ID,
		Kind:         kind,
		Months:       months,
	}
}

func TestSchedulerBasicKindRecomputesAnnualOnly(t *testing.T) {
	env := newSchedulerEnv(t)
	sc := repotest.SeedScope(t, env.db, domain.KindBasic)

	env.Scheduler.SubmissionChanged(context.Background(), changeFor(sc, domain.KindBasic, domain.Date(2024, 6, 1)))

	keys := env.Aggregation.Keys()
	if len(keys) != 1 {
		t.Fatalf("want one annual task, got %d: %+v", len(keys), keys)
	}
	if keys[0].Level != domain.LevelAnnual || !keys[0].ReportingPeriod.Equal(domain.Date(2024, 12, 31)) {
		t.Fatalf("annual key wrong: %+v", keys[0])
	}
}

func TestSchedulerTimeSeriesRecomputesMonthsAndAnnual(t *testing.T) {
	env := newSchedulerEnv(t)
	sc := repotest.SeedScope(t, env.db, domain.KindTimeSeries)

	env.Scheduler.SubmissionChanged(context.Background(),
		changeFor(sc, domain.KindTimeSeries, domain.Date(2024, 5, 1), domain.Date(2024, 6, 1)))

	keys := env.Aggregation.Keys()
	if len(keys) != 3 {
		t.Fatalf("want two monthly tasks plus the annual, got %d: %+v", len(keys), keys)
	}
	if keys[0].Level != domain.LevelMonthly || !keys[0].ReportingPeriod.Equal(domain.Date(2024, 5, 31)) {
		t.Fatalf("may key wrong: %+v", keys[0])
	}
	if keys[1].Level != domain.LevelMonthly || !keys[1].ReportingPeriod.Equal(domain.Date(2024, 6, 30)) {
		t.Fatalf("june key wrong: %+v", keys[1])
	}
	if keys[2].Level != domain.LevelAnnual {
		t.Fatalf("annual key wrong: %+v", keys[2])
	}
}

func TestSchedulerSkipsMonthsOutsideWindow(t *testing.T) {
	env := newSchedulerEnv(t)
	sc := repotest.SeedScope(t, env.db, domain.KindTimeSeries)

	env.Scheduler.SubmissionChanged(context.Background(),
		changeFor(sc, domain.KindTimeSeries, domain.Date(2025, 2, 1)))

	keys := env.Aggregation.Keys()
	if len(keys) != 1 || keys[0].Level != domain.LevelAnnual {
		t.Fatalf("out-of-window month should leave only the annual task, got %+v", keys)
	}
}

func TestSchedulerIgnoresNonAggregatableKinds(t *testing.T) {
	env := newSchedulerEnv(t)
	sc := repotest.SeedScope(t, env.db, domain.KindTabular)

	env.Scheduler.SubmissionChanged(context.Background(), changeFor(sc, domain.KindTabular))

	if keys := env.Aggregation.Keys(); len(keys) != 0 {
		t.Fatalf("tabular changes must not schedule recalcs, got %+v", keys)
	}
}

func TestSchedulerDeleteScansReportingYear(t *testing.T) {
	env := newSchedulerEnv(t)
	sc := repotest.SeedScope(t, env.db, domain.KindTimeSeries)

	ev := changeFor(sc, domain.KindTimeSeries)
	ev.Deleted = true
	env.Scheduler.SubmissionChanged(context.Background(), ev)

	// 12 months in the 2024 assignment window plus the annual rollup
	keys := env.Aggregation.Keys()
	if len(keys) != 13 {
		t.Fatalf("delete should recompute every window month, got %d keys", len(keys))
	}
	if !keys[0].ReportingPeriod.Equal(domain.Date(2024, 1, 31)) {
		t.Fatalf("first monthly key wrong: %+v", keys[0])
	}
	if keys[12].Level != domain.LevelAnnual {
		t.Fatalf("last key should be the annual rollup: %+v", keys[12])
	}
}

func TestRecomputeKeyUnknownMetric(t *testing.T) {
	env := newSchedulerEnv(t)

	_, err := env.Scheduler.RecomputeKey(context.Background(), reporting.Key{
		AssignmentID:    uuid.New(),
		MetricID:        uuid.New(),
		LayerID:         uuid.New(),
		ReportingPeriod: domain.Date(2024, 12, 31),
		Level:           domain.LevelAnnual,
	})
	if !domain.IsCode(err, domain.CodeNotFound) {
		t.Fatalf("want CodeNotFound, got %v", err)
	}
}

func TestRecomputeNotifiesEmissionHookAfterCommit(t *testing.T) {
	env := newSchedulerEnv(t)
	sc := repotest.SeedScope(t, env.db, domain.KindBasic)

	stored := &domain.ReportedValue{ID: uuid.New()}
	env.Aggregation.result = stored

	env.Scheduler.SubmissionChanged(context.Background(), changeFor(sc, domain.KindBasic))

	ids := env.Notifier.IDs()
	if len(ids) != 1 || ids[0] != stored.ID {
		t.Fatalf("emission hook should fire once per stored row, got %v", ids)
	}
}

package services

import (
	"context"
	"sync"
	"testing"

	"gorm.io/gorm"

	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/data/aggregates"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/data/repos"
	repotest "github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/data/repos/testutil"
)

// recordingTrigger captures submission change events fired after commit.
type recordingTrigger struct {
	mu     sync.Mutex
	events []SubmissionChange
}

func (r *recordingTrigger) SubmissionChanged(_ context.Context, ev SubmissionChange) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingTrigger) Events() []SubmissionChange {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]SubmissionChange, len(r.events))
	copy(out, r.events)
	return out
}

type testEnv struct {
	db *gorm.DB

	Headers  repos.HeaderRepo
	Reported repos.ReportedValueRepo

	Submission  SubmissionService
	Aggregation AggregationService
	Trigger     *recordingTrigger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := repotest.DB(t)
	log := repotest.Logger(t)

	headers := repos.NewHeaderRepo(db, log)
	values := repos.NewValueRepo(db, log)
	rows := repos.NewRowRepo(db, log)
	materials := repos.NewMaterialPointRepo(db, log)
	points := repos.NewPointRepo(db, log)
	fieldSeries := repos.NewFieldSeriesRepo(db, log)
	fieldData := repos.NewFieldDataRepo(db, log)
	vehicles := repos.NewVehicleRepo(db, log)
	fuels := repos.NewFuelRepo(db, log)
	metrics := repos.NewMetricDefinitionRepo(db, log)
	assignments := repos.NewAssignmentRepo(db, log)
	reported := repos.NewReportedValueRepo(db, log)

	trigger := &recordingTrigger{}
	base := aggregates.BaseDeps{DB: db, Log: log}

	submission := NewSubmissionService(SubmissionDeps{
		Base:           base,
		Headers:        headers,
		Values:         values,
		Rows:           rows,
		MaterialPoints: materials,
		Points:         points,
		FieldSeries:    fieldSeries,
		FieldData:      fieldData,
		Vehicles:       vehicles,
		Fuels:          fuels,
		Metrics:        metrics,
		Assignments:    assignments,
		Recalc:         trigger,
	})

	aggregation := NewAggregationService(AggregationDeps{
		Log:      log,
		Headers:  headers,
		Values:   values,
		Points:   points,
		Vehicles: vehicles,
		Fuels:    fuels,
		Reported: reported,
	})

	return &testEnv{
		db:          db,
		Headers:     headers,
		Reported:    reported,
		Submission:  submission,
		Aggregation: aggregation,
		Trigger:     trigger,
	}
}

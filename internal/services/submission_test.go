package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	repotest "github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/data/repos/testutil"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/domain"
)

func TestSubmitBasicCreatesHeaderAndFiresEvent(t *testing.T) {
	env := newTestEnv(t)
	sc := repotest.SeedScope(t, env.db, domain.KindBasic)

	header, err := env.Submission.Submit(context.Background(), SubmitInput{
		AssignmentID:    sc.Assignment.ID,
		MetricID:        sc.Metric.ID,
		LayerID:         sc.Layer.ID,
		ReportingPeriod: at(time.Date(2024, 6, 15, 14, 30, 0, 0, time.UTC)),
		SubmittedBy:     "alex",
		Notes:           "meter reading",
		Payload:         domain.PayloadInput{Value: &domain.ValueInput{NumericValue: f64(120)}},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if header.ReportingPeriod == nil || !header.ReportingPeriod.Equal(domain.Date(2024, 6, 15)) {
		t.Fatalf("reporting period should collapse to the day, got %v", header.ReportingPeriod)
	}
	want := domain.UniquenessKeyFor(sc.Assignment.ID, sc.Metric.ID, sc.Layer.ID, header.ReportingPeriod)
	if header.UniquenessKey != want {
		t.Fatalf("uniqueness key: want=%s got=%s", want, header.UniquenessKey)
	}

	events := env.Trigger.Events()
	if len(events) != 1 {
		t.Fatalf("want one change event, got %d", len(events))
	}
	ev := events[0]
	if ev.SubmissionID != header.ID || ev.MetricID != sc.Metric.ID || ev.Kind != domain.KindBasic {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.Deleted {
		t.Fatalf("create must not be flagged as a delete")
	}
}

func TestSubmitDuplicatePeriodRejected(t *testing.T) {
	env := newTestEnv(t)
	sc := repotest.SeedScope(t, env.db, domain.KindBasic)

	submitBasic(t, env, sc, domain.Date(2024, 6, 15), 10)
	_, err := env.Submission.Submit(context.Background(), SubmitInput{
		AssignmentID:    sc.Assignment.ID,
		MetricID:        sc.Metric.ID,
		LayerID:         sc.Layer.ID,
		ReportingPeriod: at(domain.Date(2024, 6, 15)),
		SubmittedBy:     "tester",
		Payload:         domain.PayloadInput{Value: &domain.ValueInput{NumericValue: f64(11)}},
	})
	if !domain.IsCode(err, domain.CodeDuplicateSubmission) {
		t.Fatalf("want CodeDuplicateSubmission, got %v", err)
	}
	if got := len(env.Trigger.Events()); got != 1 {
		t.Fatalf("rolled-back write must not fire events, got %d", got)
	}
}

func TestSubmitConcurrentDuplicatesRaceOnUniquenessKey(t *testing.T) {
	env := newTestEnv(t)
	sc := repotest.SeedScope(t, env.db, domain.KindBasic)

	const writers = 4
	errs := make([]error, writers)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = env.Submission.Submit(context.Background(), SubmitInput{
				AssignmentID:    sc.Assignment.ID,
				MetricID:        sc.Metric.ID,
				LayerID:         sc.Layer.ID,
				ReportingPeriod: at(domain.Date(2024, 6, 15)),
				SubmittedBy:     "tester",
				Payload:         domain.PayloadInput{Value: &domain.ValueInput{NumericValue: f64(float64(i))}},
			})
		}(i)
	}
	close(start)
	wg.Wait()

	ok := 0
	for i, err := range errs {
		if err == nil {
			ok++
			continue
		}
		if !domain.IsCode(err, domain.CodeDuplicateSubmission) {
			t.Fatalf("writer %d: want CodeDuplicateSubmission, got %v", i, err)
		}
	}
	if ok != 1 {
		t.Fatalf("exactly one writer should win the uniqueness key, got %d", ok)
	}
	headers, err := env.Headers.ListByScope(context.Background(), nil, sc.Assignment.ID, sc.Metric.ID, sc.Layer.ID)
	if err != nil {
		t.Fatalf("ListByScope: %v", err)
	}
	if len(headers) != 1 {
		t.Fatalf("want one stored header, got %d", len(headers))
	}
}

func TestSubmitMultiplePerPeriodWhenConfigured(t *testing.T) {
	env := newTestEnv(t)
	sc := repotest.SeedScope(t, env.db, domain.KindBasic, repotest.WithMultipleSubmissions())

	submitBasic(t, env, sc, domain.Date(2024, 6, 15), 10)
	submitBasic(t, env, sc, domain.Date(2024, 6, 15), 20)

	headers, err := env.Headers.ListByScope(context.Background(), nil, sc.Assignment.ID, sc.Metric.ID, sc.Layer.ID)
	if err != nil {
		t.Fatalf("ListByScope: %v", err)
	}
	if len(headers) != 2 {
		t.Fatalf("want two submissions for the same period, got %d", len(headers))
	}
}

func TestSubmitOutsideAssignmentWindow(t *testing.T) {
	env := newTestEnv(t)
	sc := repotest.SeedScope(t, env.db, domain.KindBasic)

	_, err := env.Submission.Submit(context.Background(), SubmitInput{
		AssignmentID:    sc.Assignment.ID,
		MetricID:        sc.Metric.ID,
		LayerID:         sc.Layer.ID,
		ReportingPeriod: at(domain.Date(2025, 2, 1)),
		SubmittedBy:     "tester",
		Payload:         domain.PayloadInput{Value: &domain.ValueInput{NumericValue: f64(1)}},
	})
	if !domain.IsCode(err, domain.CodeOutOfRange) {
		t.Fatalf("want CodeOutOfRange, got %v", err)
	}
}

func TestSubmitUnknownMetric(t *testing.T) {
	env := newTestEnv(t)
	sc := repotest.SeedScope(t, env.db, domain.KindBasic)

	_, err := env.Submission.Submit(context.Background(), SubmitInput{
		AssignmentID: sc.Assignment.ID,
		MetricID:     uuid.New(),
		LayerID:      sc.Layer.ID,
		SubmittedBy:  "tester",
		Payload:      domain.PayloadInput{Value: &domain.ValueInput{NumericValue: f64(1)}},
	})
	if !domain.IsCode(err, domain.CodeNotFound) {
		t.Fatalf("want CodeNotFound, got %v", err)
	}
}

func TestUpdateReplacesPointsAndReportsBothMonths(t *testing.T) {
	env := newTestEnv(t)
	sc := repotest.SeedScope(t, env.db, domain.KindTimeSeries)

	header, err := env.Submission.Submit(context.Background(), SubmitInput{
		AssignmentID: sc.Assignment.ID,
		MetricID:     sc.Metric.ID,
		LayerID:      sc.Layer.ID,
		SubmittedBy:  "tester",
		Payload: domain.PayloadInput{Points: []domain.PointInput{
			{Period: domain.Date(2024, 5, 1), Value: 5},
		}},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	notes := "restated"
	updated, err := env.Submission.Update(context.Background(), header.ID, UpdateInput{
		Notes: &notes,
		Payload: &domain.PayloadInput{Points: []domain.PointInput{
			{Period: domain.Date(2024, 6, 1), Value: 9},
		}},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Notes != "restated" {
		t.Fatalf("notes not updated: %q", updated.Notes)
	}

	detail, err := env.Submission.Get(context.Background(), header.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(detail.Points) != 1 || !detail.Points[0].Period.Equal(domain.Date(2024, 6, 1)) {
		t.Fatalf("points should be replaced by the diff, got %+v", detail.Points)
	}

	events := env.Trigger.Events()
	if len(events) != 2 {
		t.Fatalf("want submit+update events, got %d", len(events))
	}
	// both the vacated and the new month need recalculation
	months := events[1].Months
	if len(months) != 2 || !months[0].Equal(domain.Date(2024, 5, 1)) || !months[1].Equal(domain.Date(2024, 6, 1)) {
		t.Fatalf("update event months: %v", months)
	}
}

func TestUpdateTabularDiffsRowsByID(t *testing.T) {
	env := newTestEnv(t)
	sc := repotest.SeedScope(t, env.db, domain.KindTabular, repotest.WithoutAggregation())

	header, err := env.Submission.Submit(context.Background(), SubmitInput{
		AssignmentID: sc.Assignment.ID,
		MetricID:     sc.Metric.ID,
		LayerID:      sc.Layer.ID,
		SubmittedBy:  "tester",
		Payload: domain.PayloadInput{Rows: []domain.RowInput{
			{Data: map[string]any{"supplier": "acme", "tonnes": 10}},
			{Data: map[string]any{"supplier": "globex", "tonnes": 4}},
		}},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	detail, err := env.Submission.Get(context.Background(), header.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(detail.Rows) != 2 {
		t.Fatalf("want two rows, got %d", len(detail.Rows))
	}
	keptID := detail.Rows[0].ID

	_, err = env.Submission.Update(context.Background(), header.ID, UpdateInput{
		Payload: &domain.PayloadInput{Rows: []domain.RowInput{
			{ID: &keptID, Data: map[string]any{"supplier": "acme", "tonnes": 12}},
		}},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	detail, err = env.Submission.Get(context.Background(), header.ID)
	if err != nil {
		t.Fatalf("Get after update: %v", err)
	}
	if len(detail.Rows) != 1 {
		t.Fatalf("unreferenced row should be deleted, got %d rows", len(detail.Rows))
	}
	row := detail.Rows[0]
	if row.ID != keptID {
		t.Fatalf("referenced row must keep its id: want=%s got=%s", keptID, row.ID)
	}
	var data map[string]any
	if err := json.Unmarshal(row.RowData, &data); err != nil {
		t.Fatalf("row data: %v", err)
	}
	if data["tonnes"] != float64(12) {
		t.Fatalf("row data not updated in place: %+v", data)
	}
}

func TestDeleteEmitsDeletedEventWithMonths(t *testing.T) {
	env := newTestEnv(t)
	sc := repotest.SeedScope(t, env.db, domain.KindTimeSeries)

	header, err := env.Submission.Submit(context.Background(), SubmitInput{
		AssignmentID: sc.Assignment.ID,
		MetricID:     sc.Metric.ID,
		LayerID:      sc.Layer.ID,
		SubmittedBy:  "tester",
		Payload: domain.PayloadInput{Points: []domain.PointInput{
			{Period: domain.Date(2024, 3, 1), Value: 2},
			{Period: domain.Date(2024, 4, 1), Value: 3},
		}},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if err := env.Submission.Delete(context.Background(), header.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := env.Submission.Get(context.Background(), header.ID); !domain.IsCode(err, domain.CodeNotFound) {
		t.Fatalf("deleted submission should be gone, got %v", err)
	}

	events := env.Trigger.Events()
	if len(events) != 2 {
		t.Fatalf("want submit+delete events, got %d", len(events))
	}
	ev := events[1]
	if !ev.Deleted {
		t.Fatalf("delete event not flagged: %+v", ev)
	}
	if len(ev.Months) != 2 {
		t.Fatalf("delete event should carry the vacated months, got %v", ev.Months)
	}
}

func TestVerifyStampsHeader(t *testing.T) {
	env := newTestEnv(t)
	sc := repotest.SeedScope(t, env.db, domain.KindBasic)

	header, err := env.Submission.Submit(context.Background(), SubmitInput{
		AssignmentID:    sc.Assignment.ID,
		MetricID:        sc.Metric.ID,
		LayerID:         sc.Layer.ID,
		ReportingPeriod: at(domain.Date(2024, 8, 1)),
		SubmittedBy:     "tester",
		Payload:         domain.PayloadInput{Value: &domain.ValueInput{NumericValue: f64(3)}},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	verified, err := env.Submission.Verify(context.Background(), header.ID, "auditor")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !verified.Verified || verified.VerifiedBy == nil || *verified.VerifiedBy != "auditor" || verified.VerifiedAt == nil {
		t.Fatalf("verification stamp missing: %+v", verified)
	}
}

package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/data/repos/reporting"
	repotest "github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/data/repos/testutil"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/domain"
)

func f64(v float64) *float64 { return &v }
func str(v string) *string   { return &v }
func at(t time.Time) *time.Time {
	return &t
}

func annualKey(sc repotest.Scope) reporting.Key {
	return reporting.Key{
		AssignmentID:    sc.Assignment.ID,
		MetricID:        sc.Metric.ID,
		LayerID:         sc.Layer.ID,
		ReportingPeriod: sc.Assignment.PeriodEnd,
		Level:           domain.LevelAnnual,
	}
}

func monthlyKey(sc repotest.Scope, period time.Time) reporting.Key {
	k := annualKey(sc)
	k.ReportingPeriod = period
	k.Level = domain.LevelMonthly
	return k
}

func submitBasic(t *testing.T, env *testEnv, sc repotest.Scope, period time.Time, value float64) {
	t.Helper()
	_, err := env.Submission.Submit(context.Background(), SubmitInput{
		AssignmentID:    sc.Assignment.ID,
		MetricID:        sc.Metric.ID,
		LayerID:         sc.Layer.ID,
		ReportingPeriod: at(period),
		SubmittedBy:     "tester",
		Payload:         domain.PayloadInput{Value: &domain.ValueInput{NumericValue: f64(value)}},
	})
	if err != nil {
		t.Fatalf("submit basic: %v", err)
	}
}

func TestBasicNumericSumsAcrossPeriods(t *testing.T) {
	env := newTestEnv(t)
	sc := repotest.SeedScope(t, env.db, domain.KindBasic)

	submitBasic(t, env, sc, domain.Date(2024, 6, 15), 10)
	submitBasic(t, env, sc, domain.Date(2024, 7, 15), 20)

	res, err := env.Aggregation.CalculateReportValue(context.Background(), nil, sc.Metric, annualKey(sc))
	if err != nil {
		t.Fatalf("CalculateReportValue: %v", err)
	}
	if res == nil || res.NumericValue == nil {
		t.Fatalf("want a numeric result, got %+v", res)
	}
	if *res.NumericValue != 30 {
		t.Fatalf("sum: want=30 got=%v", *res.NumericValue)
	}
	if res.Method != domain.MethodSum {
		t.Fatalf("method: want=SUM got=%s", res.Method)
	}
	if res.ContributingCount != 2 {
		t.Fatalf("contributing count: want=2 got=%d", res.ContributingCount)
	}
}

func TestBasicTextLastSubmissionWins(t *testing.T) {
	env := newTestEnv(t)
	sc := repotest.SeedScope(t, env.db, domain.KindBasic, repotest.WithTextUnit(), repotest.WithMultipleSubmissions())

	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	for i, text := range []string{"draft", "reviewed", "final"} {
		_, err := env.Submission.Submit(context.Background(), SubmitInput{
			AssignmentID:    sc.Assignment.ID,
			MetricID:        sc.Metric.ID,
			LayerID:         sc.Layer.ID,
			ReportingPeriod: at(domain.Date(2024, 5, 1)),
			SubmittedBy:     "tester",
			SubmittedAt:     at(base.Add(time.Duration(i) * time.Hour)),
			Payload:         domain.PayloadInput{Value: &domain.ValueInput{TextValue: str(text)}},
		})
		if err != nil {
			t.Fatalf("submit text %q: %v", text, err)
		}
	}

	res, err := env.Aggregation.CalculateReportValue(context.Background(), nil, sc.Metric, annualKey(sc))
	if err != nil {
		t.Fatalf("CalculateReportValue: %v", err)
	}
	if res == nil || res.TextValue == nil || *res.TextValue != "final" {
		t.Fatalf("want the latest text value, got %+v", res)
	}
	if res.Method != domain.MethodLast {
		t.Fatalf("method: want=LAST got=%s", res.Method)
	}
	if res.ContributingCount != 1 {
		t.Fatalf("only the winning submission contributes, got %d", res.ContributingCount)
	}
}

func TestTimeSeriesMonthlyWindowAndAnnualTotal(t *testing.T) {
	env := newTestEnv(t)
	sc := repotest.SeedScope(t, env.db, domain.KindTimeSeries)

	_, err := env.Submission.Submit(context.Background(), SubmitInput{
		AssignmentID: sc.Assignment.ID,
		MetricID:     sc.Metric.ID,
		LayerID:      sc.Layer.ID,
		SubmittedBy:  "tester",
		Payload: domain.PayloadInput{Points: []domain.PointInput{
			{Period: domain.Date(2024, 5, 1), Value: 5},
			{Period: domain.Date(2024, 6, 1), Value: 7},
		}},
	})
	if err != nil {
		t.Fatalf("submit points: %v", err)
	}

	june, err := env.Aggregation.CalculateReportValue(context.Background(), nil, sc.Metric, monthlyKey(sc, domain.Date(2024, 6, 30)))
	if err != nil {
		t.Fatalf("monthly aggregate: %v", err)
	}
	if june == nil || june.NumericValue == nil || *june.NumericValue != 7 {
		t.Fatalf("june should only see the june point, got %+v", june)
	}

	annual, err := env.Aggregation.CalculateReportValue(context.Background(), nil, sc.Metric, annualKey(sc))
	if err != nil {
		t.Fatalf("annual aggregate: %v", err)
	}
	if annual == nil || annual.NumericValue == nil || *annual.NumericValue != 12 {
		t.Fatalf("annual should sum both points, got %+v", annual)
	}
	if annual.ContributingCount != 1 {
		t.Fatalf("one submission contributed, got %d", annual.ContributingCount)
	}
}

func TestTimeSeriesAvgMethod(t *testing.T) {
	env := newTestEnv(t)
	sc := repotest.SeedScope(t, env.db, domain.KindTimeSeries, repotest.WithConfig(`{"method":"AVG"}`))

	_, err := env.Submission.Submit(context.Background(), SubmitInput{
		AssignmentID: sc.Assignment.ID,
		MetricID:     sc.Metric.ID,
		LayerID:      sc.Layer.ID,
		SubmittedBy:  "tester",
		Payload: domain.PayloadInput{Points: []domain.PointInput{
			{Period: domain.Date(2024, 1, 1), Value: 10},
			{Period: domain.Date(2024, 2, 1), Value: 20},
		}},
	})
	if err != nil {
		t.Fatalf("submit points: %v", err)
	}

	res, err := env.Aggregation.CalculateReportValue(context.Background(), nil, sc.Metric, annualKey(sc))
	if err != nil {
		t.Fatalf("CalculateReportValue: %v", err)
	}
	if res == nil || res.NumericValue == nil || *res.NumericValue != 15 {
		t.Fatalf("avg: want=15 got=%+v", res)
	}
	if res.Method != domain.MethodAvg {
		t.Fatalf("method: want=AVG got=%s", res.Method)
	}
}

func TestTimeSeriesLastPrefersNewestSubmission(t *testing.T) {
	env := newTestEnv(t)
	sc := repotest.SeedScope(t, env.db, domain.KindTimeSeries,
		repotest.WithConfig(`{"method":"LAST"}`), repotest.WithMultipleSubmissions())

	base := time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC)
	// the older submission carries the later-period point
	for i, point := range []domain.PointInput{
		{Period: domain.Date(2024, 8, 1), Value: 100},
		{Period: domain.Date(2024, 6, 1), Value: 42},
	} {
		_, err := env.Submission.Submit(context.Background(), SubmitInput{
			AssignmentID: sc.Assignment.ID,
			MetricID:     sc.Metric.ID,
			LayerID:      sc.Layer.ID,
			SubmittedBy:  "tester",
			SubmittedAt:  at(base.Add(time.Duration(i) * time.Hour)),
			Payload:      domain.PayloadInput{Points: []domain.PointInput{point}},
		})
		if err != nil {
			t.Fatalf("submit point %d: %v", i, err)
		}
	}

	res, err := env.Aggregation.CalculateReportValue(context.Background(), nil, sc.Metric, annualKey(sc))
	if err != nil {
		t.Fatalf("CalculateReportValue: %v", err)
	}
	if res == nil || res.NumericValue == nil || *res.NumericValue != 42 {
		t.Fatalf("LAST should follow submission recency, got %+v", res)
	}
	if res.Method != domain.MethodLast {
		t.Fatalf("method: want=LAST got=%s", res.Method)
	}
}

func TestVehicleTrackingBreakdown(t *testing.T) {
	env := newTestEnv(t)
	sc := repotest.SeedScope(t, env.db, domain.KindVehicleTracking)

	_, err := env.Submission.Submit(context.Background(), SubmitInput{
		AssignmentID: sc.Assignment.ID,
		MetricID:     sc.Metric.ID,
		LayerID:      sc.Layer.ID,
		SubmittedBy:  "tester",
		Payload: domain.PayloadInput{Vehicles: []domain.VehicleInput{
			{
				VehicleType:  "truck",
				FuelType:     "diesel",
				Registration: "AB-1111",
				Monthly: []domain.MonthlyUsageInput{
					{Period: domain.Date(2024, 3, 1), FuelConsumed: f64(100), Kilometers: f64(800)},
				},
			},
			{
				VehicleType:  "truck",
				FuelType:     "diesel",
				Registration: "CD-2222",
				Monthly: []domain.MonthlyUsageInput{
					{Period: domain.Date(2024, 4, 1), FuelConsumed: f64(150), Kilometers: f64(1200)},
				},
			},
			{
				VehicleType:  "van",
				FuelType:     "petrol",
				Registration: "EF-3333",
				Monthly: []domain.MonthlyUsageInput{
					{Period: domain.Date(2024, 5, 1), FuelConsumed: f64(50), Kilometers: f64(400)},
				},
			},
		}},
	})
	if err != nil {
		t.Fatalf("submit vehicles: %v", err)
	}

	res, err := env.Aggregation.CalculateReportValue(context.Background(), nil, sc.Metric, annualKey(sc))
	if err != nil {
		t.Fatalf("CalculateReportValue: %v", err)
	}
	if res == nil || res.NumericValue == nil || *res.NumericValue != 300 {
		t.Fatalf("fuel total: want=300 got=%+v", res)
	}
	if res.TextValue == nil {
		t.Fatalf("vehicle aggregation should carry a breakdown")
	}
	var breakdown struct {
		TotalFuelConsumed float64 `json:"total_fuel_consumed"`
		TotalKilometers   float64 `json:"total_kilometers"`
		Vehicles          []struct {
			VehicleType  string  `json:"vehicle_type"`
			FuelType     string  `json:"fuel_type"`
			Registration string  `json:"registration"`
			FuelConsumed float64 `json:"fuel_consumed"`
			Kilometers   float64 `json:"kilometers"`
		} `json:"vehicles"`
	}
	if err := json.Unmarshal([]byte(*res.TextValue), &breakdown); err != nil {
		t.Fatalf("decode breakdown: %v", err)
	}
	if breakdown.TotalKilometers != 2400 {
		t.Fatalf("kilometers: want=2400 got=%v", breakdown.TotalKilometers)
	}
	// every vehicle stays its own entry: same-type trucks must not collapse
	if len(breakdown.Vehicles) != 3 {
		t.Fatalf("want one entry per vehicle, got %+v", breakdown.Vehicles)
	}
	first, second := breakdown.Vehicles[0], breakdown.Vehicles[1]
	if first.Registration != "AB-1111" || first.FuelConsumed != 100 || first.Kilometers != 800 {
		t.Fatalf("first truck entry: %+v", first)
	}
	if second.Registration != "CD-2222" || second.FuelConsumed != 150 || second.Kilometers != 1200 {
		t.Fatalf("second truck entry: %+v", second)
	}
	if breakdown.Vehicles[2].VehicleType != "van" || breakdown.Vehicles[2].FuelType != "petrol" {
		t.Fatalf("van entry: %+v", breakdown.Vehicles[2])
	}

	// a monthly window only sees that month's usage
	march, err := env.Aggregation.CalculateReportValue(context.Background(), nil, sc.Metric, monthlyKey(sc, domain.Date(2024, 3, 31)))
	if err != nil {
		t.Fatalf("monthly aggregate: %v", err)
	}
	if march == nil || march.NumericValue == nil || *march.NumericValue != 100 {
		t.Fatalf("march window: want=100 got=%+v", march)
	}
}

func TestFuelConsumptionBreakdownPerSource(t *testing.T) {
	env := newTestEnv(t)
	sc := repotest.SeedScope(t, env.db, domain.KindFuelConsumption)

	_, err := env.Submission.Submit(context.Background(), SubmitInput{
		AssignmentID: sc.Assignment.ID,
		MetricID:     sc.Metric.ID,
		LayerID:      sc.Layer.ID,
		SubmittedBy:  "tester",
		Payload: domain.PayloadInput{FuelSources: []domain.FuelSourceInput{
			{
				SourceType: "generator",
				FuelType:   "diesel",
				Name:       "backup genset A",
				Monthly: []domain.MonthlyUsageInput{
					{Period: domain.Date(2024, 2, 1), FuelConsumed: f64(30)},
				},
			},
			{
				SourceType: "generator",
				FuelType:   "diesel",
				Name:       "backup genset B",
				Monthly: []domain.MonthlyUsageInput{
					{Period: domain.Date(2024, 3, 1), FuelConsumed: f64(70)},
				},
			},
		}},
	})
	if err != nil {
		t.Fatalf("submit fuel sources: %v", err)
	}

	res, err := env.Aggregation.CalculateReportValue(context.Background(), nil, sc.Metric, annualKey(sc))
	if err != nil {
		t.Fatalf("CalculateReportValue: %v", err)
	}
	if res == nil || res.NumericValue == nil || *res.NumericValue != 100 {
		t.Fatalf("fuel total: want=100 got=%+v", res)
	}
	if res.TextValue == nil {
		t.Fatalf("fuel aggregation should carry a breakdown")
	}
	var breakdown struct {
		TotalFuelConsumed float64 `json:"total_fuel_consumed"`
		Sources           []struct {
			SourceType   string  `json:"source_type"`
			FuelType     string  `json:"fuel_type"`
			Name         string  `json:"name"`
			FuelConsumed float64 `json:"fuel_consumed"`
		} `json:"sources"`
	}
	if err := json.Unmarshal([]byte(*res.TextValue), &breakdown); err != nil {
		t.Fatalf("decode breakdown: %v", err)
	}
	if len(breakdown.Sources) != 2 {
		t.Fatalf("same-type sources must stay distinct entries, got %+v", breakdown.Sources)
	}
	a, b := breakdown.Sources[0], breakdown.Sources[1]
	if a.Name != "backup genset A" || a.FuelConsumed != 30 {
		t.Fatalf("first source entry: %+v", a)
	}
	if b.Name != "backup genset B" || b.FuelConsumed != 70 {
		t.Fatalf("second source entry: %+v", b)
	}
}

func TestAggregatesInputsOptOut(t *testing.T) {
	env := newTestEnv(t)
	sc := repotest.SeedScope(t, env.db, domain.KindBasic, repotest.WithoutAggregation())

	submitBasic(t, env, sc, domain.Date(2024, 6, 1), 42)

	res, err := env.Aggregation.CalculateReportValue(context.Background(), nil, sc.Metric, annualKey(sc))
	if err != nil {
		t.Fatalf("CalculateReportValue: %v", err)
	}
	if res != nil {
		t.Fatalf("opted-out metric must not aggregate, got %+v", res)
	}
}

func TestOptOutAfterTheFactRemovesCachedRow(t *testing.T) {
	env := newTestEnv(t)
	sc := repotest.SeedScope(t, env.db, domain.KindBasic)

	submitBasic(t, env, sc, domain.Date(2024, 6, 1), 42)

	key := annualKey(sc)
	stored, err := env.Aggregation.Recompute(context.Background(), nil, sc.Metric, key)
	if err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	if stored == nil {
		t.Fatalf("want a cached row before the flag flips")
	}

	if err := env.db.Model(sc.Metric).Update("aggregates_inputs", false).Error; err != nil {
		t.Fatalf("flip flag: %v", err)
	}
	sc.Metric.AggregatesInputs = false

	removed, err := env.Aggregation.Recompute(context.Background(), nil, sc.Metric, key)
	if err != nil {
		t.Fatalf("Recompute after flip: %v", err)
	}
	if removed != nil {
		t.Fatalf("opted-out metric should drop its cached row, got %+v", removed)
	}
	left, err := env.Reported.GetByKey(context.Background(), nil, key)
	if err != nil {
		t.Fatalf("GetByKey: %v", err)
	}
	if left != nil {
		t.Fatalf("cached row should be gone, got %+v", left)
	}
}

func TestUnsupportedKindIsFatal(t *testing.T) {
	env := newTestEnv(t)
	// tabular metrics never reach the engine through normal config
	// validation; seeding one with AggregatesInputs set exercises the guard.
	sc := repotest.SeedScope(t, env.db, domain.KindTabular)

	_, err := env.Submission.Submit(context.Background(), SubmitInput{
		AssignmentID: sc.Assignment.ID,
		MetricID:     sc.Metric.ID,
		LayerID:      sc.Layer.ID,
		SubmittedBy:  "tester",
		Payload:      domain.PayloadInput{Rows: []domain.RowInput{{Data: map[string]any{"a": 1}}}},
	})
	if err != nil {
		t.Fatalf("submit rows: %v", err)
	}

	_, err = env.Aggregation.CalculateReportValue(context.Background(), nil, sc.Metric, annualKey(sc))
	if !domain.IsCode(err, domain.CodeUnsupportedKind) {
		t.Fatalf("want CodeUnsupportedKind, got %v", err)
	}
}

func TestRecomputeUpsertsAndRemovesOrphans(t *testing.T) {
	env := newTestEnv(t)
	sc := repotest.SeedScope(t, env.db, domain.KindBasic)

	submitBasic(t, env, sc, domain.Date(2024, 6, 15), 10)
	headers, err := env.Headers.ListByScope(context.Background(), nil, sc.Assignment.ID, sc.Metric.ID, sc.Layer.ID)
	if err != nil || len(headers) != 1 {
		t.Fatalf("list headers: %v (n=%d)", err, len(headers))
	}

	key := annualKey(sc)
	stored, err := env.Aggregation.Recompute(context.Background(), nil, sc.Metric, key)
	if err != nil {
		t.Fatalf("Recompute: %v", err)
	}
	if stored == nil || stored.AggregatedNumericValue == nil || *stored.AggregatedNumericValue != 10 {
		t.Fatalf("stored value: want=10 got=%+v", stored)
	}

	// recompute with no intervening writes keeps the row identical: same
	// primary key, same aggregate fields, same provenance
	again, err := env.Aggregation.Recompute(context.Background(), nil, sc.Metric, key)
	if err != nil {
		t.Fatalf("second Recompute: %v", err)
	}
	if again == nil {
		t.Fatalf("second Recompute returned nothing")
	}
	if again.ID != stored.ID {
		t.Fatalf("upsert should keep the row id: %s vs %s", stored.ID, again.ID)
	}
	if *again.AggregatedNumericValue != *stored.AggregatedNumericValue ||
		again.AggregationMethod != stored.AggregationMethod ||
		again.SourceSubmissionCount != stored.SourceSubmissionCount {
		t.Fatalf("recompute should be idempotent: %+v vs %+v", stored, again)
	}
	if again.AggregatedTextValue != nil || stored.AggregatedTextValue != nil {
		t.Fatalf("numeric metric must not carry a text value")
	}
	if stored.FirstSubmissionAt == nil || again.FirstSubmissionAt == nil ||
		!again.FirstSubmissionAt.Equal(*stored.FirstSubmissionAt) ||
		!again.LastSubmissionAt.Equal(*stored.LastSubmissionAt) {
		t.Fatalf("submission provenance drifted: %+v vs %+v", stored, again)
	}

	// delete the only contributor; the cached row must go away
	if err := env.Submission.Delete(context.Background(), headers[0].ID); err != nil {
		t.Fatalf("delete submission: %v", err)
	}
	removed, err := env.Aggregation.Recompute(context.Background(), nil, sc.Metric, key)
	if err != nil {
		t.Fatalf("Recompute after delete: %v", err)
	}
	if removed != nil {
		t.Fatalf("row should be removed when nothing contributes, got %+v", removed)
	}
	left, err := env.Reported.GetByKey(context.Background(), nil, key)
	if err != nil {
		t.Fatalf("GetByKey: %v", err)
	}
	if left != nil {
		t.Fatalf("reported value should be deleted, got %+v", left)
	}
}

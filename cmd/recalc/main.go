// Command recalc recomputes a single reported value synchronously. It is the
// repair path for values that drifted from their submissions.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/app"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/data/repos/reporting"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/domain"
)

func main() {
	var (
		assignmentID = flag.String("assignment", "", "assignment id")
		metricID     = flag.String("metric", "", "metric definition id")
		layerID      = flag.String("layer", "", "layer id")
		period       = flag.String("period", "", "reporting period (YYYY-MM-DD)")
		level        = flag.String("level", "annual", "aggregation level: monthly or annual")
	)
	flag.Parse()

	key, err := parseKey(*assignmentID, *metricID, *layerID, *period, *level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid arguments: %v\n", err)
		flag.Usage()
		os.Exit(2)
	}

	a, err := app.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	rv, err := a.Services.Recalc.RecomputeKey(ctx, key)
	if err != nil {
		a.Log.Error("recompute failed", "error", err)
		os.Exit(1)
	}
	if rv == nil {
		fmt.Println("no contributing submissions; reported value removed")
		return
	}
	if rv.AggregatedNumericValue != nil {
		fmt.Printf("reported value %s: numeric=%v method=%s sources=%d\n", rv.ID, *rv.AggregatedNumericValue, rv.AggregationMethod, rv.SourceSubmissionCount)
		return
	}
	text := ""
	if rv.AggregatedTextValue != nil {
		text = *rv.AggregatedTextValue
	}
	fmt.Printf("reported value %s: text=%q method=%s sources=%d\n", rv.ID, text, rv.AggregationMethod, rv.SourceSubmissionCount)
}

func parseKey(assignment, metric, layer, period, level string) (reporting.Key, error) {
	var key reporting.Key
	var err error
	if key.AssignmentID, err = uuid.Parse(assignment); err != nil {
		return key, fmt.Errorf("assignment: %w", err)
	}
	if key.MetricID, err = uuid.Parse(metric); err != nil {
		return key, fmt.Errorf("metric: %w", err)
	}
	if key.LayerID, err = uuid.Parse(layer); err != nil {
		return key, fmt.Errorf("layer: %w", err)
	}
	t, err := time.Parse("2006-01-02", period)
	if err != nil {
		return key, fmt.Errorf("period: %w", err)
	}
	key.ReportingPeriod = domain.Day(t)
	switch domain.Level(level) {
	case domain.LevelMonthly, domain.LevelAnnual:
		key.Level = domain.Level(level)
	default:
		return key, fmt.Errorf("level must be monthly or annual")
	}
	return key, nil
}

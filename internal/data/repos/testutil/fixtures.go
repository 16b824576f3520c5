package testutil

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/domain"
)

// SeedScope creates a form, layer, assignment and metric definition for one
// reporting year, returning the pieces most tests need.
type Scope struct {
	Form       *types.Form
	Layer      *types.Layer
	Assignment *types.Assignment
	Metric     *types.MetricDefinition
}

func SeedScope(tb testing.TB, tx *gorm.DB, kind types.Kind, opts ...func(*types.MetricDefinition)) Scope {
	tb.Helper()

	form := &types.Form{
		ID:   uuid.New(),
		Code: "FRM-" + uuid.NewString()[:8],
		Name: "Environmental KPI",
	}
	if err := tx.Create(form).Error; err != nil {
		tb.Fatalf("seed form: %v", err)
	}

	layer := &types.Layer{ID: uuid.New(), Name: "HK Operations"}
	if err := tx.Create(layer).Error; err != nil {
		tb.Fatalf("seed layer: %v", err)
	}

	assignment := &types.Assignment{
		ID:          uuid.New(),
		FormID:      form.ID,
		EntityName:  "Group HQ",
		PeriodStart: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
	}
	if err := tx.Create(assignment).Error; err != nil {
		tb.Fatalf("seed assignment: %v", err)
	}

	metric := &types.MetricDefinition{
		ID:               uuid.New(),
		FormID:           form.ID,
		Code:             "MET-" + uuid.NewString()[:8],
		Name:             "Electricity Consumption",
		Kind:             kind,
		Location:         types.LocationAll,
		UnitType:         types.UnitNumeric,
		Unit:             "kWh",
		AggregatesInputs: true,
	}
	for _, opt := range opts {
		opt(metric)
	}
	if err := tx.Create(metric).Error; err != nil {
		tb.Fatalf("seed metric: %v", err)
	}

	return Scope{Form: form, Layer: layer, Assignment: assignment, Metric: metric}
}

func WithConfig(config string) func(*types.MetricDefinition) {
	return func(m *types.MetricDefinition) { m.Config = datatypes.JSON([]byte(config)) }
}

func WithTextUnit() func(*types.MetricDefinition) {
	return func(m *types.MetricDefinition) { m.UnitType = types.UnitText }
}

func WithMultipleSubmissions() func(*types.MetricDefinition) {
	return func(m *types.MetricDefinition) { m.AllowMultipleSubmissionsPerPeriod = true }
}

func WithoutAggregation() func(*types.MetricDefinition) {
	return func(m *types.MetricDefinition) { m.AggregatesInputs = false }
}

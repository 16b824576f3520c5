// Package registry defines the closed set of metric kinds: which payload
// shape each kind expects, whether it can be aggregated, and how its
// configuration and inbound payloads are validated.
package registry

import (
	"fmt"
	"strings"

	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/calcexpr"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/domain"
)

// Descriptor is the static contract of one metric kind.
type Descriptor struct {
	Kind domain.Kind
	// PayloadField names the PayloadInput member the kind reads.
	PayloadField string
	// Aggregatable marks kinds with an implemented aggregation algorithm.
	// Configuring AggregatesInputs=true on any other kind is rejected at
	// definition time, so the engine can treat reaching such a kind as a
	// deployment gap rather than bad input.
	Aggregatable bool
}

var descriptors = map[domain.Kind]Descriptor{
	domain.KindBasic:                {Kind: domain.KindBasic, PayloadField: "value", Aggregatable: true},
	domain.KindTabular:              {Kind: domain.KindTabular, PayloadField: "rows", Aggregatable: false},
	domain.KindMaterialMatrix:       {Kind: domain.KindMaterialMatrix, PayloadField: "material_points", Aggregatable: false},
	domain.KindTimeSeries:           {Kind: domain.KindTimeSeries, PayloadField: "points", Aggregatable: true},
	domain.KindMultiFieldTimeSeries: {Kind: domain.KindMultiFieldTimeSeries, PayloadField: "field_series", Aggregatable: false},
	domain.KindMultiField:           {Kind: domain.KindMultiField, PayloadField: "fields", Aggregatable: false},
	domain.KindVehicleTracking:      {Kind: domain.KindVehicleTracking, PayloadField: "vehicles", Aggregatable: true},
	domain.KindFuelConsumption:      {Kind: domain.KindFuelConsumption, PayloadField: "fuel_sources", Aggregatable: true},
}

// Lookup returns the descriptor for a kind.
func Lookup(kind domain.Kind) (Descriptor, bool) {
	d, ok := descriptors[kind]
	return d, ok
}

// ExpectedPayloadField returns the PayloadInput member name a kind reads.
func ExpectedPayloadField(kind domain.Kind) string {
	if d, ok := descriptors[kind]; ok {
		return d.PayloadField
	}
	return ""
}

// Aggregatable reports whether the kind has an aggregation algorithm.
func Aggregatable(kind domain.Kind) bool {
	if d, ok := descriptors[kind]; ok {
		return d.Aggregatable
	}
	return false
}

// ValidateConfig checks a metric definition's kind-specific configuration.
func ValidateConfig(m *domain.MetricDefinition) error {
	const op = "registry.ValidateConfig"
	if m == nil {
		return domain.NewError(domain.CodeValidation, op, "nil metric definition", nil)
	}
	d, ok := descriptors[m.Kind]
	if !ok {
		return domain.NewError(domain.CodeValidation, op, fmt.Sprintf("unknown metric kind %q", m.Kind), nil)
	}
	if m.AggregatesInputs && !d.Aggregatable {
		return domain.NewError(domain.CodeInvariantViolation, op,
			fmt.Sprintf("kind %q has no aggregation algorithm; aggregates_inputs must be false", m.Kind), nil)
	}
	if m.MinValue != nil && m.MaxValue != nil && *m.MinValue > *m.MaxValue {
		return domain.NewError(domain.CodeValidation, op, "min_value greater than max_value", nil)
	}

	switch m.Kind {
	case domain.KindTimeSeries:
		cfg, err := m.TimeSeriesConfig()
		if err != nil {
			return domain.Wrap(domain.CodeValidation, op, err)
		}
		if !cfg.Method.Valid() {
			return domain.NewError(domain.CodeValidation, op, fmt.Sprintf("invalid aggregation method %q", cfg.Method), nil)
		}
	case domain.KindTabular:
		cfg, err := m.TabularConfig()
		if err != nil {
			return domain.Wrap(domain.CodeValidation, op, err)
		}
		if err := validateColumnDefs(op, "columns", cfg.Columns); err != nil {
			return err
		}
	case domain.KindMultiField, domain.KindMultiFieldTimeSeries:
		cfg, err := m.MultiFieldConfig()
		if err != nil {
			return domain.Wrap(domain.CodeValidation, op, err)
		}
		if err := validateColumnDefs(op, "fields", cfg.Fields); err != nil {
			return err
		}
		for _, cf := range cfg.CalculatedFields {
			if strings.TrimSpace(cf.Target) == "" {
				return domain.NewError(domain.CodeValidation, op, "calculated field missing target", nil)
			}
			if _, err := calcexpr.Parse(cf.Expression); err != nil {
				return domain.Wrap(domain.CodeValidation, op, err)
			}
		}
	case domain.KindMaterialMatrix:
		if _, err := m.MaterialMatrixConfig(); err != nil {
			return domain.Wrap(domain.CodeValidation, op, err)
		}
	case domain.KindVehicleTracking, domain.KindFuelConsumption:
		if _, err := m.TrackingConfig(); err != nil {
			return domain.Wrap(domain.CodeValidation, op, err)
		}
	}
	return nil
}

func validateColumnDefs(op, what string, defs []domain.ColumnDef) error {
	seen := map[string]bool{}
	for _, c := range defs {
		key := strings.TrimSpace(c.Key)
		if key == "" {
			return domain.NewError(domain.CodeValidation, op, what+" entry missing key", nil)
		}
		if seen[key] {
			return domain.NewError(domain.CodeValidation, op, fmt.Sprintf("duplicate %s key %q", what, key), nil)
		}
		seen[key] = true
	}
	return nil
}

package registry

import (
	"fmt"
	"strings"
	"time"

	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/domain"
)

// ValidatePayload checks an inbound payload against the metric's kind and
// configuration. Shape mismatches and missing required fields fail with
// CodeValidation; basic values outside the configured range fail with
// CodeOutOfRange.
func ValidatePayload(m *domain.MetricDefinition, p domain.PayloadInput) error {
	const op = "registry.ValidatePayload"
	if m == nil {
		return domain.NewError(domain.CodeValidation, op, "nil metric definition", nil)
	}
	if _, ok := descriptors[m.Kind]; !ok {
		return domain.NewError(domain.CodeValidation, op, fmt.Sprintf("unknown metric kind %q", m.Kind), nil)
	}
	if err := checkSingleMember(op, m.Kind, p); err != nil {
		return err
	}

	switch m.Kind {
	case domain.KindBasic:
		return validateBasic(op, m, p.Value)
	case domain.KindTabular:
		return validateRows(op, m, p.Rows)
	case domain.KindMaterialMatrix:
		return validateMaterialPoints(op, p.MaterialPoints)
	case domain.KindTimeSeries:
		return validatePoints(op, p.Points)
	case domain.KindMultiFieldTimeSeries:
		return validateFieldSeries(op, m, p.FieldSeries)
	case domain.KindMultiField:
		return validateFields(op, m, p.Fields)
	case domain.KindVehicleTracking:
		return validateVehicles(op, p.Vehicles)
	case domain.KindFuelConsumption:
		return validateFuelSources(op, p.FuelSources)
	}
	return nil
}

// checkSingleMember enforces that the payload populates exactly the member
// the kind expects.
func checkSingleMember(op string, kind domain.Kind, p domain.PayloadInput) error {
	populated := map[string]bool{
		"value":           p.Value != nil,
		"rows":            p.Rows != nil,
		"material_points": p.MaterialPoints != nil,
		"points":          p.Points != nil,
		"field_series":    p.FieldSeries != nil,
		"fields":          p.Fields != nil,
		"vehicles":        p.Vehicles != nil,
		"fuel_sources":    p.FuelSources != nil,
	}
	want := ExpectedPayloadField(kind)
	if !populated[want] {
		return domain.NewError(domain.CodeValidation, op,
			fmt.Sprintf("kind %q expects payload field %q", kind, want), nil)
	}
	for field, set := range populated {
		if set && field != want {
			return domain.NewError(domain.CodeValidation, op,
				fmt.Sprintf("unexpected payload field %q for kind %q", field, kind), nil)
		}
	}
	return nil
}

func validateBasic(op string, m *domain.MetricDefinition, v *domain.ValueInput) error {
	if m.IsNumeric() {
		if v.TextValue != nil {
			return domain.NewError(domain.CodeValidation, op, "numeric metric cannot carry a text value", nil)
		}
		if v.NumericValue != nil {
			if m.MinValue != nil && *v.NumericValue < *m.MinValue {
				return domain.NewError(domain.CodeOutOfRange, op,
					fmt.Sprintf("value %g below minimum %g", *v.NumericValue, *m.MinValue), nil)
			}
			if m.MaxValue != nil && *v.NumericValue > *m.MaxValue {
				return domain.NewError(domain.CodeOutOfRange, op,
					fmt.Sprintf("value %g above maximum %g", *v.NumericValue, *m.MaxValue), nil)
			}
		}
		return nil
	}
	if v.NumericValue != nil {
		return domain.NewError(domain.CodeValidation, op, "text metric cannot carry a numeric value", nil)
	}
	return nil
}

func validateRows(op string, m *domain.MetricDefinition, rows []domain.RowInput) error {
	cfg, err := m.TabularConfig()
	if err != nil {
		return domain.Wrap(domain.CodeValidation, op, err)
	}
	for i, row := range rows {
		if len(row.Data) == 0 {
			return domain.NewError(domain.CodeValidation, op, fmt.Sprintf("row %d is empty", i), nil)
		}
		for _, col := range cfg.Columns {
			if !col.Required {
				continue
			}
			if _, ok := row.Data[col.Key]; !ok {
				return domain.NewError(domain.CodeValidation, op,
					fmt.Sprintf("row %d missing required column %q", i, col.Key), nil)
			}
		}
	}
	return nil
}

func validateMaterialPoints(op string, points []domain.MaterialInput) error {
	type key struct {
		period   time.Time
		material string
	}
	seen := map[key]bool{}
	for i, p := range points {
		if strings.TrimSpace(p.MaterialType) == "" {
			return domain.NewError(domain.CodeValidation, op, fmt.Sprintf("material point %d missing material_type", i), nil)
		}
		if p.Period.IsZero() {
			return domain.NewError(domain.CodeValidation, op, fmt.Sprintf("material point %d missing period", i), nil)
		}
		k := key{period: domain.Day(p.Period), material: p.MaterialType}
		if seen[k] {
			return domain.NewError(domain.CodeValidation, op,
				fmt.Sprintf("duplicate material point for %q at %s", p.MaterialType, k.period.Format("2006-01-02")), nil)
		}
		seen[k] = true
	}
	return nil
}

func validatePoints(op string, points []domain.PointInput) error {
	seen := map[time.Time]bool{}
	for i, p := range points {
		if p.Period.IsZero() {
			return domain.NewError(domain.CodeValidation, op, fmt.Sprintf("point %d missing period", i), nil)
		}
		d := domain.Day(p.Period)
		if seen[d] {
			return domain.NewError(domain.CodeValidation, op,
				fmt.Sprintf("duplicate point for period %s", d.Format("2006-01-02")), nil)
		}
		seen[d] = true
	}
	return nil
}

func validateFieldSeries(op string, m *domain.MetricDefinition, entries []domain.FieldSeriesInput) error {
	cfg, err := m.MultiFieldConfig()
	if err != nil {
		return domain.Wrap(domain.CodeValidation, op, err)
	}
	seen := map[time.Time]bool{}
	for i, e := range entries {
		if e.Period.IsZero() {
			return domain.NewError(domain.CodeValidation, op, fmt.Sprintf("entry %d missing period", i), nil)
		}
		d := domain.Day(e.Period)
		if seen[d] {
			return domain.NewError(domain.CodeValidation, op,
				fmt.Sprintf("duplicate entry for period %s", d.Format("2006-01-02")), nil)
		}
		seen[d] = true
		if err := checkRequiredFields(op, cfg.Fields, e.Fields, fmt.Sprintf("entry %d", i)); err != nil {
			return err
		}
	}
	return nil
}

func validateFields(op string, m *domain.MetricDefinition, fields map[string]any) error {
	cfg, err := m.MultiFieldConfig()
	if err != nil {
		return domain.Wrap(domain.CodeValidation, op, err)
	}
	return checkRequiredFields(op, cfg.Fields, fields, "fields")
}

func checkRequiredFields(op string, defs []domain.ColumnDef, data map[string]any, where string) error {
	for _, f := range defs {
		if !f.Required {
			continue
		}
		if _, ok := data[f.Key]; !ok {
			return domain.NewError(domain.CodeValidation, op,
				fmt.Sprintf("%s missing required field %q", where, f.Key), nil)
		}
	}
	return nil
}

func validateVehicles(op string, vehicles []domain.VehicleInput) error {
	for i, v := range vehicles {
		if strings.TrimSpace(v.VehicleType) == "" || strings.TrimSpace(v.FuelType) == "" {
			return domain.NewError(domain.CodeValidation, op,
				fmt.Sprintf("vehicle %d missing vehicle_type or fuel_type", i), nil)
		}
		if err := validateMonthly(op, fmt.Sprintf("vehicle %d", i), v.Monthly); err != nil {
			return err
		}
	}
	return nil
}

func validateFuelSources(op string, sources []domain.FuelSourceInput) error {
	for i, s := range sources {
		if strings.TrimSpace(s.SourceType) == "" || strings.TrimSpace(s.FuelType) == "" {
			return domain.NewError(domain.CodeValidation, op,
				fmt.Sprintf("fuel source %d missing source_type or fuel_type", i), nil)
		}
		if err := validateMonthly(op, fmt.Sprintf("fuel source %d", i), s.Monthly); err != nil {
			return err
		}
	}
	return nil
}

func validateMonthly(op, where string, entries []domain.MonthlyUsageInput) error {
	seen := map[time.Time]bool{}
	for _, e := range entries {
		if e.Period.IsZero() {
			return domain.NewError(domain.CodeValidation, op, where+" has a monthly entry without a period", nil)
		}
		m := domain.MonthStart(e.Period)
		if seen[m] {
			return domain.NewError(domain.CodeValidation, op,
				fmt.Sprintf("%s has duplicate monthly entries for %s", where, m.Format("2006-01")), nil)
		}
		seen[m] = true
	}
	return nil
}

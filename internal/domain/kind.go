package domain

// Kind is the closed set of metric shapes the platform collects.
type Kind string

const (
	KindBasic                Kind = "basic"
	KindTabular              Kind = "tabular"
	KindMaterialMatrix       Kind = "material_matrix"
	KindTimeSeries           Kind = "time_series"
	KindMultiFieldTimeSeries Kind = "multi_field_time_series"
	KindMultiField           Kind = "multi_field"
	KindVehicleTracking      Kind = "vehicle_tracking"
	KindFuelConsumption      Kind = "fuel_consumption"
)

func (k Kind) Valid() bool {
	switch k {
	case KindBasic, KindTabular, KindMaterialMatrix, KindTimeSeries,
		KindMultiFieldTimeSeries, KindMultiField, KindVehicleTracking, KindFuelConsumption:
		return true
	}
	return false
}

// AggregationMethod is the numeric rollup applied by an aggregating kind.
type AggregationMethod string

const (
	MethodSum  AggregationMethod = "SUM"
	MethodAvg  AggregationMethod = "AVG"
	MethodLast AggregationMethod = "LAST"
)

func (m AggregationMethod) Valid() bool {
	switch m {
	case MethodSum, MethodAvg, MethodLast:
		return true
	}
	return false
}

// Level is the aggregation granularity of a reported value.
type Level string

const (
	LevelMonthly Level = "monthly"
	LevelAnnual  Level = "annual"
)

func (l Level) Valid() bool {
	return l == LevelMonthly || l == LevelAnnual
}

// UnitType decides whether a basic metric carries numeric or free-text values.
type UnitType string

const (
	UnitNumeric UnitType = "numeric"
	UnitText    UnitType = "text"
)

// Location scopes a metric to a reporting jurisdiction.
type Location string

const (
	LocationHK  Location = "HK"
	LocationPRC Location = "PRC"
	LocationAll Location = "ALL"
)

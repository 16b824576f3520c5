package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// MetricDefinition is one configurable metric of a disclosure template. The
// Kind tag selects the submission payload shape and the aggregation algorithm;
// Config carries the kind-specific configuration (column definitions, field
// definitions, time-series method, vehicle/fuel lookup lists).
type MetricDefinition struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FormID uuid.UUID `gorm:"type:uuid;not null;index" json:"form_id"`
	Form   *Form     `gorm:"constraint:OnDelete:CASCADE;foreignKey:FormID;references:ID" json:"form,omitempty"`

	Code     string   `gorm:"column:code;not null;uniqueIndex" json:"code"`
	Name     string   `gorm:"column:name;not null" json:"name"`
	Kind     Kind     `gorm:"column:kind;not null;index" json:"kind"`
	Location Location `gorm:"column:location;not null;default:'ALL'" json:"location"`

	UnitType UnitType `gorm:"column:unit_type;not null;default:'numeric'" json:"unit_type"`
	Unit     string   `gorm:"column:unit" json:"unit,omitempty"`
	MinValue *float64 `gorm:"column:min_value" json:"min_value,omitempty"`
	MaxValue *float64 `gorm:"column:max_value" json:"max_value,omitempty"`

	AggregatesInputs                  bool `gorm:"column:aggregates_inputs;not null;default:false" json:"aggregates_inputs"`
	AllowMultipleSubmissionsPerPeriod bool `gorm:"column:allow_multiple_submissions_per_period;not null;default:false" json:"allow_multiple_submissions_per_period"`

	// Categories consumed by the downstream emission hook; the core never
	// interprets them.
	EmissionCategory     string `gorm:"column:emission_category" json:"emission_category,omitempty"`
	EmissionSubcategory  string `gorm:"column:emission_subcategory" json:"emission_subcategory,omitempty"`
	EnergyCategory       string `gorm:"column:energy_category" json:"energy_category,omitempty"`
	EnergySubcategory    string `gorm:"column:energy_subcategory" json:"energy_subcategory,omitempty"`
	PollutantCategory    string `gorm:"column:pollutant_category" json:"pollutant_category,omitempty"`
	PollutantSubcategory string `gorm:"column:pollutant_subcategory" json:"pollutant_subcategory,omitempty"`

	Config datatypes.JSON `gorm:"column:config" json:"config,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (MetricDefinition) TableName() string { return "metric_definition" }

// IsNumeric reports whether basic submissions carry a numeric value.
func (m *MetricDefinition) IsNumeric() bool { return m.UnitType != UnitText }

// ColumnDef describes one tabular column or multi-field entry field.
type ColumnDef struct {
	Key      string `json:"key" yaml:"key"`
	Label    string `json:"label,omitempty" yaml:"label,omitempty"`
	Type     string `json:"type,omitempty" yaml:"type,omitempty"`
	Required bool   `json:"required,omitempty" yaml:"required,omitempty"`
}

// CalculatedField maps a target field to a path expression evaluated over the
// submitted field tree (legacy schema-template calculation metadata).
type CalculatedField struct {
	Target     string `json:"target" yaml:"target"`
	Expression string `json:"expression" yaml:"expression"`
}

// TabularConfig configures KindTabular metrics.
type TabularConfig struct {
	Columns []ColumnDef `json:"columns" yaml:"columns"`
}

// MaterialMatrixConfig configures KindMaterialMatrix metrics.
type MaterialMatrixConfig struct {
	MaterialTypes []string `json:"material_types" yaml:"material_types"`
	Unit          string   `json:"unit,omitempty" yaml:"unit,omitempty"`
}

// TimeSeriesConfig configures KindTimeSeries metrics.
type TimeSeriesConfig struct {
	Frequency string            `json:"frequency,omitempty" yaml:"frequency,omitempty"`
	Method    AggregationMethod `json:"method" yaml:"method"`
}

// MultiFieldConfig configures KindMultiField and KindMultiFieldTimeSeries
// metrics.
type MultiFieldConfig struct {
	Fields           []ColumnDef       `json:"fields" yaml:"fields"`
	CalculatedFields []CalculatedField `json:"calculated_fields,omitempty" yaml:"calculated_fields,omitempty"`
}

// TrackingConfig configures KindVehicleTracking and KindFuelConsumption
// metrics (lookup lists are advisory, not enforced per row).
type TrackingConfig struct {
	VehicleTypes []string `json:"vehicle_types,omitempty" yaml:"vehicle_types,omitempty"`
	FuelTypes    []string `json:"fuel_types,omitempty" yaml:"fuel_types,omitempty"`
	SourceTypes  []string `json:"source_types,omitempty" yaml:"source_types,omitempty"`
}

func decodeConfig(raw datatypes.JSON, out any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func (m *MetricDefinition) TabularConfig() (TabularConfig, error) {
	var c TabularConfig
	err := decodeConfig(m.Config, &c)
	return c, err
}

func (m *MetricDefinition) MaterialMatrixConfig() (MaterialMatrixConfig, error) {
	var c MaterialMatrixConfig
	err := decodeConfig(m.Config, &c)
	return c, err
}

func (m *MetricDefinition) TimeSeriesConfig() (TimeSeriesConfig, error) {
	c := TimeSeriesConfig{Method: MethodSum}
	err := decodeConfig(m.Config, &c)
	if c.Method == "" {
		c.Method = MethodSum
	}
	return c, err
}

func (m *MetricDefinition) MultiFieldConfig() (MultiFieldConfig, error) {
	var c MultiFieldConfig
	err := decodeConfig(m.Config, &c)
	return c, err
}

func (m *MetricDefinition) TrackingConfig() (TrackingConfig, error) {
	var c TrackingConfig
	err := decodeConfig(m.Config, &c)
	return c, err
}

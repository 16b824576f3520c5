package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SubmissionValue is the single value of a basic metric submission. Numeric
// and text values are mutually exclusive per the metric's unit type.
type SubmissionValue struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SubmissionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"submission_id"`

	NumericValue *float64 `gorm:"column:numeric_value" json:"numeric_value,omitempty"`
	TextValue    *string  `gorm:"column:text_value" json:"text_value,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (SubmissionValue) TableName() string { return "submission_value" }

// SubmissionRow is one ordered row of a tabular submission. Position carries
// the meaningful row order.
type SubmissionRow struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SubmissionID uuid.UUID `gorm:"type:uuid;not null;index" json:"submission_id"`
	Position     int       `gorm:"column:position;not null" json:"position"`

	RowData datatypes.JSON `gorm:"column:row_data;not null" json:"row_data"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (SubmissionRow) TableName() string { return "submission_row" }

// MaterialDataPoint is one (material type, period) observation of a material
// matrix submission.
type MaterialDataPoint struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SubmissionID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:ux_material_point,priority:1" json:"submission_id"`
	Period       time.Time `gorm:"column:period;not null;uniqueIndex:ux_material_point,priority:2" json:"period"`
	MaterialType string    `gorm:"column:material_type;not null;uniqueIndex:ux_material_point,priority:3" json:"material_type"`

	Value float64 `gorm:"column:value;not null" json:"value"`
	Unit  string  `gorm:"column:unit" json:"unit,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (MaterialDataPoint) TableName() string { return "material_data_point" }

// TimeSeriesPoint is one (period, value) observation of a time-series
// submission. The header's own reporting period is only a coarse label; the
// real temporal granularity lives here.
type TimeSeriesPoint struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SubmissionID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:ux_ts_point,priority:1" json:"submission_id"`
	Period       time.Time `gorm:"column:period;not null;index;uniqueIndex:ux_ts_point,priority:2" json:"period"`

	Value float64 `gorm:"column:value;not null" json:"value"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (TimeSeriesPoint) TableName() string { return "time_series_point" }

// FieldSeriesEntry is one (period, field map) entry of a multi-field
// time-series submission.
type FieldSeriesEntry struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SubmissionID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:ux_field_series,priority:1" json:"submission_id"`
	Period       time.Time `gorm:"column:period;not null;uniqueIndex:ux_field_series,priority:2" json:"period"`

	FieldData datatypes.JSON `gorm:"column:field_data;not null" json:"field_data"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (FieldSeriesEntry) TableName() string { return "field_series_entry" }

// FieldDataEntry is the single field map of a multi-field submission (no time
// axis).
type FieldDataEntry struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SubmissionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"submission_id"`

	FieldData datatypes.JSON `gorm:"column:field_data;not null" json:"field_data"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (FieldDataEntry) TableName() string { return "field_data_entry" }

// VehicleRecord identifies one tracked vehicle inside a vehicle-tracking
// submission.
type VehicleRecord struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SubmissionID uuid.UUID `gorm:"type:uuid;not null;index" json:"submission_id"`

	VehicleType  string `gorm:"column:vehicle_type;not null" json:"vehicle_type"`
	FuelType     string `gorm:"column:fuel_type;not null" json:"fuel_type"`
	Registration string `gorm:"column:registration" json:"registration,omitempty"`
	Brand        string `gorm:"column:brand" json:"brand,omitempty"`
	Model        string `gorm:"column:model" json:"model,omitempty"`

	Monthly []VehicleMonthlyEntry `gorm:"constraint:OnDelete:CASCADE;foreignKey:VehicleRecordID;references:ID" json:"monthly,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (VehicleRecord) TableName() string { return "vehicle_record" }

// VehicleMonthlyEntry is one month of kilometers/fuel for a vehicle.
type VehicleMonthlyEntry struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	VehicleRecordID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:ux_vehicle_month,priority:1" json:"vehicle_record_id"`
	Period          time.Time `gorm:"column:period;not null;index;uniqueIndex:ux_vehicle_month,priority:2" json:"period"`

	Kilometers   *float64 `gorm:"column:kilometers" json:"kilometers,omitempty"`
	FuelConsumed *float64 `gorm:"column:fuel_consumed" json:"fuel_consumed,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (VehicleMonthlyEntry) TableName() string { return "vehicle_monthly_entry" }

// FuelRecord identifies one stationary fuel source inside a fuel-consumption
// submission. Structurally the twin of VehicleRecord, keyed on
// (source type, fuel type) instead of a vehicle identity.
type FuelRecord struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SubmissionID uuid.UUID `gorm:"type:uuid;not null;index" json:"submission_id"`

	SourceType string `gorm:"column:source_type;not null" json:"source_type"`
	FuelType   string `gorm:"column:fuel_type;not null" json:"fuel_type"`
	Name       string `gorm:"column:name" json:"name,omitempty"`

	Monthly []FuelMonthlyEntry `gorm:"constraint:OnDelete:CASCADE;foreignKey:FuelRecordID;references:ID" json:"monthly,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (FuelRecord) TableName() string { return "fuel_record" }

// FuelMonthlyEntry is one month of fuel consumed by a fuel source.
type FuelMonthlyEntry struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FuelRecordID uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:ux_fuel_month,priority:1" json:"fuel_record_id"`
	Period       time.Time `gorm:"column:period;not null;index;uniqueIndex:ux_fuel_month,priority:2" json:"period"`

	FuelConsumed *float64 `gorm:"column:fuel_consumed" json:"fuel_consumed,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (FuelMonthlyEntry) TableName() string { return "fuel_monthly_entry" }

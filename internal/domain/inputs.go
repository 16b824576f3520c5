package domain

import (
	"time"

	"github.com/google/uuid"
)

// PayloadInput is the inbound union payload of a submission write. Exactly
// one member must be populated, matching the metric's kind. Entry IDs drive
// replace-by-diff updates: present-and-known updates, present-but-unknown
// recreates (stale id), absent creates, and stored entries not referenced are
// deleted.
type PayloadInput struct {
	Value          *ValueInput        `json:"value,omitempty"`
	Rows           []RowInput         `json:"rows,omitempty"`
	MaterialPoints []MaterialInput    `json:"material_points,omitempty"`
	Points         []PointInput       `json:"points,omitempty"`
	FieldSeries    []FieldSeriesInput `json:"field_series,omitempty"`
	Fields         map[string]any     `json:"fields,omitempty"`
	Vehicles       []VehicleInput     `json:"vehicles,omitempty"`
	FuelSources    []FuelSourceInput  `json:"fuel_sources,omitempty"`
}

type ValueInput struct {
	NumericValue *float64 `json:"numeric_value,omitempty"`
	TextValue    *string  `json:"text_value,omitempty"`
}

type RowInput struct {
	ID   *uuid.UUID     `json:"id,omitempty"`
	Data map[string]any `json:"data"`
}

type MaterialInput struct {
	ID           *uuid.UUID `json:"id,omitempty"`
	MaterialType string     `json:"material_type"`
	Period       time.Time  `json:"period"`
	Value        float64    `json:"value"`
	Unit         string     `json:"unit,omitempty"`
}

type PointInput struct {
	ID     *uuid.UUID `json:"id,omitempty"`
	Period time.Time  `json:"period"`
	Value  float64    `json:"value"`
}

type FieldSeriesInput struct {
	ID     *uuid.UUID     `json:"id,omitempty"`
	Period time.Time      `json:"period"`
	Fields map[string]any `json:"fields"`
}

type VehicleInput struct {
	ID           *uuid.UUID          `json:"id,omitempty"`
	VehicleType  string              `json:"vehicle_type"`
	FuelType     string              `json:"fuel_type"`
	Registration string              `json:"registration,omitempty"`
	Brand        string              `json:"brand,omitempty"`
	Model        string              `json:"model,omitempty"`
	Monthly      []MonthlyUsageInput `json:"monthly,omitempty"`
}

type FuelSourceInput struct {
	ID         *uuid.UUID          `json:"id,omitempty"`
	SourceType string              `json:"source_type"`
	FuelType   string              `json:"fuel_type"`
	Name       string              `json:"name,omitempty"`
	Monthly    []MonthlyUsageInput `json:"monthly,omitempty"`
}

type MonthlyUsageInput struct {
	ID           *uuid.UUID `json:"id,omitempty"`
	Period       time.Time  `json:"period"`
	Kilometers   *float64   `json:"kilometers,omitempty"`
	FuelConsumed *float64   `json:"fuel_consumed,omitempty"`
}

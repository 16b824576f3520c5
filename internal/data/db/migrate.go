package db

import (
	types "github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/domain"
	"gorm.io/gorm"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(

		// =========================
		// Template configuration
		// =========================
		&types.Form{},
		&types.Layer{},
		&types.Assignment{},
		&types.MetricDefinition{},

		// =========================
		// Submissions (header + kind payloads)
		// =========================
		&types.SubmissionHeader{},
		&types.SubmissionValue{},
		&types.SubmissionRow{},
		&types.MaterialDataPoint{},
		&types.TimeSeriesPoint{},
		&types.FieldSeriesEntry{},
		&types.FieldDataEntry{},
		&types.VehicleRecord{},
		&types.VehicleMonthlyEntry{},
		&types.FuelRecord{},
		&types.FuelMonthlyEntry{},

		// =========================
		// Aggregate cache
		// =========================
		&types.ReportedValue{},
	)
}

package repos

import (
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/data/repos/definitions"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/data/repos/reporting"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/data/repos/submissions"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/platform/logger"
	"gorm.io/gorm"
)

type FormRepo = definitions.FormRepo
type LayerRepo = definitions.LayerRepo
type AssignmentRepo = definitions.AssignmentRepo
type MetricDefinitionRepo = definitions.MetricDefinitionRepo

type HeaderRepo = submissions.HeaderRepo
type ValueRepo = submissions.ValueRepo
type RowRepo = submissions.RowRepo
type MaterialPointRepo = submissions.MaterialPointRepo
type PointRepo = submissions.PointRepo
type FieldSeriesRepo = submissions.FieldSeriesRepo
type FieldDataRepo = submissions.FieldDataRepo
type VehicleRepo = submissions.VehicleRepo
type FuelRepo = submissions.FuelRepo

type ReportedValueRepo = reporting.ReportedValueRepo

func NewFormRepo(db *gorm.DB, baseLog *logger.Logger) FormRepo {
	return definitions.NewFormRepo(db, baseLog)
}
func NewLayerRepo(db *gorm.DB, baseLog *logger.Logger) LayerRepo {
	return definitions.NewLayerRepo(db, baseLog)
}
func NewAssignmentRepo(db *gorm.DB, baseLog *logger.Logger) AssignmentRepo {
	return definitions.NewAssignmentRepo(db, baseLog)
}
func NewMetricDefinitionRepo(db *gorm.DB, baseLog *logger.Logger) MetricDefinitionRepo {
	return definitions.NewMetricDefinitionRepo(db, baseLog)
}

func NewHeaderRepo(db *gorm.DB, baseLog *logger.Logger) HeaderRepo {
	return submissions.NewHeaderRepo(db, baseLog)
}
func NewValueRepo(db *gorm.DB, baseLog *logger.Logger) ValueRepo {
	return submissions.NewValueRepo(db, baseLog)
}
func NewRowRepo(db *gorm.DB, baseLog *logger.Logger) RowRepo {
	return submissions.NewRowRepo(db, baseLog)
}
func NewMaterialPointRepo(db *gorm.DB, baseLog *logger.Logger) MaterialPointRepo {
	return submissions.NewMaterialPointRepo(db, baseLog)
}
func NewPointRepo(db *gorm.DB, baseLog *logger.Logger) PointRepo {
	return submissions.NewPointRepo(db, baseLog)
}
func NewFieldSeriesRepo(db *gorm.DB, baseLog *logger.Logger) FieldSeriesRepo {
	return submissions.NewFieldSeriesRepo(db, baseLog)
}
func NewFieldDataRepo(db *gorm.DB, baseLog *logger.Logger) FieldDataRepo {
	return submissions.NewFieldDataRepo(db, baseLog)
}
func NewVehicleRepo(db *gorm.DB, baseLog *logger.Logger) VehicleRepo {
	return submissions.NewVehicleRepo(db, baseLog)
}
func NewFuelRepo(db *gorm.DB, baseLog *logger.Logger) FuelRepo {
	return submissions.NewFuelRepo(db, baseLog)
}

func NewReportedValueRepo(db *gorm.DB, baseLog *logger.Logger) ReportedValueRepo {
	return reporting.NewReportedValueRepo(db, baseLog)
}

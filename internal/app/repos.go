package app

import (
	"gorm.io/gorm"

	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/data/repos"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/platform/logger"
)

type Repos struct {
	Forms       repos.FormRepo
	Layers      repos.LayerRepo
	Assignments repos.AssignmentRepo
	Metrics     repos.MetricDefinitionRepo

	Headers        repos.HeaderRepo
	Values         repos.ValueRepo
	Rows           repos.RowRepo
	MaterialPoints repos.MaterialPointRepo
	Points         repos.PointRepo
	FieldSeries    repos.FieldSeriesRepo
	FieldData      repos.FieldDataRepo
	Vehicles       repos.VehicleRepo
	Fuels          repos.FuelRepo

	Reported repos.ReportedValueRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Forms:       repos.NewFormRepo(db, log),
		Layers:      repos.NewLayerRepo(db, log),
		Assignments: repos.NewAssignmentRepo(db, log),
		Metrics:     repos.NewMetricDefinitionRepo(db, log),

		Headers:        repos.NewHeaderRepo(db, log),
		Values:         repos.NewValueRepo(db, log),
		Rows:           repos.NewRowRepo(db, log),
		MaterialPoints: repos.NewMaterialPointRepo(db, log),
		Points:         repos.NewPointRepo(db, log),
		FieldSeries:    repos.NewFieldSeriesRepo(db, log),
		FieldData:      repos.NewFieldDataRepo(db, log),
		Vehicles:       repos.NewVehicleRepo(db, log),
		Fuels:          repos.NewFuelRepo(db, log),

		Reported: repos.NewReportedValueRepo(db, log),
	}
}

package app

import (
	"fmt"

	temporalsdkclient "go.temporal.io/sdk/client"
	"gorm.io/gorm"

	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/data/aggregates"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/observability"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/platform/logger"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/services"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/temporalx/recalcrun"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/temporalx/temporalworker"
)

type Services struct {
	Aggregation services.AggregationService
	Submission  services.SubmissionService
	Recalc      services.RecalcScheduler
	Templates   services.TemplateLoader
	Emission    services.EmissionNotifier

	// TemporalWorker is non-nil only in temporal recalc mode.
	TemporalWorker *temporalworker.Runner
}

func wireServices(
	db *gorm.DB,
	log *logger.Logger,
	cfg Config,
	reposet Repos,
	metrics *observability.Metrics,
	tc temporalsdkclient.Client,
) (Services, error) {
	log.Info("Wiring services...")

	base := aggregates.BaseDeps{
		DB:    db,
		Log:   log,
		Hooks: aggregates.NewObservabilityHooks(metrics),
	}.WithDefaults()

	aggregation := services.NewAggregationService(services.AggregationDeps{
		Log:      log,
		Headers:  reposet.Headers,
		Values:   reposet.Values,
		Points:   reposet.Points,
		Vehicles: reposet.Vehicles,
		Fuels:    reposet.Fuels,
		Reported: reposet.Reported,
	})

	var emission services.EmissionNotifier
	switch cfg.EmissionMode {
	case "redis":
		n, err := services.NewRedisEmissionNotifier(log, reposet.Reported, reposet.Metrics)
		if err != nil {
			return Services{}, fmt.Errorf("init redis emission notifier: %w", err)
		}
		emission = n
	case "", "none":
		emission = services.NewNoopEmissionNotifier()
	default:
		return Services{}, fmt.Errorf("unknown EMISSION_MODE %q", cfg.EmissionMode)
	}

	recalcDeps := services.RecalcDeps{
		Base:        base,
		Metrics:     reposet.Metrics,
		Assignments: reposet.Assignments,
		Aggregation: aggregation,
		Notifier:    emission,
	}
	scheduler := services.NewRecalcScheduler(recalcDeps)

	// The trigger consumes submission changes after commit. In temporal mode
	// the change is dispatched to a workflow and a worker-side scheduler runs
	// the fan-out synchronously inside the activity.
	var trigger services.RecalcTrigger = scheduler
	var worker *temporalworker.Runner
	switch cfg.RecalcMode {
	case "temporal":
		if tc == nil {
			return Services{}, fmt.Errorf("RECALC_MODE=temporal but TEMPORAL_ADDRESS is not configured")
		}
		dispatcher, err := recalcrun.NewDispatcher(log, tc)
		if err != nil {
			return Services{}, err
		}
		trigger = dispatcher

		syncDeps := recalcDeps
		syncDeps.Runner = services.NewSyncRunner()
		worker, err = temporalworker.NewRunner(log, tc, services.NewRecalcScheduler(syncDeps))
		if err != nil {
			return Services{}, err
		}
	case "", "async":
	default:
		return Services{}, fmt.Errorf("unknown RECALC_MODE %q", cfg.RecalcMode)
	}

	submission := services.NewSubmissionService(services.SubmissionDeps{
		Base:           base,
		Headers:        reposet.Headers,
		Values:         reposet.Values,
		Rows:           reposet.Rows,
		MaterialPoints: reposet.MaterialPoints,
		Points:         reposet.Points,
		FieldSeries:    reposet.FieldSeries,
		FieldData:      reposet.FieldData,
		Vehicles:       reposet.Vehicles,
		Fuels:          reposet.Fuels,
		Metrics:        reposet.Metrics,
		Assignments:    reposet.Assignments,
		Recalc:         trigger,
	})

	templates := services.NewTemplateLoader(services.TemplateLoaderDeps{
		Base:    base,
		Forms:   reposet.Forms,
		Metrics: reposet.Metrics,
	})

	return Services{
		Aggregation:    aggregation,
		Submission:     submission,
		Recalc:         scheduler,
		Templates:      templates,
		Emission:       emission,
		TemporalWorker: worker,
	}, nil
}

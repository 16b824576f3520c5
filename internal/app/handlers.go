package app

import (
	httpH "github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/http/handlers"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/platform/logger"
)

type Handlers struct {
	Submission    *httpH.SubmissionHandler
	ReportedValue *httpH.ReportedValueHandler
	Metric        *httpH.MetricHandler
	Health        *httpH.HealthHandler
}

func wireHandlers(log *logger.Logger, cfg Config, reposet Repos, serviceset Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Submission:    httpH.NewSubmissionHandler(serviceset.Submission, reposet.Headers),
		ReportedValue: httpH.NewReportedValueHandler(reposet.Reported, serviceset.Recalc),
		Metric:        httpH.NewMetricHandler(reposet.Forms, reposet.Metrics, reposet.Assignments, serviceset.Templates, cfg.TemplateDir),
		Health:        httpH.NewHealthHandler(),
	}
}

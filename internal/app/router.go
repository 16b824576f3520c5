package app

import (
	"github.com/gin-gonic/gin"

	httpPkg "github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/http"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/observability"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/platform/logger"
)

func wireRouter(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers) *gin.Engine {
	return httpPkg.NewRouter(httpPkg.RouterConfig{
		Log:         log,
		Metrics:     metrics,
		ServiceName: cfg.ServiceName,

		SubmissionHandler:    handlers.Submission,
		ReportedValueHandler: handlers.ReportedValue,
		MetricHandler:        handlers.Metric,
		HealthHandler:        handlers.Health,
	})
}

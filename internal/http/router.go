package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/http/handlers"
	httpMW "github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/http/middleware"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/observability"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/platform/logger"
)

type RouterConfig struct {
	Log     *logger.Logger
	Metrics *observability.Metrics

	ServiceName string

	SubmissionHandler    *httpH.SubmissionHandler
	ReportedValueHandler *httpH.ReportedValueHandler
	MetricHandler        *httpH.MetricHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.Default()
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS())

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		// Submissions
		if cfg.SubmissionHandler != nil {
			api.POST("/submissions", cfg.SubmissionHandler.Submit)
			api.GET("/submissions", cfg.SubmissionHandler.List)
			api.GET("/submissions/:id", cfg.SubmissionHandler.Get)
			api.PUT("/submissions/:id", cfg.SubmissionHandler.Update)
			api.DELETE("/submissions/:id", cfg.SubmissionHandler.Delete)
			api.POST("/submissions/:id/verify", cfg.SubmissionHandler.Verify)
		}

		// Reported values
		if cfg.ReportedValueHandler != nil {
			api.GET("/reported-values", cfg.ReportedValueHandler.ListByMetric)
			api.GET("/reported-values/:id", cfg.ReportedValueHandler.Get)
			api.POST("/reported-values/recompute", cfg.ReportedValueHandler.Recompute)
			api.GET("/assignments/:id/reported-values", cfg.ReportedValueHandler.ListByAssignment)
		}

		// Forms and metric definitions
		if cfg.MetricHandler != nil {
			api.GET("/forms", cfg.MetricHandler.ListForms)
			api.GET("/forms/:code/metrics", cfg.MetricHandler.ListFormMetrics)
			api.GET("/forms/:code/assignments", cfg.MetricHandler.ListFormAssignments)
			api.GET("/metrics/:id", cfg.MetricHandler.GetMetric)
			api.POST("/templates/reload", cfg.MetricHandler.ReloadTemplates)
		}
	}

	return r
}

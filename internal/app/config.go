package app

import (
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/platform/envutil"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/platform/logger"
)

type Config struct {
	ServiceName string
	Environment string
	Version     string

	HTTPAddr    string
	MetricsAddr string

	// RecalcMode picks how submission changes reach the recalculation
	// engine: "async" (in-process goroutines) or "temporal".
	RecalcMode string

	// EmissionMode picks the reported-value change notifier: "none" or
	// "redis".
	EmissionMode string

	TemplateDir      string
	TemplateAutoload bool
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		ServiceName: envutil.Str("SERVICE_NAME", "esg-disclosure"),
		Environment: envutil.Str("ENVIRONMENT", "development"),
		Version:     envutil.Str("SERVICE_VERSION", "dev"),

		HTTPAddr:    envutil.Str("HTTP_ADDR", ":8080"),
		MetricsAddr: envutil.Str("METRICS_ADDR", ":9100"),

		RecalcMode:   envutil.Str("RECALC_MODE", "async"),
		EmissionMode: envutil.Str("EMISSION_MODE", "none"),

		TemplateDir:      envutil.Str("TEMPLATE_DIR", ""),
		TemplateAutoload: envutil.Bool("TEMPLATE_AUTOLOAD", false),
	}
	if log != nil {
		log.Info("Loaded config",
			"service", cfg.ServiceName,
			"environment", cfg.Environment,
			"http_addr", cfg.HTTPAddr,
			"recalc_mode", cfg.RecalcMode,
			"emission_mode", cfg.EmissionMode)
	}
	return cfg
}

package app

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	temporalsdkclient "go.temporal.io/sdk/client"
	"gorm.io/gorm"

	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/data/db"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/observability"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/platform/envutil"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/platform/logger"
	"github.com/wavebreaker-lucas/esg-gp-be-sub001/internal/temporalx"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Repos    Repos
	Services Services

	metrics      *observability.Metrics
	temporal     temporalsdkclient.Client
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	cfg := LoadConfig(log)

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	theDB := pg.DB()

	metrics := observability.Init(log)
	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		Version:     cfg.Version,
	})

	tc, err := temporalx.NewClient(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init temporal: %w", err)
	}

	reposet := wireRepos(theDB, log)
	serviceset, err := wireServices(theDB, log, cfg, reposet, metrics, tc)
	if err != nil {
		if tc != nil {
			tc.Close()
		}
		log.Sync()
		return nil, err
	}

	handlerset := wireHandlers(log, cfg, reposet, serviceset)
	router := wireRouter(log, cfg, metrics, handlerset)

	return &App{
		Log:      log,
		DB:       theDB,
		Router:   router,
		Cfg:      cfg,
		Repos:    reposet,
		Services: serviceset,

		metrics:      metrics,
		temporal:     tc,
		otelShutdown: otelShutdown,
	}, nil
}

// Start launches the background pieces: the metrics endpoint and collectors,
// the Temporal worker, and the optional template autoload.
func (a *App) Start() error {
	if a == nil || a.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.metrics != nil {
		a.metrics.StartServer(ctx, a.Log, a.Cfg.MetricsAddr)
		a.metrics.StartPostgresCollector(ctx, a.Log, a.DB)
		if addr := envutil.Str("REDIS_ADDR", ""); addr != "" {
			a.metrics.StartRedisCollector(ctx, a.Log, addr)
		}
	}

	if a.Services.TemporalWorker != nil {
		if err := a.Services.TemporalWorker.Start(ctx); err != nil {
			return fmt.Errorf("start temporal worker: %w", err)
		}
	}

	if a.Cfg.TemplateAutoload && a.Cfg.TemplateDir != "" {
		n, err := a.Services.Templates.LoadDir(ctx, a.Cfg.TemplateDir)
		if err != nil {
			return fmt.Errorf("load templates: %w", err)
		}
		a.Log.Info("Loaded metric templates", "dir", a.Cfg.TemplateDir, "metrics", n)
	}
	return nil
}

func (a *App) Run() error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Router.Run(a.Cfg.HTTPAddr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.temporal != nil {
		a.temporal.Close()
		a.temporal = nil
	}
	if a.otelShutdown != nil {
		_ = a.otelShutdown(context.Background())
		a.otelShutdown = nil
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}

package commands

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/afero"

	"github.com/jmylchreest/immich-offline-remover/internal/catalog"
	"github.com/jmylchreest/immich-offline-remover/internal/config"
	"github.com/jmylchreest/immich-offline-remover/internal/immich"
	"github.com/jmylchreest/immich-offline-remover/internal/jobs"
	"github.com/jmylchreest/immich-offline-remover/internal/logging"
	"github.com/jmylchreest/immich-offline-remover/internal/metrics"
	"github.com/jmylchreest/immich-offline-remover/internal/reconcile"
	"github.com/jmylchreest/immich-offline-remover/internal/version"
)

// app holds the wired components shared by serve and once
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	client   *immich.Client
	job      *reconcile.Job
	manager  *jobs.Manager
}

func loadApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return newApp(cfg, logging.Setup(cfg.Log.Level, cfg.Log.Format)), nil
}

func newApp(cfg *config.Config, logger *slog.Logger) *app {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	a := &app{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		manager:  jobs.NewManager(logger),
	}

	// A nil *immich.Client must not reach the job as a non-nil Deleter.
	var deleter reconcile.Deleter
	if cfg.Immich.URL != "" {
		a.client = immich.NewClient(immich.ClientConfig{
			BaseURL: cfg.Immich.URL,
			APIKey:  cfg.Immich.APIKey,
			Timeout: cfg.Immich.RequestTimeout,
			SkipTLS: !cfg.Immich.SSLVerification,
			Logger:  logger,
		})
		deleter = a.client
	}

	a.job = reconcile.NewJob(
		reconcile.Options{
			Patterns:        cfg.Job.Patterns,
			DryRun:          cfg.Job.DryRun,
			MaxMissingRatio: cfg.Job.MaxMissingRatio,
		},
		catalog.NewReader(cfg.Database, logger),
		reconcile.NewChecker(afero.NewOsFs()),
		deleter,
		metrics.NewMetrics(registry),
		logger,
	)
	a.manager.RegisterJob(a.job)

	return a
}

func (a *app) logStartup() {
	info := version.Get()
	a.logger.Info("starting immich-offline-remover",
		"version", info.Version,
		"commit", info.Commit,
		"built", info.BuildDate,
	)
	a.logger.Info("configuration",
		slog.Group("database",
			slog.String("host", a.cfg.Database.Hostname),
			slog.Int("port", a.cfg.Database.Port),
			slog.String("name", a.cfg.Database.Name),
			slog.String("user", a.cfg.Database.Username),
		),
		slog.Any("patterns", a.cfg.Job.Patterns),
		slog.Bool("dry_run", a.cfg.Job.DryRun),
		slog.Float64("max_missing_ratio", a.cfg.Job.MaxMissingRatio),
		slog.String("immich_url", a.cfg.Immich.URL),
		slog.String("cron", a.cfg.Schedule.CronExpression),
		slog.Bool("run_at_first_startup", a.cfg.Schedule.RunAtFirstStartup),
	)
	if a.cfg.Job.DryRun {
		a.logger.Info("running in DRY RUN mode - no assets will be deleted")
	}
}

func (a *app) close() {
	if a.client != nil {
		a.client.Close()
	}
}

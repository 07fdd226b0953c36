package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/immich-offline-remover/internal/scheduler"
	"github.com/jmylchreest/immich-offline-remover/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the reconciliation job on its cron schedule",
	Long: `Run the reconciliation job on CRON_EXPRESSION until SIGINT or SIGTERM.

With RUN_AT_FIRST_STARTUP=true one run happens immediately. When METRICS_ADDR
is set, /health, /health/last-run and /metrics are served on that address.
A stop signal exits right away, even while a run is in progress.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cfgFile)
	if err != nil {
		return err
	}
	defer a.close()

	schedule, err := scheduler.ParseSchedule(a.cfg.Schedule.CronExpression)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.logStartup()

	if a.cfg.Metrics.Enabled() {
		srv := server.New(a.cfg.Metrics.Addr, server.NewRouter(a.manager, a.registry, a.logger), a.logger)
		defer srv.Close()
		go func() {
			if err := srv.Start(ctx); err != nil {
				a.logger.Error("http server failed", "error", err)
			}
		}()
	}

	sched := scheduler.New(schedule, a.manager, a.logger)
	if err := sched.Run(ctx, a.cfg.Schedule.RunAtFirstStartup); err != nil {
		return err
	}

	a.logger.Info("shutdown complete")
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

package commands

import (
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/immich-offline-remover/internal/reconcile"
)

var errRunFailed = errors.New("reconciliation run failed")

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run a single reconciliation and exit",
	Long: `Run the reconciliation job once, ignoring the schedule, and exit.

The exit status is non-zero only when the deletion request failed. A run that
finds nothing, or is stopped by the safety gate, exits with status 0.`,
	RunE: runOnce,
}

func runOnce(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(cfgFile)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.logStartup()

	if err := a.manager.RunAll(ctx); err != nil {
		return err
	}
	if a.job.LastResult().Action == reconcile.ActionFailed {
		return errRunFailed
	}
	return nil
}

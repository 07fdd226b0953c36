package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/immich-offline-remover/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, err := fmt.Fprint(cmd.OutOrStdout(), version.Long())
		return err
	},
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/microgrid/config"
	"github.com/kilianp07/microgrid/core/commitment"
	"github.com/kilianp07/microgrid/infra/logger"
	"github.com/kilianp07/microgrid/pkg/export"
)

var commitmentCmd = &cobra.Command{
	Use:   "commitment",
	Short: "Print the unit commitment table of the configured generators as CSV",
	RunE:  printCommitment,
}

func init() {
	rootCmd.AddCommand(commitmentCmd)
}

func printCommitment(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	capacities := make([]float64, len(cfg.Combustion))
	for i, g := range cfg.Combustion {
		capacities[i] = g.CapacityKW
	}
	table, err := commitment.Build(capacities,
		commitment.WithLogger(logger.New("commitment")),
		commitment.WithProgressThreshold(cfg.Dispatch.CommitmentProgressThreshold))
	if err != nil {
		return err
	}
	return export.WriteCommitmentCSV(cmd.OutOrStdout(), table.Entries())
}

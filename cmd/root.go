package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/microgrid/app"
	"github.com/kilianp07/microgrid/config"
	"github.com/kilianp07/microgrid/infra/logger"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "microgrid",
	Short: "Hybrid microgrid dispatch simulator",
	RunE:  run,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Simulate the configured scenario and write its outputs",
	RunE:  run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "scenario file")
	rootCmd.AddCommand(runCmd)
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	sim, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := sim.Close(); err != nil {
			logger.New("main").Errorf("simulation close: %v", err)
		}
	}()
	rep, err := sim.Run(ctx)
	if err != nil {
		return err
	}
	s := rep.Summary
	fmt.Fprintf(cmd.OutOrStdout(), "run %s: %d steps, served %.1f kWh, missed load %.1f kWh, curtailed %.1f kWh\n",
		rep.RunID, s.Steps, s.ServedKWh, s.MissedLoadKWh, s.CurtailedKWh)
	for _, f := range rep.Files {
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", f)
	}
	return nil
}

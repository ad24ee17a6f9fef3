package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kilianp07/microgrid/app/plugins"
	"github.com/kilianp07/microgrid/core/metrics"
)

var pluginsCmd = &cobra.Command{
	Use:   "plugins",
	Short: "Plugin related commands",
}

var pluginsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List the registered storage, log store and metrics sink types",
	RunE:  runPluginsLs,
}

func init() {
	pluginsCmd.AddCommand(pluginsLsCmd)
	rootCmd.AddCommand(pluginsCmd)
}

func runPluginsLs(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "storage:    %s\n", strings.Join(plugins.StorageTypes(), ", "))
	fmt.Fprintf(out, "log stores: %s\n", strings.Join(plugins.LogStoreTypes(), ", "))
	fmt.Fprintf(out, "sinks:      %s\n", strings.Join(metrics.SinkTypes(), ", "))
	return nil
}

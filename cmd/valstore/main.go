package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/valstore/valstore/cmd/valstore/commands"
	"github.com/valstore/valstore/logger"
)

var rootCmd = &cobra.Command{
	Use:   "valstore",
	Short: "valstore - data validation experiment metadata store",
	Long: `valstore - metadata store for data validation experiments.

valstore records projects, experiments, runs, constraints and the typed
per-run documents that validation pipelines produce, and serves run
summaries and run comparisons over them.

Examples:
  valstore serve               # Start the HTTP API server
  valstore db migrate          # Apply pending schema migrations
  valstore db stats            # Show collection statistics
  valstore version             # Show build information`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		jsonOutput, _ := cmd.Flags().GetBool("json-logs")
		if err := logger.Initialize(jsonOutput); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		verbosity, _ := cmd.Flags().GetCount("verbose")
		return logger.SetVerbosity(verbosity)
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail)")
	rootCmd.PersistentFlags().Bool("json-logs", false, "Emit structured JSON logs")
	rootCmd.PersistentFlags().String("config", "", "Path to config file (YAML)")

	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.DbCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	defer logger.Sync()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

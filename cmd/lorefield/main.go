package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	schemaPath string
	verbose    bool

	logger   = zap.NewNop()
	logLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
)

func main() {
	root := &cobra.Command{
		Use:           "lorefield",
		Short:         "Narrative field resolution for tabletop records",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogger()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")
	root.PersistentFlags().StringVar(&configPath, "config", "lorefield.yaml", "Project config file")
	root.PersistentFlags().StringVar(&schemaPath, "schema", "schema.yaml", "Record schema file (optional)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(initCmd())
	root.AddCommand(ingestCmd())
	root.AddCommand(readCmd())
	root.AddCommand(writeCmd())
	root.AddCommand(aggregateCmd())
	root.AddCommand(discoverCmd())
	root.AddCommand(validateCmd())
	root.AddCommand(queryCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(versionCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupLogger() error {
	if verbose {
		logLevel.SetLevel(zap.DebugLevel)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = logLevel
	built, err := cfg.Build()
	if err != nil {
		return err
	}
	logger = built
	return nil
}

// Package cmd implements the CLI commands for collection-watcher.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	apiclient "github.com/donaldgifford/collection-watcher/internal/api/client"
	"github.com/donaldgifford/collection-watcher/internal/config"
	"github.com/donaldgifford/collection-watcher/pkg/logger"
)

var (
	cfgFile string
	envFile string
	rootCmd = &cobra.Command{
		Use:   "collection-watcher",
		Short: "Watch a marketplace for newly published collections",
		Long: "collection-watcher polls the marketplace for its newest collection,\n" +
			"alerts once per new collection, and aggregates collection item\n" +
			"prices into a purchase payload and a reproducible curl command.",
		SilenceUsage: true,
	}
)

// Root returns the root cobra command for documentation generation.
func Root() *cobra.Command {
	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().
		StringVar(&cfgFile, "config", "config.yaml", "config file path")
	rootCmd.PersistentFlags().
		StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the config is expanded")
	rootCmd.PersistentFlags().
		String("server", "http://localhost:8080", "API server URL used with --remote")
	rootCmd.PersistentFlags().
		String("output", "table", "output format (table, json)")

	cobra.CheckErr(viper.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server")))
	cobra.CheckErr(viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output")))

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(pollCmd())
	rootCmd.AddCommand(aggregateCmd())
	rootCmd.AddCommand(stateCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(versionCmd())
}

func initConfig() {
	if err := config.LoadDotEnv(envFile); err != nil {
		fmt.Fprintln(os.Stderr, "Warning:", err)
	}

	viper.SetEnvPrefix("COLLECTION_WATCHER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// loadConfig reads the YAML config and builds the root logger from it.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, logger.New(cfg.Logging.Level, cfg.Logging.Format), nil
}

func newClient() *apiclient.Client {
	return apiclient.New(viper.GetString("server"))
}

func jsonOutput() bool {
	return viper.GetString("output") == "json"
}

package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kilianp07/roster/config"
	"github.com/kilianp07/roster/infra/logger"
)

const defaultConfigPath = "config.yaml"

var cfgPath string

var rootCmd = &cobra.Command{
	Use:           "roster",
	Short:         "Driver to route assignment engine",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", defaultConfigPath, "configuration file")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// loadConfig reads .env, then the configuration file. A missing default file
// yields the built-in defaults.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	var cfg *config.Config
	if _, err := os.Stat(cfgPath); errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config") {
		cfg = config.Default()
	} else {
		loaded, err := config.Load(cfgPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if err := logger.Setup(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		return nil, err
	}
	return cfg, nil
}

package cmd

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/haveachin/barebones"
	"github.com/haveachin/barebones/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

//go:embed configs
var files embed.FS

const defaultConfigFile = "configs/config.yml"

var (
	version string

	configPath  = config.DefaultPath
	workingDir  = "."
	environment = ""
	logEncoding = ""

	rootCmd = &cobra.Command{
		Use:          "barebones",
		Short:        "Starts the player lookup service",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := os.Chdir(workingDir); err != nil {
				return err
			}

			if err := writeDefaultConfig(configPath); err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			stack, err := barebones.New(cfg)
			if err != nil {
				return err
			}
			defer stack.Close()
			logger := stack.Logger()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
			defer stop()

			logger.Info("loaded config",
				zap.String("config", configPath),
				zap.String("cache", cfg.Cache.Driver),
			)

			watcher, err := config.Watch(ctx, configPath, logger, func(cfg config.Config) {
				applyFlags(&cfg)
				if err := stack.Reload(cfg); err != nil {
					logger.Error("failed to apply config", zap.Error(err))
				}
			})
			if err != nil {
				return err
			}
			defer watcher.Close()

			return stack.Serve(ctx)
		},
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Prints the build version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
)

func init() {
	workingDir = config.EnvString(config.EnvPrefix+"WORKING_DIR", workingDir)
	rootCmd.PersistentFlags().StringVarP(&workingDir, "working-dir", "w", workingDir, "set the working directory")
	rootCmd.PersistentFlags().StringVarP(&environment, "environment", "e", environment, "set the deployment environment")
	rootCmd.PersistentFlags().StringVarP(&logEncoding, "log-encoding", "l", logEncoding, "set the log encoding")
	configPath = config.EnvString(config.EnvConfigPath, configPath)
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", configPath, "path of the config file")

	rootCmd.AddCommand(versionCmd)
}

// Execute executes the root command.
func Execute(v string) error {
	version = v
	return rootCmd.Execute()
}

// loadConfig reads the config file or falls back to the defaults when there
// is none. Flags take precedence over both.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if errors.Is(err, os.ErrNotExist) {
		cfg = config.Default()
		err = nil
	}
	if err != nil {
		return config.Config{}, err
	}

	applyFlags(&cfg)
	return cfg, cfg.Validate()
}

func applyFlags(cfg *config.Config) {
	if environment != "" {
		cfg.Logging.Environment = environment
	}
	if logEncoding != "" {
		cfg.Logging.Encoding = logEncoding
	}
}

// writeDefaultConfig writes the embedded config to path unless a file
// already exists there.
func writeDefaultConfig(path string) error {
	if _, err := os.Stat(path); err == nil || !errors.Is(err, os.ErrNotExist) {
		return err
	}

	bb, err := files.ReadFile(defaultConfigFile)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, bb, 0644)
}

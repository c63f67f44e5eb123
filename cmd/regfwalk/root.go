package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/regfkit/keyitem/cmd/regfwalk/logger"
	"github.com/regfkit/keyitem/internal/rtconfig"
)

var (
	verbose    bool
	configPath string
	cfg        rtconfig.Config
)

var rootCmd = &cobra.Command{
	Use:   "regfwalk",
	Short: "Walk and inspect Windows registry hive files read-only",
	Long: `regfwalk opens a REGF hive file and walks its key-item tree
read-only: no write, merge, or repair support. It exists to exercise the
key-item subsystem end to end, the way a thin client of this library
would.`,
	Version:           "0.1.0",
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging to stderr")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Optional YAML config file overlay")
}

func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = rtconfig.Load(configPath)
	if err != nil {
		return err
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger.Init(logger.Options{Enabled: verbose, Level: level})
	return nil
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

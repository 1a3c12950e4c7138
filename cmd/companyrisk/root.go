package main

import (
	"fmt"

	"github.com/gartstein/companyrisk/internal/company/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const defaultConfigPath = "configs/config.yaml"

// rootOptions holds global CLI flags.
type rootOptions struct {
	configPath string
	logLevel   string
}

// app carries what every subcommand needs once flags are parsed.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	a := &app{}

	cmd := &cobra.Command{
		Use:   "companyrisk",
		Short: "Risk analysis of Companies House records",
		Long: "companyrisk builds a company record from the Companies House API and\n" +
			"scores its officers and persons with significant control against\n" +
			"red-flag reference data and news mentions.",
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return a.init(opts)
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", defaultConfigPath, "config file path")
	pf.StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	cmd.AddCommand(
		newAnalyzeCommand(a),
		newServeCommand(a),
		newTokenCommand(a),
	)
	return cmd
}

func (a *app) init(opts *rootOptions) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := initLogger(opts.logLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

// initLogger initializes a Zap production logger writing to stderr.
func initLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"loanscore/internal/cfg"
	"loanscore/internal/common"
)

// app carries the settings shared by every subcommand.
type app struct {
	settings cfg.Settings

	cfgFile           string
	logLevel          string
	logFormat         string
	modelPath         string
	preprocessingPath string
	bundleDir         string
	dataPath          string
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "loanscore",
		Short: "Score loan applications with a trained model bundle",
		Long: `loanscore replays the preprocessing fitted at training time on applicant
records and scores them with the trained classifier.

It runs one-off predictions, serves an HTTP API, and manages versioned
model bundles.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.loadSettings,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "YAML config file (overrides "+common.EnvConfigFile+")")
	flags.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&a.logFormat, "log-format", "", "log format (console, json)")
	flags.StringVar(&a.modelPath, "model", "", "path to the model artifact")
	flags.StringVar(&a.preprocessingPath, "preprocessing", "", "path to the preprocessing artifact")
	flags.StringVar(&a.bundleDir, "bundle-dir", "", "bundle registry directory; its active bundle wins over --model")
	flags.StringVar(&a.dataPath, "data", "", "directory of the prediction log")

	root.AddCommand(a.predictCmd())
	root.AddCommand(a.serveCmd())
	root.AddCommand(a.inspectCmd())
	root.AddCommand(a.historyCmd())
	root.AddCommand(a.bundleCmd())
	return root
}

// loadSettings loads the configuration and lets command line flags override it.
func (a *app) loadSettings(_ *cobra.Command, _ []string) error {
	if a.cfgFile != "" {
		if err := os.Setenv(common.EnvConfigFile, a.cfgFile); err != nil {
			return err
		}
	}
	s, err := cfg.Load()
	if err != nil {
		return err
	}

	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&s.LogLevel, a.logLevel)
	override(&s.LogFormat, a.logFormat)
	override(&s.ModelPath, a.modelPath)
	override(&s.PreprocessingPath, a.preprocessingPath)
	override(&s.BundleDir, a.bundleDir)
	override(&s.DataPath, a.dataPath)
	a.settings = s

	setupLogging(os.Stderr, s.LogLevel, s.LogFormat)
	return nil
}

func setupLogging(w io.Writer, level, format string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	if format == common.LogFormatJSON {
		log.Logger = zerolog.New(w).With().Timestamp().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: w})
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

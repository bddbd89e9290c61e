package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/user/e8audit/pkg/config"
	"github.com/user/e8audit/pkg/engine"
	"github.com/user/e8audit/pkg/log"
)

var rootCmd = &cobra.Command{
	Use:   "e8audit",
	Short: "Essential Eight evidence auditor",
	Long: `e8audit evaluates backup logs, configuration exports and other evidence
text against Essential Eight control checks and reports PASS/FAIL findings.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

var (
	DebugMode   bool
	logLevel    string
	logFormat   string
	profilesDir string

	cfg *config.Config

	// tracer starts the spans whose trace_id is stamped on log lines.
	tracer         trace.Tracer = noop.NewTracerProvider().Tracer("")
	tracerProvider *sdktrace.TracerProvider
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&DebugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		fmt.Sprintf("Log level (%s)", strings.Join(log.AllLevels, ", ")))
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		fmt.Sprintf("Log format (%s)", strings.Join(log.AllFormats, ", ")))
	rootCmd.PersistentFlags().StringVar(&profilesDir, "profiles", "", "Directory of YAML rule profiles")
}

// setup loads configuration and installs the default logger.
func setup(cmd *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	lvl := cfg.LogLevel
	if logLevel != "" {
		lvl = logLevel
	}
	if DebugMode {
		lvl = string(log.LevelDebug)
	}
	f := cfg.LogFormat
	if logFormat != "" {
		f = logFormat
	}

	logger, err := log.New(cmd.ErrOrStderr(), lvl, f)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	cmd.SetContext(log.NewContext(cmd.Context(), logger))

	tracerProvider = sdktrace.NewTracerProvider()
	tracer = tracerProvider.Tracer("github.com/user/e8audit")

	return nil
}

func teardown(cmd *cobra.Command, _ []string) error {
	if tracerProvider == nil {
		return nil
	}
	if err := tracerProvider.Shutdown(cmd.Context()); err != nil {
		return fmt.Errorf("shutdown tracer provider: %w", err)
	}
	tracerProvider = nil
	return nil
}

// newEngine builds the engine with built-in strategies plus any profiles
// found in the configured directory.
func newEngine(cmd *cobra.Command) (*engine.Engine, error) {
	logger := log.WithContext(cmd.Context())
	eng := engine.NewEngine()

	dir := cfg.ProfilesDir
	if profilesDir != "" {
		dir = profilesDir
	}
	if dir == "" {
		return eng, nil
	}

	loaded, err := eng.LoadProfiles(dir)
	switch {
	case errors.Is(err, os.ErrNotExist) && profilesDir == "":
		logger.Debug("no profiles directory", "dir", dir)
	case err != nil:
		return nil, fmt.Errorf("load profiles: %w", err)
	default:
		for _, id := range loaded {
			logger.Debug("loaded rule profile", "strategy", id, "dir", dir)
		}
	}
	return eng, nil
}

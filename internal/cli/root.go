package cli

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/osvaldoandrade/schemaver/internal/config"
	"github.com/osvaldoandrade/schemaver/internal/platform"
	"github.com/spf13/cobra"
)

const defaultSchemaCollection = "schemas"

type RootOptions struct {
	ConfigPath  string
	JSONOutput  bool
	LogLevel    string
	LogFormat   string
	TestMode    bool
	TestModeDir string

	Config config.Config
	Logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &RootOptions{
		ConfigPath:  envDefault("SCHEMAVER_CONFIG", ""),
		LogLevel:    "info",
		LogFormat:   "text",
		TestMode:    envBoolDefault("SCHEMAVER_TESTMODE", false),
		TestModeDir: config.DefaultTestDir,
	}
	cmd := &cobra.Command{
		Use:           "schemaver",
		Short:         "Schema version classifier and registry",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.resolve(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", opts.ConfigPath, "Path to schemaver.yaml")
	cmd.PersistentFlags().BoolVar(&opts.JSONOutput, "json", false, "Emit JSON output")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", opts.LogLevel, "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", opts.LogFormat, "Log format (text, json)")
	cmd.PersistentFlags().BoolVar(&opts.TestMode, "testmode", opts.TestMode, "Use the embedded file-backed store")
	cmd.PersistentFlags().StringVar(&opts.TestModeDir, "testmode-dir", opts.TestModeDir, "Directory of the embedded store")

	cmd.AddCommand(
		newCompareCmd(opts),
		newLatestCmd(opts),
		newPublishCmd(opts),
		newInsertCmd(opts),
		newFindCmd(opts),
		newVerifyCmd(opts),
	)

	return cmd
}

// resolve loads the config file and environment, then applies flags the
// caller set explicitly on top.
func (opts *RootOptions) resolve(cmd *cobra.Command) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = opts.LogLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = opts.LogFormat
	}
	if flags.Changed("testmode") || opts.TestMode {
		cfg.TestMode.Enabled = opts.TestMode
	}
	if flags.Changed("testmode-dir") {
		cfg.TestMode.Dir = opts.TestModeDir
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := platform.ConfigureLogger(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if cfg.Source != "" {
		logger.Debug("config loaded", slog.String("path", cfg.Source))
	}

	opts.Config = cfg
	opts.Logger = logger
	return nil
}

func envDefault(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func envBoolDefault(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// Package commoncmder holds the config and logger plumbing shared by the
// winter subcommands.
package commoncmder

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/winter/pkg/app"
	"github.com/papercomputeco/winter/pkg/config"
	"github.com/papercomputeco/winter/pkg/logger"
)

// Persistent flag names registered on the root command.
const (
	FlagDebug     = "debug"
	FlagConfigDir = "config-dir"
)

// ConfigDir returns the --config-dir value, or "" when the flag is unset
// or not registered on the command tree.
func ConfigDir(cmd *cobra.Command) string {
	dir, _ := cmd.Flags().GetString(FlagConfigDir)
	return dir
}

// Debug reports whether --debug was passed.
func Debug(cmd *cobra.Command) bool {
	debug, _ := cmd.Flags().GetBool(FlagDebug)
	return debug
}

// LoadConfig resolves the config for cmd: registered flags override
// WINTER_ environment variables, which override config.toml, which
// overrides the defaults.
func LoadConfig(cmd *cobra.Command, keys []string) (*config.Config, error) {
	v, err := config.InitViper(ConfigDir(cmd))
	if err != nil {
		return nil, err
	}
	config.BindRegisteredFlags(v, cmd, config.StandardFlags, keys)
	return config.FromViper(v), nil
}

// NewLoggerTo builds the CLI logger writing to w, normally the command's
// stderr so records never interleave with output. Without --debug only
// warnings and errors are shown.
func NewLoggerTo(cmd *cobra.Command, w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if Debug(cmd) {
		level = slog.LevelDebug
	}
	return newLogger(level, w)
}

// NewServerLogger builds the logger for long-running servers, which also
// report Info records.
func NewServerLogger(cmd *cobra.Command, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if Debug(cmd) {
		level = slog.LevelDebug
	}
	return newLogger(level, w)
}

// NewFileLogger builds a JSON logger with source locations for log files,
// at the same level as NewServerLogger.
func NewFileLogger(cmd *cobra.Command, w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if Debug(cmd) {
		level = slog.LevelDebug
	}
	return logger.New(
		logger.WithLevel(level),
		logger.WithJSON(true),
		logger.WithSource(true),
		logger.WithWriter(w),
	)
}

func newLogger(level slog.Level, w io.Writer) *slog.Logger {
	return logger.New(
		logger.WithLevel(level),
		logger.WithPretty(true),
		logger.WithPrefix("winter"),
		logger.WithWriter(w),
	)
}

// OpenApp loads config for cmd and assembles the application stack. A nil
// log gets the quiet CLI logger on the command's stderr.
func OpenApp(ctx context.Context, cmd *cobra.Command, keys []string, log *slog.Logger, adjust func(*config.Config)) (*app.App, error) {
	cfg, err := LoadConfig(cmd, keys)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if adjust != nil {
		adjust(cfg)
	}

	if log == nil {
		log = NewLoggerTo(cmd, cmd.ErrOrStderr())
	}
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("starting winter: %w", err)
	}
	return a, nil
}

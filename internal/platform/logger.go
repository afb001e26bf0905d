package platform

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

var ErrInvalidLogOption = errors.New("invalid log option")

// NewLogger builds a logger without touching the process default. Debug
// loggers also report the source position of each record.
func NewLogger(levelValue, formatValue string, out io.Writer) (*slog.Logger, error) {
	level, err := ParseLogLevel(levelValue)
	if err != nil {
		return nil, err
	}
	format, err := ParseLogFormat(formatValue)
	if err != nil {
		return nil, err
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level <= slog.LevelDebug,
	}
	if format == LogFormatJSON {
		return slog.New(slog.NewJSONHandler(out, handlerOpts)), nil
	}
	return slog.New(slog.NewTextHandler(out, handlerOpts)), nil
}

// ConfigureLogger builds a logger and installs it as the slog default.
func ConfigureLogger(levelValue, formatValue string, out io.Writer) (*slog.Logger, error) {
	logger, err := NewLogger(levelValue, formatValue, out)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return logger, nil
}

// Component tags every record of logger with the emitting component.
func Component(logger *slog.Logger, name string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With(slog.String("component", name))
}

func ParseLogLevel(value string) (slog.Level, error) {
	value = strings.TrimSpace(strings.ToLower(value))
	switch value {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%w: log level %q", ErrInvalidLogOption, value)
	}
}

func ParseLogFormat(value string) (LogFormat, error) {
	value = strings.TrimSpace(strings.ToLower(value))
	switch LogFormat(value) {
	case "", LogFormatText:
		return LogFormatText, nil
	case LogFormatJSON:
		return LogFormatJSON, nil
	default:
		return LogFormatText, fmt.Errorf("%w: log format %q", ErrInvalidLogOption, value)
	}
}

// Package logging builds the zap logger shared by the CLI and the MCP server.
//
// Console output always goes to stderr because stdout carries the MCP
// protocol when running as a server. When a log file is configured, entries
// are also written there as JSON with size-based rotation.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Standard field names for structured output.
const (
	FieldTimestamp = "timestamp"
	FieldLevel     = "level"
	FieldCaller    = "caller"
	FieldMessage   = "message"
)

// Options controls logger construction.
type Options struct {
	// Level is the minimum level written to every output.
	Level zapcore.Level

	// FilePath enables a rotating JSON log file when non-empty.
	FilePath string

	// MaxSizeMB is the size at which the log file rotates. Zero means 10.
	MaxSizeMB int

	// Console receives human-readable output. Nil means os.Stderr.
	Console io.Writer
}

// ParseLevel maps a level name to a zapcore.Level. Parsing is
// case-insensitive; unknown or empty names return def.
func ParseLevel(s string, def zapcore.Level) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	}
	return def
}

// New returns a logger writing to the console and, optionally, a log file.
func New(opts Options) *zap.Logger {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	cores := []zapcore.Core{
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(consoleEncoderConfig()),
			zapcore.AddSync(console),
			opts.Level,
		),
	}

	if opts.FilePath != "" {
		maxSize := opts.MaxSizeMB
		if maxSize <= 0 {
			maxSize = 10
		}
		file := &lumberjack.Logger{
			Filename:   opts.FilePath,
			MaxSize:    maxSize,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(jsonEncoderConfig()),
			zapcore.AddSync(file),
			opts.Level,
		))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller())
}

func jsonEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        FieldTimestamp,
		LevelKey:       FieldLevel,
		CallerKey:      FieldCaller,
		MessageKey:     FieldMessage,
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

func consoleEncoderConfig() zapcore.EncoderConfig {
	cfg := jsonEncoderConfig()
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout(time.TimeOnly)
	return cfg
}

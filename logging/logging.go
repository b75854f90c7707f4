// Package logging builds the logr loggers used across rltune.
package logging

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Verbosity levels for logger.V().
const (
	INFO  = 0
	DEBUG = 1
	TRACE = 2
)

// Level is the log switch of a run.
type Level string

const (
	// LevelAll logs everything up to DEBUG.
	LevelAll Level = "all"
	// LevelWarnings logs warnings, errors and top level progress.
	LevelWarnings Level = "warnings"
	// LevelNothing discards all output.
	LevelNothing Level = "nothing"
)

// ParseLevel accepts all|warnings|nothing, case-insensitive.
func ParseLevel(s string) (Level, error) {
	switch Level(strings.ToLower(strings.TrimSpace(s))) {
	case LevelAll, "":
		return LevelAll, nil
	case LevelWarnings, "warn":
		return LevelWarnings, nil
	case LevelNothing, "none", "off":
		return LevelNothing, nil
	}
	return "", errors.Errorf("unknown log level %q (expected all|warnings|nothing)", s)
}

// Config selects the level and an optional directory for a JSON log file.
type Config struct {
	Level Level
	Dir   string
}

// New builds a logger writing console output to stderr and, when cfg.Dir is
// set, JSON lines to <Dir>/logs/rltune.log. The returned cleanup flushes and
// closes the sinks.
func New(cfg Config) (logr.Logger, func() error, error) {
	noop := func() error { return nil }
	if cfg.Level == LevelNothing {
		return logr.Discard(), noop, nil
	}

	level := zap.NewAtomicLevelAt(zapcore.Level(-DEBUG))
	if cfg.Level == LevelWarnings {
		level = zap.NewAtomicLevelAt(zapcore.Level(-INFO))
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stderr), level),
	}

	var file *os.File
	if cfg.Dir != "" {
		dir := filepath.Join(cfg.Dir, "logs")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return logr.Discard(), noop, errors.Wrap(err, "logging.mkdir")
		}
		f, err := os.OpenFile(filepath.Join(dir, "rltune.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return logr.Discard(), noop, errors.Wrap(err, "logging.open")
		}
		file = f
		jsonCfg := zap.NewProductionEncoderConfig()
		jsonCfg.EncodeTime = zapcore.RFC3339NanoTimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(jsonCfg), zapcore.AddSync(f), level))
	}

	zl := zap.New(zapcore.NewTee(cores...))
	cleanup := func() error {
		_ = zl.Sync()
		if file != nil {
			return file.Close()
		}
		return nil
	}
	return zapr.NewLogger(zl), cleanup, nil
}

// NewTestLogger returns a development logger for tests.
func NewTestLogger() logr.Logger {
	zl, err := zap.NewDevelopment()
	if err != nil {
		return logr.Discard()
	}
	return zapr.NewLogger(zl)
}

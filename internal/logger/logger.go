// Package logger holds the process-wide structured logger.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// L is the global logger instance. It's initialized to discard all output by default.
// Call Init() to enable logging.
var L = zap.NewNop()

// AllocEnv names the environment variable that turns on allocator tracing.
const AllocEnv = "KHEAP_LOG_ALLOC"

// Options configures the logger initialization.
type Options struct {
	Enabled     bool          // If false, all logging is discarded
	Level       zapcore.Level // Minimum log level. Default: InfoLevel
	Development bool          // Human-readable console output instead of JSON
	OutputPaths []string      // Default: stderr
}

// Init configures logging. Call from main() before any log calls.
// If opts.Enabled is false, all log output is discarded.
func Init(opts Options) error {
	if !opts.Enabled {
		L = zap.NewNop()
		return nil
	}

	cfg := zap.NewProductionConfig()
	if opts.Development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(opts.Level)
	if len(opts.OutputPaths) > 0 {
		cfg.OutputPaths = opts.OutputPaths
	} else {
		cfg.OutputPaths = []string{"stderr"}
	}

	l, err := cfg.Build()
	if err != nil {
		return err
	}
	L = l
	return nil
}

// Set swaps the global logger and returns a function restoring the previous one.
func Set(l *zap.Logger) (restore func()) {
	prev := L
	L = l
	return func() { L = prev }
}

// AllocTracing reports whether allocator tracing was requested through AllocEnv.
func AllocTracing() bool {
	return os.Getenv(AllocEnv) != ""
}

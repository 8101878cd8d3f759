package internal

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/Oliver-Hanikel/miniserve/util"
	"go.uber.org/zap"
)

// NewLogger creates the CLI logger.
//
// A development config is used if debug is true, a production config otherwise. Both write to stderr so that stdout
// can carry archive bytes. An empty level means "info".
func NewLogger(debug bool, level string) (*zap.Logger, error) {
	if level == "" {
		level = "info"
	}

	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %s: %w", level, err)
	}

	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = lvl

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger error: %w", err)
	}

	return logger.Named("miniserve"), nil
}

// Prefix creates a consistent description for all directory-based commands to use.
//
// i and n are the zero-based ordinal and expected count.
func Prefix(i, n int, name string) string {
	return fmt.Sprintf(`[%d/%d] "%s"`, i+1, n, util.TruncateRightWithSuffix(filepath.Base(name), 30, "..."))
}

type loggerKey struct{}

// WithLogger attaches the logger to context.
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// Logger returns the logger attached to the given context, or a no-op logger if there is none.
func Logger(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*zap.Logger); ok {
		return logger
	}

	return zap.NewNop()
}

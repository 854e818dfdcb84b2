// Package observability provides structured logging and formatted terminal output.
package observability

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const masked = "***"

// sensitiveKeys are substrings of field names whose values are never logged.
var sensitiveKeys = []string{"token", "secret", "auth", "key", "password"}

// NewLogger builds a JSON production logger writing to stderr. Verbose lowers the level to debug.
func NewLogger(verbose bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// NewNop returns a logger that discards everything.
func NewNop() *zap.Logger {
	return zap.NewNop()
}

// OrNop returns logger, or a no-op logger when it is nil.
func OrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// Secret returns a string field whose value is masked when the key names a credential.
func Secret(key, value string) zap.Field {
	if IsSensitive(key) && value != "" {
		return zap.String(key, masked)
	}
	return zap.String(key, value)
}

// IsSensitive reports whether a field name looks like it holds a credential.
func IsSensitive(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

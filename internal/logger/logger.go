// Package logger builds the service's zap loggers.
package logger

import (
	"os"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Standard field names. Use these instead of raw strings so keys stay
// consistent across packages.
const (
	FieldSessionID = "session_id"
	FieldRecordID  = "record_id"
	FieldUserID    = "user_id"
	FieldField     = "field"
	FieldFields    = "fields"
	FieldCount     = "count"
	FieldObject    = "object"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldAddr      = "addr"
)

// New returns a logger at the named level ("debug", "info", "warn", "error").
// Development loggers write human-readable console output to stderr;
// otherwise output is JSON on stdout.
func New(level string, development bool) (*zap.Logger, error) {
	lvl := zap.InfoLevel
	if level != "" {
		parsed, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid log level %q", level)
		}
		lvl = parsed
	}

	if development {
		enc := zap.NewDevelopmentEncoderConfig()
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zap.New(
			zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(os.Stderr), lvl),
		), nil
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stdout"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	l, err := cfg.Build()
	if err != nil {
		return nil, errors.Wrap(err, "building logger")
	}
	return l, nil
}

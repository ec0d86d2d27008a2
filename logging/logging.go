// Package logging builds the process zap logger from configuration.
//
// The TUI owns stdout, so logs default to stderr; a file path in the
// configuration moves them out of the operator's way entirely.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mwidla/teleop/config"
)

// New constructs a logger per cfg. The caller owns the returned sync
// function and should defer it.
func New(cfg config.LogConfig) (*zap.Logger, func(), error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("logging: level %q: %w", cfg.Level, err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var enc zapcore.Encoder
	if cfg.Format == "console" {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	} else {
		enc = zapcore.NewJSONEncoder(encCfg)
	}

	sink := zapcore.Lock(os.Stderr)
	if cfg.Path != "" {
		f, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, nil, fmt.Errorf("logging: open %s: %w", cfg.Path, err)
		}
		sink = zapcore.Lock(f)
	}

	logger := zap.New(zapcore.NewCore(enc, sink, level))
	return logger, func() { _ = logger.Sync() }, nil
}

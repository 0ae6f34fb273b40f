// Package logger builds the process-wide zap logger. Components take a
// *zap.Logger; this package decides its shape once, at startup.
package logger

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects the logger shape. The zero value is info-level JSON on
// stderr, which is what a deployed engine wants.
type Options struct {
	Level   string // debug, info, warn, error; empty means info
	Console bool   // human-readable output instead of JSON
}

// New builds a logger from opts. An unknown level is an error rather than a
// silent default, so a typo in config does not mute a running engine.
func New(opts Options) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	if opts.Level != "" {
		var err error
		lvl, err = zapcore.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("logger: %w", err)
		}
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var enc zapcore.Encoder
	if opts.Console {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	} else {
		enc = zapcore.NewJSONEncoder(encCfg)
	}

	core := zapcore.NewCore(enc, zapcore.Lock(os.Stderr), lvl)
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

// Default is the logger a component gets when its caller passes none.
func Default() *zap.Logger {
	l, err := New(Options{})
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// Nop discards everything.
func Nop() *zap.Logger { return zap.NewNop() }

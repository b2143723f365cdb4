// Package logging builds the structured diagnostic logger. Console output meant
// for the operator goes through package ui instead.
package logging

import (
	"github.com/m4xw311/gemini-agent/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Options struct {
	// File receives JSON log lines. Logging is disabled when empty.
	File  string
	Debug bool
}

// New returns a production JSON logger, or a no-op logger when no file is
// configured so diagnostics never interleave with the conversation.
func New(opts Options) (*zap.Logger, error) {
	if opts.File == "" {
		return zap.NewNop(), nil
	}
	config := zap.NewProductionConfig()
	if opts.Debug {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	config.OutputPaths = []string{opts.File}
	config.ErrorOutputPaths = []string{opts.File}
	logger, err := config.Build()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to initialize logger")
	}
	return logger, nil
}

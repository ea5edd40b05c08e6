// Package logging builds the zap logger used by dictgen commands.
package logging

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options controls logger construction
type Options struct {
	// Verbose switches to a human readable development logger at debug level
	Verbose bool
	// Level is the minimum level of the production logger
	Level string
	// Output receives log entries. Defaults to stderr.
	Output zapcore.WriteSyncer
}

// New returns a logger tagged with a fresh run id
func New(opts Options) (*zap.Logger, error) {
	out := opts.Output
	if out == nil {
		out = zapcore.Lock(os.Stderr)
	}

	var (
		level   zapcore.Level
		encoder zapcore.Encoder
	)
	if opts.Verbose {
		level = zapcore.DebugLevel
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	} else {
		if opts.Level != "" {
			if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
				return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
			}
		}
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}

	core := zapcore.NewCore(encoder, out, zap.NewAtomicLevelAt(level))
	return zap.New(core).With(zap.String("run_id", uuid.NewString())), nil
}

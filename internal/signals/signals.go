// Package signals subscribes to host notifications that hint the interface
// inventory may have changed. A signal carries no data; receivers are
// expected to debounce and re-read the inventory.
package signals

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// ErrUnsupported is returned by sources that cannot run on this platform.
var ErrUnsupported = errors.New("signals: not supported on this platform")

// Source is a producer of change signals.
type Source interface {
	Name() string
	// Start subscribes and calls notify for every change until ctx is
	// cancelled. It returns once the subscription is established.
	Start(ctx context.Context, notify func()) error
}

// Failure records a source that could not be started.
type Failure struct {
	Source string `json:"source"`
	Err    error  `json:"-"`
}

// Error returns the failure message.
func (f Failure) Error() string {
	return f.Source + ": " + f.Err.Error()
}

// StartAll starts every source. Sources that fail are logged and returned;
// the rest keep running.
func StartAll(ctx context.Context, logger *zap.Logger, notify func(), sources ...Source) []Failure {
	if logger == nil {
		logger = zap.NewNop()
	}
	var failed []Failure
	for _, s := range sources {
		if err := s.Start(ctx, notify); err != nil {
			logger.Warn("change signal source unavailable",
				zap.String("source", s.Name()),
				zap.Error(err),
			)
			failed = append(failed, Failure{Source: s.Name(), Err: err})
			continue
		}
		logger.Info("change signal source started", zap.String("source", s.Name()))
	}
	return failed
}

// Package command changes interface admin and connection state on the
// host. Executors never touch reconciliation state; callers observe the
// effect through the normal change-signal path.
package command

import (
	"context"
	"errors"
	"fmt"
)

// Executor applies state changes to host interfaces.
type Executor interface {
	SetAdminState(ctx context.Context, name string, enable bool) error
	SetConnectionState(ctx context.Context, name, profile string, connect bool) error
}

// Kind classifies command failures.
type Kind string

// Failure kinds.
const (
	KindElevationDenied      Kind = "elevation_denied"
	KindProcessFailedToStart Kind = "process_failed_to_start"
	KindNonZeroExit          Kind = "non_zero_exit"
	KindNotFound             Kind = "not_found"
	KindUnsupported          Kind = "unsupported"
	KindFailed               Kind = "failed"
)

// ErrProfileRequired is returned when a connect request names no profile.
var ErrProfileRequired = errors.New("command: connection profile required")

// Error is a failed state change.
type Error struct {
	Kind      Kind
	Op        string
	Interface string
	// Code is the exit status for KindNonZeroExit.
	Code int
	Err  error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %q: %s", e.Op, e.Interface, e.Kind)
	if e.Kind == KindNonZeroExit {
		msg += fmt.Sprintf(" (code %d)", e.Code)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of err, or KindFailed when err is not an *Error.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindFailed
}

// Operation names used in Error.Op.
const (
	OpEnable     = "enable"
	OpDisable    = "disable"
	OpConnect    = "connect"
	OpDisconnect = "disconnect"
)

func adminOp(enable bool) string {
	if enable {
		return OpEnable
	}
	return OpDisable
}

func connectionOp(connect bool) string {
	if connect {
		return OpConnect
	}
	return OpDisconnect
}

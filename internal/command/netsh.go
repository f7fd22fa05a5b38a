package command

import (
	"context"
	"errors"
	"os/exec"
	"strings"
)

// exitElevationCancelled is the status returned when the user declines the
// elevation prompt.
const exitElevationCancelled = 1223

// RunFunc runs argv and returns its combined output. A failed exit must be
// reported through an error implementing ExitCode() int.
type RunFunc func(ctx context.Context, argv []string) ([]byte, error)

func execRun(ctx context.Context, argv []string) ([]byte, error) {
	return exec.CommandContext(ctx, argv[0], argv[1:]...).CombinedOutput()
}

// NetshExecutor drives netsh.
type NetshExecutor struct {
	run RunFunc
}

// NewNetshExecutor creates a NetshExecutor. A nil run uses os/exec.
func NewNetshExecutor(run RunFunc) *NetshExecutor {
	if run == nil {
		run = execRun
	}
	return &NetshExecutor{run: run}
}

// AdminArgs returns the netsh arguments that enable or disable name.
func AdminArgs(name string, enable bool) []string {
	state := "disable"
	if enable {
		state = "enable"
	}
	return []string{"netsh", "interface", "set", "interface", `name="` + name + `"`, "admin=" + state}
}

// ConnectionArgs returns the netsh arguments that connect name to profile,
// or disconnect it.
func ConnectionArgs(name, profile string, connect bool) []string {
	if connect {
		return []string{"netsh", "wlan", "connect", `name="` + profile + `"`, `interface="` + name + `"`}
	}
	return []string{"netsh", "wlan", "disconnect", `interface="` + name + `"`}
}

// SetAdminState enables or disables name.
func (x *NetshExecutor) SetAdminState(ctx context.Context, name string, enable bool) error {
	return x.exec(ctx, adminOp(enable), name, AdminArgs(name, enable))
}

// SetConnectionState connects name to profile, or disconnects it.
func (x *NetshExecutor) SetConnectionState(ctx context.Context, name, profile string, connect bool) error {
	if connect && strings.TrimSpace(profile) == "" {
		return ErrProfileRequired
	}
	return x.exec(ctx, connectionOp(connect), name, ConnectionArgs(name, profile, connect))
}

func (x *NetshExecutor) exec(ctx context.Context, op, name string, argv []string) error {
	out, err := x.run(ctx, argv)
	if err == nil {
		return nil
	}
	ce := &Error{Op: op, Interface: name, Err: err}

	var coder interface{ ExitCode() int }
	if !errors.As(err, &coder) {
		ce.Kind = KindProcessFailedToStart
		return ce
	}
	if coder.ExitCode() < 0 {
		// killed by a signal or context cancellation
		ce.Kind = KindFailed
		return ce
	}
	ce.Code = coder.ExitCode()
	switch {
	case ce.Code == exitElevationCancelled:
		ce.Kind = KindElevationDenied
	case notFoundOutput(out):
		ce.Kind = KindNotFound
	default:
		ce.Kind = KindNonZeroExit
	}
	if msg := strings.TrimSpace(string(out)); msg != "" {
		ce.Err = errors.New(msg)
	}
	return ce
}

func notFoundOutput(out []byte) bool {
	s := strings.ToLower(string(out))
	return strings.Contains(s, "not registered") ||
		strings.Contains(s, "no such interface") ||
		strings.Contains(s, "there is no wireless interface")
}

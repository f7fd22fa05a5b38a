//go:build !linux

package command

import (
	"context"
	"errors"
)

var errNoNetlink = errors.New("netlink is only available on Linux")

// NetlinkExecutor is unavailable off Linux; every call fails with
// KindUnsupported.
type NetlinkExecutor struct{}

// NewNetlinkExecutor returns a NetlinkExecutor stub.
func NewNetlinkExecutor() *NetlinkExecutor { return &NetlinkExecutor{} }

// SetAdminState returns a KindUnsupported error.
func (*NetlinkExecutor) SetAdminState(_ context.Context, name string, enable bool) error {
	return &Error{Kind: KindUnsupported, Op: adminOp(enable), Interface: name, Err: errNoNetlink}
}

// SetConnectionState returns a KindUnsupported error.
func (*NetlinkExecutor) SetConnectionState(_ context.Context, name, _ string, connect bool) error {
	return &Error{Kind: KindUnsupported, Op: connectionOp(connect), Interface: name, Err: errNoNetlink}
}

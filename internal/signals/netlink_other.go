//go:build !linux

package signals

import (
	"context"

	"go.uber.org/zap"
)

// AddressSource is unavailable off Linux.
type AddressSource struct{}

// NewAddressSource returns a source whose Start reports ErrUnsupported.
func NewAddressSource(*zap.Logger) *AddressSource { return &AddressSource{} }

// Name returns "address".
func (*AddressSource) Name() string { return "address" }

// Start returns ErrUnsupported.
func (*AddressSource) Start(context.Context, func()) error { return ErrUnsupported }

// LinkSource is unavailable off Linux.
type LinkSource struct{}

// NewLinkSource returns a source whose Start reports ErrUnsupported.
func NewLinkSource(*zap.Logger) *LinkSource { return &LinkSource{} }

// Name returns "link".
func (*LinkSource) Name() string { return "link" }

// Start returns ErrUnsupported.
func (*LinkSource) Start(context.Context, func()) error { return ErrUnsupported }

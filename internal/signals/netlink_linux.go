//go:build linux

package signals

import (
	"context"
	"fmt"

	"github.com/vishvananda/netlink"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// AddressSource signals on every address add or remove. Enabling or
// disabling an adapter, and most connection changes, show up here.
type AddressSource struct {
	logger    *zap.Logger
	subscribe func(chan<- netlink.AddrUpdate, <-chan struct{}) error
}

// NewAddressSource creates an AddressSource on the host netlink socket.
func NewAddressSource(logger *zap.Logger) *AddressSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AddressSource{logger: logger, subscribe: netlink.AddrSubscribe}
}

// Name returns "address".
func (s *AddressSource) Name() string { return "address" }

// Start subscribes to address updates.
func (s *AddressSource) Start(ctx context.Context, notify func()) error {
	ch := make(chan netlink.AddrUpdate, 16)
	if err := s.subscribe(ch, ctx.Done()); err != nil {
		return fmt.Errorf("subscribe to address updates: %w", err)
	}
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case u, ok := <-ch:
				if !ok {
					s.logger.Debug("address subscription closed")
					return
				}
				s.logger.Debug("address change",
					zap.Int("link_index", u.LinkIndex),
					zap.Bool("new", u.NewAddr),
				)
				notify()
			}
		}
	}()
	return nil
}

// LinkSource signals when a link's flags or operational state change, or a
// link appears or disappears. Repeated updates carrying the same state are
// ignored.
type LinkSource struct {
	logger    *zap.Logger
	subscribe func(chan<- netlink.LinkUpdate, <-chan struct{}) error
}

// NewLinkSource creates a LinkSource on the host netlink socket.
func NewLinkSource(logger *zap.Logger) *LinkSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LinkSource{logger: logger, subscribe: netlink.LinkSubscribe}
}

// Name returns "link".
func (s *LinkSource) Name() string { return "link" }

type linkState struct {
	flags uint32
	oper  netlink.LinkOperState
}

// Start subscribes to link updates.
func (s *LinkSource) Start(ctx context.Context, notify func()) error {
	ch := make(chan netlink.LinkUpdate, 16)
	if err := s.subscribe(ch, ctx.Done()); err != nil {
		return fmt.Errorf("subscribe to link updates: %w", err)
	}
	go func() {
		last := make(map[int32]linkState)
		for {
			select {
			case <-ctx.Done():
				return
			case u, ok := <-ch:
				if !ok {
					s.logger.Debug("link subscription closed")
					return
				}
				if s.changed(last, u) {
					notify()
				}
			}
		}
	}()
	return nil
}

func (s *LinkSource) changed(last map[int32]linkState, u netlink.LinkUpdate) bool {
	idx := u.Index
	if u.Link == nil || u.Link.Attrs() == nil {
		return true
	}
	attrs := u.Link.Attrs()
	cur := linkState{flags: u.Flags, oper: attrs.OperState}

	if u.Header.Type == unix.RTM_DELLINK {
		delete(last, idx)
		s.logger.Debug("link removed", zap.String("interface", attrs.Name))
		return true
	}
	prev, seen := last[idx]
	last[idx] = cur
	if seen && prev == cur {
		return false
	}
	s.logger.Debug("link change",
		zap.String("interface", attrs.Name),
		zap.String("oper_state", attrs.OperState.String()),
	)
	return true
}

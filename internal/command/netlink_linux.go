//go:build linux

package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/HerbHall/netswitch/pkg/models"
	"github.com/mdlayher/wifi"
	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"
)

// Links abstracts the netlink calls used to change admin state.
type Links interface {
	LinkList() ([]netlink.Link, error)
	LinkSetUp(link netlink.Link) error
	LinkSetDown(link netlink.Link) error
}

type kernelLinks struct{}

func (kernelLinks) LinkList() ([]netlink.Link, error) { return netlink.LinkList() }

func (kernelLinks) LinkSetUp(l netlink.Link) error { return netlink.LinkSetUp(l) }

func (kernelLinks) LinkSetDown(l netlink.Link) error { return netlink.LinkSetDown(l) }

// WiFi abstracts the nl80211 client.
type WiFi interface {
	Interfaces() ([]*wifi.Interface, error)
	Connect(ifi *wifi.Interface, ssid string) error
	Disconnect(ifi *wifi.Interface) error
	Close() error
}

// NetlinkExecutor changes admin state over rtnetlink and wireless
// association over nl80211.
type NetlinkExecutor struct {
	links    Links
	openWiFi func() (WiFi, error)
}

// NetlinkOption configures a NetlinkExecutor.
type NetlinkOption func(*NetlinkExecutor)

// WithLinks overrides the rtnetlink backend.
func WithLinks(l Links) NetlinkOption {
	return func(x *NetlinkExecutor) { x.links = l }
}

// WithWiFi overrides the nl80211 client constructor.
func WithWiFi(open func() (WiFi, error)) NetlinkOption {
	return func(x *NetlinkExecutor) { x.openWiFi = open }
}

// NewNetlinkExecutor creates a NetlinkExecutor on the host sockets.
func NewNetlinkExecutor(opts ...NetlinkOption) *NetlinkExecutor {
	x := &NetlinkExecutor{
		links: kernelLinks{},
		openWiFi: func() (WiFi, error) {
			return wifi.New()
		},
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// SetAdminState brings name up or down.
func (x *NetlinkExecutor) SetAdminState(_ context.Context, name string, enable bool) error {
	op := adminOp(enable)
	link, err := x.linkByName(name)
	if err != nil {
		return classify(op, name, err)
	}
	if enable {
		err = x.links.LinkSetUp(link)
	} else {
		err = x.links.LinkSetDown(link)
	}
	if err != nil {
		return classify(op, name, err)
	}
	return nil
}

// SetConnectionState associates name with the network named profile, or
// drops its current association.
func (x *NetlinkExecutor) SetConnectionState(_ context.Context, name, profile string, connect bool) error {
	op := connectionOp(connect)
	if connect && profile == "" {
		return ErrProfileRequired
	}

	c, err := x.openWiFi()
	if err != nil {
		return &Error{Kind: KindUnsupported, Op: op, Interface: name, Err: err}
	}
	defer c.Close()

	ifis, err := c.Interfaces()
	if err != nil {
		return classify(op, name, fmt.Errorf("list wireless interfaces: %w", err))
	}
	var ifi *wifi.Interface
	for _, candidate := range ifis {
		if models.NameKey(candidate.Name) == models.NameKey(name) {
			ifi = candidate
			break
		}
	}
	if ifi == nil {
		if _, lerr := x.linkByName(name); lerr != nil {
			return classify(op, name, lerr)
		}
		return &Error{Kind: KindUnsupported, Op: op, Interface: name, Err: errors.New("not a wireless interface")}
	}

	if connect {
		err = c.Connect(ifi, profile)
	} else {
		err = c.Disconnect(ifi)
	}
	if err != nil {
		return classify(op, name, err)
	}
	return nil
}

// linkByName resolves name case-insensitively.
func (x *NetlinkExecutor) linkByName(name string) (netlink.Link, error) {
	links, err := x.links.LinkList()
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	k := models.NameKey(name)
	for _, l := range links {
		if attrs := l.Attrs(); attrs != nil && models.NameKey(attrs.Name) == k {
			return l, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", errLinkNotFound, name)
}

var errLinkNotFound = errors.New("link not found")

func classify(op, name string, err error) *Error {
	ce := &Error{Kind: KindFailed, Op: op, Interface: name, Err: err}
	switch {
	case errors.Is(err, unix.EPERM), errors.Is(err, unix.EACCES):
		ce.Kind = KindElevationDenied
	case errors.Is(err, errLinkNotFound), errors.Is(err, unix.ENODEV):
		ce.Kind = KindNotFound
	case errors.Is(err, unix.EOPNOTSUPP), errors.Is(err, errors.ErrUnsupported):
		ce.Kind = KindUnsupported
	}
	if _, ok := err.(netlink.LinkNotFoundError); ok {
		ce.Kind = KindNotFound
	}
	return ce
}

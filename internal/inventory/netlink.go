package inventory

import (
	"context"
	"fmt"
	"net"

	"github.com/HerbHall/netswitch/pkg/models"
	"github.com/vishvananda/netlink"
)

// Links abstracts the netlink calls used to read interfaces.
type Links interface {
	LinkList() ([]netlink.Link, error)
}

// kernelLinks reads links from the host's netlink socket.
type kernelLinks struct{}

func (kernelLinks) LinkList() ([]netlink.Link, error) { return netlink.LinkList() }

// NetlinkSource reads the inventory from the kernel over netlink.
type NetlinkSource struct {
	links           Links
	includeLoopback bool
}

// NetlinkOption configures a NetlinkSource.
type NetlinkOption func(*NetlinkSource)

// WithLinks overrides the netlink backend.
func WithLinks(l Links) NetlinkOption {
	return func(s *NetlinkSource) { s.links = l }
}

// WithLoopback includes loopback interfaces in the inventory.
func WithLoopback(include bool) NetlinkOption {
	return func(s *NetlinkSource) { s.includeLoopback = include }
}

// NewNetlinkSource creates a NetlinkSource.
func NewNetlinkSource(opts ...NetlinkOption) *NetlinkSource {
	s := &NetlinkSource{links: kernelLinks{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch lists all links.
func (s *NetlinkSource) Fetch(_ context.Context) ([]models.InterfaceRecord, error) {
	links, err := s.links.LinkList()
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	out := make([]models.InterfaceRecord, 0, len(links))
	for _, l := range links {
		attrs := l.Attrs()
		if attrs == nil {
			continue
		}
		if attrs.Flags&net.FlagLoopback != 0 && !s.includeLoopback {
			continue
		}
		out = append(out, linkRecord(l))
	}
	return out, nil
}

// Probe looks up one link by case-insensitive name. Kernel names are case
// sensitive, so the full list is scanned.
func (s *NetlinkSource) Probe(ctx context.Context, name string) (*models.InterfaceRecord, error) {
	records, err := s.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return find(records, name), nil
}

func linkRecord(l netlink.Link) models.InterfaceRecord {
	attrs := l.Attrs()
	admin := models.AdminDisabled
	if adminUp(attrs) {
		admin = models.AdminEnabled
	}
	return models.InterfaceRecord{
		Name:       attrs.Name,
		AdminState: admin,
		OperState:  operState(attrs.OperState),
	}
}

// operState maps RFC 2863 operational states onto the record vocabulary.
func operState(s netlink.LinkOperState) models.OperState {
	switch s {
	case netlink.OperUp:
		return models.OperConnected
	case netlink.OperDown, netlink.OperLowerLayerDown:
		return models.OperDisconnected
	case netlink.OperDormant:
		return models.OperNonOperational
	case netlink.OperNotPresent:
		return "Not present"
	case netlink.OperTesting:
		return "Testing"
	default:
		return "Unknown"
	}
}

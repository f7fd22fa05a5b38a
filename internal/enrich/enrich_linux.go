//go:build linux

package enrich

import (
	"fmt"

	"github.com/mdlayher/wifi"
	"github.com/safchain/ethtool"
	"github.com/vishvananda/netlink"
)

type hostBackend struct {
	eth *ethtool.Ethtool
}

func openHost() (backend, error) {
	h, err := ethtool.NewEthtool()
	if err != nil {
		// Index and type still come from netlink.
		return &hostBackend{}, nil
	}
	return &hostBackend{eth: h}, nil
}

func (b *hostBackend) link(name string) (linkInfo, error) {
	l, err := netlink.LinkByName(name)
	if err != nil {
		return linkInfo{}, err
	}
	attrs := l.Attrs()
	li := linkInfo{index: attrs.Index, kind: l.Type()}
	if len(attrs.HardwareAddr) > 0 {
		li.mac = attrs.HardwareAddr.String()
	}
	return li, nil
}

func (b *hostBackend) driver(name string) (string, error) {
	if b.eth == nil {
		return "", fmt.Errorf("ethtool unavailable")
	}
	info, err := b.eth.DriverInfo(name)
	if err != nil {
		return "", fmt.Errorf("ethtool DriverInfo failed for %s: %w", name, err)
	}
	return describe(info.Driver, info.BusInfo), nil
}

func (b *hostBackend) speed(name string) (uint32, error) {
	if b.eth == nil {
		return 0, fmt.Errorf("ethtool unavailable")
	}
	settings, err := b.eth.GetLinkSettings(name)
	if err != nil {
		return 0, fmt.Errorf("ethtool GetLinkSettings failed for %s: %w", name, err)
	}
	return linkSpeed(settings.Speed)
}

func (b *hostBackend) wireless() (map[string]bool, error) {
	c, err := wifi.New()
	if err != nil {
		return nil, fmt.Errorf("open nl80211: %w", err)
	}
	defer c.Close()

	ifis, err := c.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("list wireless interfaces: %w", err)
	}
	out := make(map[string]bool, len(ifis))
	for _, ifi := range ifis {
		if ifi.Name != "" {
			out[ifi.Name] = true
		}
	}
	return out, nil
}

func (b *hostBackend) close() {
	if b.eth != nil {
		b.eth.Close()
	}
}

//go:build !linux

package enrich

import (
	"errors"
	"net"
)

// hostBackend falls back to the portable net package, which knows the
// interface index and hardware address but nothing about drivers, speeds
// or link kinds.
type hostBackend struct{}

func openHost() (backend, error) { return hostBackend{}, nil }

func (hostBackend) link(name string) (linkInfo, error) {
	ifi, err := net.InterfaceByName(name)
	if err != nil {
		return linkInfo{}, err
	}
	li := linkInfo{index: ifi.Index}
	if len(ifi.HardwareAddr) > 0 {
		li.mac = ifi.HardwareAddr.String()
	}
	return li, nil
}

func (hostBackend) driver(string) (string, error) {
	return "", errors.ErrUnsupported
}

func (hostBackend) speed(string) (uint32, error) {
	return 0, errors.ErrUnsupported
}

func (hostBackend) wireless() (map[string]bool, error) { return nil, nil }

func (hostBackend) close() {}

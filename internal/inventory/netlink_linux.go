//go:build linux

package inventory

import (
	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"
)

func adminUp(attrs *netlink.LinkAttrs) bool {
	return attrs.RawFlags&unix.IFF_UP != 0
}

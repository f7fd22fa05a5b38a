//go:build !linux

package inventory

import (
	"net"

	"github.com/vishvananda/netlink"
)

func adminUp(attrs *netlink.LinkAttrs) bool {
	return attrs.Flags&net.FlagUp != 0
}

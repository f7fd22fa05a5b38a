package enrich

import (
	"errors"
	"strings"
)

// speedUnknown is the value the kernel reports when no speed is negotiated.
const speedUnknown = ^uint32(0)

var errSpeedUnknown = errors.New("link speed unknown")

// describe formats driver metadata as "driver (bus)".
func describe(driver, bus string) string {
	driver = strings.TrimSpace(driver)
	bus = strings.TrimSpace(bus)
	switch {
	case driver == "":
		return ""
	case bus == "" || bus == "N/A":
		return driver
	default:
		return driver + " (" + bus + ")"
	}
}

func linkSpeed(mbps uint32) (uint32, error) {
	if mbps == 0 || mbps == speedUnknown {
		return 0, errSpeedUnknown
	}
	return mbps, nil
}

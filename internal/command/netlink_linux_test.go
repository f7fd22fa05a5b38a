//go:build linux

package command

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/mdlayher/wifi"
	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"
)

type fakeLinks struct {
	links   []netlink.Link
	setErr  error
	up      []string
	down    []string
	listErr error
}

func (f *fakeLinks) LinkList() ([]netlink.Link, error) { return f.links, f.listErr }

func (f *fakeLinks) LinkSetUp(l netlink.Link) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.up = append(f.up, l.Attrs().Name)
	return nil
}

func (f *fakeLinks) LinkSetDown(l netlink.Link) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.down = append(f.down, l.Attrs().Name)
	return nil
}

type fakeWiFi struct {
	ifis         []*wifi.Interface
	connectErr   error
	connected    map[string]string
	disconnected []string
	closed       bool
}

func (f *fakeWiFi) Interfaces() ([]*wifi.Interface, error) { return f.ifis, nil }

func (f *fakeWiFi) Connect(ifi *wifi.Interface, ssid string) error {
	if f.connectErr != nil {
		return f.connectErr
	}
	f.connected[ifi.Name] = ssid
	return nil
}

func (f *fakeWiFi) Disconnect(ifi *wifi.Interface) error {
	f.disconnected = append(f.disconnected, ifi.Name)
	return nil
}

func (f *fakeWiFi) Close() error {
	f.closed = true
	return nil
}

func device(name string) netlink.Link {
	return &netlink.Device{LinkAttrs: netlink.LinkAttrs{Name: name}}
}

func TestNetlinkExecutorSetAdminState(t *testing.T) {
	links := &fakeLinks{links: []netlink.Link{device("eth0"), device("wlan0")}}
	x := NewNetlinkExecutor(WithLinks(links))

	if err := x.SetAdminState(context.Background(), "WLAN0", true); err != nil {
		t.Fatalf("enable error = %v", err)
	}
	if err := x.SetAdminState(context.Background(), "eth0", false); err != nil {
		t.Fatalf("disable error = %v", err)
	}
	if len(links.up) != 1 || links.up[0] != "wlan0" {
		t.Errorf("up = %v", links.up)
	}
	if len(links.down) != 1 || links.down[0] != "eth0" {
		t.Errorf("down = %v", links.down)
	}
}

func TestNetlinkExecutorErrors(t *testing.T) {
	tests := []struct {
		name  string
		links *fakeLinks
		iface string
		want  Kind
	}{
		{"missing", &fakeLinks{links: []netlink.Link{device("eth0")}}, "eth9", KindNotFound},
		{"not permitted", &fakeLinks{links: []netlink.Link{device("eth0")}, setErr: unix.EPERM}, "eth0", KindElevationDenied},
		{"access denied wrapped", &fakeLinks{links: []netlink.Link{device("eth0")}, setErr: fmt.Errorf("set up: %w", unix.EACCES)}, "eth0", KindElevationDenied},
		{"not supported", &fakeLinks{links: []netlink.Link{device("eth0")}, setErr: unix.EOPNOTSUPP}, "eth0", KindUnsupported},
		{"other", &fakeLinks{links: []netlink.Link{device("eth0")}, setErr: unix.EBUSY}, "eth0", KindFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewNetlinkExecutor(WithLinks(tt.links)).SetAdminState(context.Background(), tt.iface, true)
			if got := KindOf(err); got != tt.want {
				t.Errorf("KindOf(%v) = %s, want %s", err, got, tt.want)
			}
		})
	}
}

func TestNetlinkExecutorConnection(t *testing.T) {
	w := &fakeWiFi{
		ifis:      []*wifi.Interface{{Name: "wlan0", Index: 3}},
		connected: make(map[string]string),
	}
	links := &fakeLinks{links: []netlink.Link{device("eth0"), device("wlan0")}}
	x := NewNetlinkExecutor(WithLinks(links), WithWiFi(func() (WiFi, error) { return w, nil }))
	ctx := context.Background()

	if err := x.SetConnectionState(ctx, "wlan0", "HomeNet", true); err != nil {
		t.Fatalf("connect error = %v", err)
	}
	if w.connected["wlan0"] != "HomeNet" {
		t.Errorf("connected = %v", w.connected)
	}
	if err := x.SetConnectionState(ctx, "WLAN0", "", false); err != nil {
		t.Fatalf("disconnect error = %v", err)
	}
	if len(w.disconnected) != 1 {
		t.Errorf("disconnected = %v", w.disconnected)
	}
	if !w.closed {
		t.Error("wifi client not closed")
	}

	if got := KindOf(x.SetConnectionState(ctx, "eth0", "HomeNet", true)); got != KindUnsupported {
		t.Errorf("connect wired interface kind = %s, want unsupported", got)
	}
	if got := KindOf(x.SetConnectionState(ctx, "wlan9", "HomeNet", true)); got != KindNotFound {
		t.Errorf("connect missing interface kind = %s, want not_found", got)
	}
	if err := x.SetConnectionState(ctx, "wlan0", "", true); !errors.Is(err, ErrProfileRequired) {
		t.Errorf("connect without profile error = %v", err)
	}

	w.connectErr = unix.EPERM
	if got := KindOf(x.SetConnectionState(ctx, "wlan0", "HomeNet", true)); got != KindElevationDenied {
		t.Errorf("connect EPERM kind = %s", got)
	}
}

func TestNetlinkExecutorNoWiFi(t *testing.T) {
	x := NewNetlinkExecutor(WithWiFi(func() (WiFi, error) { return nil, errors.New("nl80211 not found") }))
	if got := KindOf(x.SetConnectionState(context.Background(), "wlan0", "", false)); got != KindUnsupported {
		t.Errorf("kind = %s, want unsupported", got)
	}
}

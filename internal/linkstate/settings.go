package linkstate

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/HerbHall/netswitch/internal/config"
	"github.com/HerbHall/netswitch/internal/reconcile"
	"github.com/HerbHall/netswitch/pkg/models"
)

// Inventory and command backends.
const (
	BackendNetlink = "netlink"
	BackendCommand = "command"
)

// MQTTSettings configures the optional MQTT settle sink. An empty Broker
// disables it.
type MQTTSettings struct {
	Broker   string
	Topic    string
	ClientID string
	QoS      byte
	Retain   bool
}

// Settings are the linkstate module tunables.
type Settings struct {
	Backend          string
	Engine           reconcile.Config
	IncludeLoopback  bool
	LinkSignals      bool
	InventoryCommand []string
	ProbeCommand     []string
	RefreshRate      float64
	RefreshBurst     int
	MQTT             MQTTSettings
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	backend := BackendNetlink
	if runtime.GOOS != "linux" {
		backend = BackendCommand
	}
	return Settings{
		Backend:      backend,
		Engine:       reconcile.DefaultConfig(),
		LinkSignals:  true,
		RefreshRate:  2,
		RefreshBurst: 4,
		MQTT: MQTTSettings{
			Topic:    "netswitch/interfaces",
			ClientID: "netswitch",
		},
	}
}

// LoadSettings reads the module settings from c, keyed relative to the
// module's config section.
func LoadSettings(c *config.Config) (Settings, error) {
	s := DefaultSettings()

	if c.IsSet("backend") {
		s.Backend = strings.ToLower(strings.TrimSpace(c.GetString("backend")))
	}
	if d := c.GetDuration("debounce_delay"); d > 0 {
		s.Engine.DebounceDelay = d
	}
	if d := c.GetDuration("poll_interval"); d > 0 {
		s.Engine.PollInterval = d
	}
	if d := c.GetDuration("poll_timeout"); d > 0 {
		s.Engine.PollTimeout = d
	}
	if states := c.GetStringSlice("stable_states"); len(states) > 0 {
		s.Engine.StableStates = make([]models.OperState, 0, len(states))
		for _, st := range states {
			s.Engine.StableStates = append(s.Engine.StableStates, models.OperState(strings.TrimSpace(st)))
		}
	}
	s.IncludeLoopback = c.GetBool("include_loopback")
	if c.IsSet("link_signals") {
		s.LinkSignals = c.GetBool("link_signals")
	}
	s.InventoryCommand = c.GetStringSlice("inventory_command")
	s.ProbeCommand = c.GetStringSlice("probe_command")
	if c.IsSet("refresh_rate") {
		s.RefreshRate = c.GetFloat64("refresh_rate")
	}
	if c.IsSet("refresh_burst") {
		s.RefreshBurst = c.GetInt("refresh_burst")
	}

	if m := c.Sub("mqtt"); m != nil {
		s.MQTT.Broker = m.GetString("broker")
		if t := m.GetString("topic"); t != "" {
			s.MQTT.Topic = t
		}
		if id := m.GetString("client_id"); id != "" {
			s.MQTT.ClientID = id
		}
		qos := m.GetInt("qos")
		if qos < 0 || qos > 2 {
			return s, fmt.Errorf("mqtt.qos must be 0, 1 or 2, got %d", qos)
		}
		s.MQTT.QoS = byte(qos)
		s.MQTT.Retain = m.GetBool("retain")
	}

	return s, s.Validate()
}

// Validate checks the settings for values the module cannot run with.
func (s Settings) Validate() error {
	switch s.Backend {
	case BackendNetlink, BackendCommand:
	default:
		return fmt.Errorf("backend %q: must be %q or %q", s.Backend, BackendNetlink, BackendCommand)
	}
	if s.RefreshRate <= 0 {
		return fmt.Errorf("refresh_rate must be positive, got %v", s.RefreshRate)
	}
	if s.RefreshBurst < 1 {
		return fmt.Errorf("refresh_burst must be at least 1, got %d", s.RefreshBurst)
	}
	if s.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt.qos must be 0, 1 or 2, got %d", s.MQTT.QoS)
	}
	return nil
}

package reconcile

import (
	"time"

	"github.com/HerbHall/netswitch/pkg/models"
)

// Config holds the engine tunables.
type Config struct {
	DebounceDelay time.Duration `mapstructure:"debounce_delay"`
	PollInterval  time.Duration `mapstructure:"poll_interval"`
	PollTimeout   time.Duration `mapstructure:"poll_timeout"`
	// StableStates lists the operational states that settle an enabled
	// interface. Any other state settles only by timeout.
	StableStates []models.OperState `mapstructure:"stable_states"`
}

// DefaultConfig returns the default engine tunables.
func DefaultConfig() Config {
	return Config{
		DebounceDelay: 250 * time.Millisecond,
		PollInterval:  500 * time.Millisecond,
		PollTimeout:   5 * time.Second,
		StableStates: []models.OperState{
			models.OperConnected,
			models.OperDisconnected,
			models.OperNonOperational,
			models.OperOperational,
		},
	}
}

// withDefaults fills zero-valued fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.DebounceDelay <= 0 {
		c.DebounceDelay = d.DebounceDelay
	}
	if c.PollInterval <= 0 {
		c.PollInterval = d.PollInterval
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = d.PollTimeout
	}
	if len(c.StableStates) == 0 {
		c.StableStates = d.StableStates
	}
	return c
}

// Package config loads netswitch configuration through viper and exposes a
// nil-safe typed view over it.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment variable overrides
// (e.g. NETSWITCH_SERVER_PORT).
const EnvPrefix = "NETSWITCH"

// Config is a read-only view over a viper instance. A nil viper yields zero
// values instead of panicking.
type Config struct {
	v *viper.Viper
}

// New wraps v. Passing nil produces an empty Config.
func New(v *viper.Viper) *Config {
	if v == nil {
		v = viper.New()
	}
	return &Config{v: v}
}

func (c *Config) GetString(key string) string          { return c.v.GetString(key) }
func (c *Config) GetInt(key string) int                { return c.v.GetInt(key) }
func (c *Config) GetFloat64(key string) float64        { return c.v.GetFloat64(key) }
func (c *Config) GetBool(key string) bool              { return c.v.GetBool(key) }
func (c *Config) GetDuration(key string) time.Duration { return c.v.GetDuration(key) }
func (c *Config) GetStringSlice(key string) []string   { return c.v.GetStringSlice(key) }
func (c *Config) IsSet(key string) bool                { return c.v.IsSet(key) }

// Sub returns the subtree rooted at key, or an empty Config when absent.
func (c *Config) Sub(key string) *Config {
	return New(c.v.Sub(key))
}

// Unmarshal decodes the whole config into target using mapstructure tags.
func (c *Config) Unmarshal(target any) error {
	return c.v.Unmarshal(target)
}

// Viper returns the underlying viper instance.
func (c *Config) Viper() *viper.Viper {
	return c.v
}

// SetDefaults registers the built-in defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", "8787")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.development", false)

	v.SetDefault("plugins.linkstate.enabled", true)
	v.SetDefault("plugins.linkstate.debounce_delay", "250ms")
	v.SetDefault("plugins.linkstate.poll_interval", "500ms")
	v.SetDefault("plugins.linkstate.poll_timeout", "5s")
	v.SetDefault("plugins.linkstate.stable_states", []string{
		"Connected", "Disconnected", "Non-operational", "Operational",
	})
	v.SetDefault("plugins.linkstate.include_loopback", false)
	v.SetDefault("plugins.linkstate.link_signals", true)
	v.SetDefault("plugins.linkstate.inventory_command", []string{"netsh", "interface", "show", "interface"})
	v.SetDefault("plugins.linkstate.refresh_rate", 2.0)
	v.SetDefault("plugins.linkstate.refresh_burst", 4)
	v.SetDefault("plugins.linkstate.mqtt.topic", "netswitch/interfaces")
	v.SetDefault("plugins.linkstate.mqtt.client_id", "netswitch")
}

// Load reads configuration from path (if non-empty) on top of the defaults
// and NETSWITCH_* environment overrides. Without an explicit path it looks
// for netswitch.yaml in the working directory and /etc/netswitch, and a
// missing file there is not an error.
func Load(path string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
		return v, nil
	}

	v.SetConfigName("netswitch")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/netswitch")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

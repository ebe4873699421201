// Package config loads NIC Commander settings through viper and exposes them
// behind a small read-only interface that modules receive at Init.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to environment overrides, e.g. NICCOMMANDER_SERVER_PORT.
const EnvPrefix = "NICCOMMANDER"

// Config is the read-only view of configuration handed to modules.
type Config interface {
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	GetFloat64(key string) float64
	GetDuration(key string) time.Duration
	IsSet(key string) bool
	Sub(key string) Config
	Unmarshal(target any) error
}

// Compile-time interface guard.
var _ Config = (*ViperConfig)(nil)

// ViperConfig adapts a *viper.Viper to Config. A nil viper behaves as empty.
type ViperConfig struct {
	v *viper.Viper
}

// New wraps v. Passing nil yields an empty configuration.
func New(v *viper.Viper) *ViperConfig {
	if v == nil {
		v = viper.New()
	}
	return &ViperConfig{v: v}
}

func (c *ViperConfig) GetString(key string) string          { return c.v.GetString(key) }
func (c *ViperConfig) GetInt(key string) int                { return c.v.GetInt(key) }
func (c *ViperConfig) GetBool(key string) bool              { return c.v.GetBool(key) }
func (c *ViperConfig) GetFloat64(key string) float64        { return c.v.GetFloat64(key) }
func (c *ViperConfig) GetDuration(key string) time.Duration { return c.v.GetDuration(key) }
func (c *ViperConfig) IsSet(key string) bool                { return c.v.IsSet(key) }

// Sub returns the subtree at key, or an empty Config when the key is missing.
func (c *ViperConfig) Sub(key string) Config {
	sub := c.v.Sub(key)
	if sub == nil {
		return New(nil)
	}
	return New(sub)
}

// Unmarshal decodes the whole configuration into target using mapstructure tags.
func (c *ViperConfig) Unmarshal(target any) error {
	return c.v.Unmarshal(target)
}

// Viper exposes the underlying instance for callers that need viper directly.
func (c *ViperConfig) Viper() *viper.Viper {
	return c.v
}

// SetDefaults registers the defaults every deployment starts from.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "5000")
	v.SetDefault("server.rate_limit.rps", 5.0)
	v.SetDefault("server.rate_limit.burst", 10)
	v.SetDefault("database.path", "niccommander.db")
	v.SetDefault("database.busy_timeout", "5s")
	v.SetDefault("database.durable", false)
	v.SetDefault("log.development", false)
	v.SetDefault("log.level", "info")

	v.SetDefault("plugins.nic.enabled", true)
	v.SetDefault("plugins.nic.max_interfaces", 8)
	v.SetDefault("plugins.nic.sysfs_root", "/sys/class/net")

	v.SetDefault("plugins.probe.enabled", true)
	v.SetDefault("plugins.probe.backend", "exec")
	v.SetDefault("plugins.probe.timeout", "30s")
	v.SetDefault("plugins.probe.max_count", 100)

	v.SetDefault("plugins.discovery.enabled", true)
	v.SetDefault("plugins.discovery.backend", "exec")
	v.SetDefault("plugins.discovery.concurrency", 64)
	v.SetDefault("plugins.discovery.host_timeout", "1s")
	v.SetDefault("plugins.discovery.dns_timeout", "500ms")
	v.SetDefault("plugins.discovery.resolve_first", false)
	v.SetDefault("plugins.discovery.history_limit", 500)
}

// Load reads the YAML file at path (optional) on top of defaults and
// NICCOMMANDER_* environment overrides.
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

	v.SetConfigName("niccommander")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/niccommander")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

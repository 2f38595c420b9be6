package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultAddress            = "0.0.0.0"
	defaultPort               = 8080
	defaultDBPath             = "./.inbox"
	defaultReadTimeout        = 10 * time.Second
	defaultIdleTimeout        = 30 * time.Second
	defaultMaxRequestBodySize = 1 * 1024 * 1024 // 1 MiB
	defaultCacheSize          = 8 * 1024 * 1024 // 8 MiB

	defaultNotifyKind    = "log"
	defaultNotifyTimeout = 5 * time.Second
	defaultServiceName   = "Membrane"

	defaultReminderCron   = "0 9 * * *" // daily at 09:00
	defaultReminderMinAge = time.Hour

	defaultInboundRPS   = 20
	defaultInboundBurst = 40
)

// NotifyKinds lists the accepted values of notify.kind.
var NotifyKinds = []string{"none", "log", "webhook"}

// Addr returns the HTTP server address as host:port.
func (c *Config) Addr() string {
	addr := c.Server.Address
	if addr == "" {
		addr = defaultAddress
	}
	port := c.Server.Port
	if port == 0 {
		port = defaultPort
	}
	return fmt.Sprintf("%s:%d", addr, port)
}

// LoadConfigFile reads and parses a config file.
func LoadConfigFile(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// ApplyDefaults fills every unset value with its default. It never
// overrides a value that was set explicitly.
func (c *Config) ApplyDefaults() {
	if c.Server.DBPath == "" {
		c.Server.DBPath = defaultDBPath
	}
	if c.Server.ReadTimeout.Duration() == 0 {
		c.Server.ReadTimeout = Duration(defaultReadTimeout)
	}
	if c.Server.IdleTimeout.Duration() == 0 {
		c.Server.IdleTimeout = Duration(defaultIdleTimeout)
	}
	if c.Server.MaxRequestBodySize == 0 {
		c.Server.MaxRequestBodySize = SizeBytes(defaultMaxRequestBodySize)
	}

	if c.Store.CacheSize == 0 {
		c.Store.CacheSize = SizeBytes(defaultCacheSize)
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	if c.Notify.Kind == "" {
		c.Notify.Kind = defaultNotifyKind
	}
	if c.Notify.Timeout.Duration() == 0 {
		c.Notify.Timeout = Duration(defaultNotifyTimeout)
	}
	if c.Notify.ServiceName == "" {
		c.Notify.ServiceName = defaultServiceName
	}

	if c.Reminder.Cron == "" {
		c.Reminder.Cron = defaultReminderCron
	}
	if c.Reminder.MinAge.Duration() == 0 {
		c.Reminder.MinAge = Duration(defaultReminderMinAge)
	}

	if c.Inbound.RateLimit.RPS <= 0 {
		c.Inbound.RateLimit.RPS = defaultInboundRPS
	}
	if c.Inbound.RateLimit.Burst <= 0 {
		c.Inbound.RateLimit.Burst = defaultInboundBurst
	}
}

// ResolveConfigPath returns the config file path, preferring flag, then env.
func ResolveConfigPath(flagPath string, flagSet bool) string {
	if flagSet {
		return flagPath
	}
	if p := os.Getenv("INBOX_CONFIG"); p != "" {
		return p
	}
	return flagPath
}

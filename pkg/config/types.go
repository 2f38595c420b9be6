package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// Config is the main configuration struct.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
	Logging  LoggingConfig  `yaml:"logging"`
	Notify   NotifyConfig   `yaml:"notify"`
	Reminder ReminderConfig `yaml:"reminder"`
	Inbound  InboundConfig  `yaml:"inbound"`
}

// ServerConfig holds http listener settings.
type ServerConfig struct {
	Address            string    `yaml:"address"`
	Port               int       `yaml:"port"`
	DBPath             string    `yaml:"db_path"`
	ReadTimeout        Duration  `yaml:"read_timeout"`
	IdleTimeout        Duration  `yaml:"idle_timeout"`
	MaxRequestBodySize SizeBytes `yaml:"max_request_body_size"`
}

// StoreConfig tunes the pebble store.
type StoreConfig struct {
	// Sync forces an fsync on every committed batch.
	Sync       bool      `yaml:"sync"`
	DisableWAL bool      `yaml:"disable_wal"`
	CacheSize  SizeBytes `yaml:"cache_size"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// NotifyConfig selects the out-of-band transport used to reach the responder.
type NotifyConfig struct {
	Kind        string   `yaml:"kind"` // none | log | webhook
	WebhookURL  string   `yaml:"webhook_url"`
	Timeout     Duration `yaml:"timeout"`
	ServiceName string   `yaml:"service_name"`
	// ChannelWebhooks lets http(s) channel keys receive outbound tells.
	ChannelWebhooks bool `yaml:"channel_webhooks"`
}

// ReminderConfig controls the pending-question digest.
type ReminderConfig struct {
	Enabled bool     `yaml:"enabled"`
	Cron    string   `yaml:"cron"`
	MinAge  Duration `yaml:"min_age"`
}

// InboundConfig limits the reply hook and the blocking ask endpoint.
type InboundConfig struct {
	RateLimit struct {
		RPS   float64 `yaml:"rps"`
		Burst int     `yaml:"burst"`
	} `yaml:"rate_limit"`
}

// SizeBytes represents a number of bytes, unmarshaled from human-friendly strings like "64MB" or plain integers.
type SizeBytes int64

func (s *SizeBytes) UnmarshalYAML(node *yaml.Node) error {
	if node == nil {
		*s = 0
		return nil
	}
	v, err := parseSizeBytes(node.Value)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func (s SizeBytes) Int64() int64 { return int64(s) }

func (s SizeBytes) String() string { return humanize.IBytes(uint64(s)) }

func parseSizeBytes(raw string) (SizeBytes, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return SizeBytes(i), nil
	}
	if v, err := humanize.ParseBytes(raw); err == nil {
		return SizeBytes(v), nil
	}
	return 0, fmt.Errorf("invalid size value: %q", raw)
}

// Duration is a wrapper around time.Duration that supports YAML parsing from strings like "100ms" or plain numbers (interpreted as seconds).
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node == nil {
		*d = Duration(0)
		return nil
	}
	v, err := parseDuration(node.Value)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

func (d Duration) Duration() time.Duration { return time.Duration(d) }

func parseDuration(raw string) (Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	if td, err := time.ParseDuration(raw); err == nil {
		return Duration(td), nil
	}
	// allow numeric seconds
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return Duration(time.Duration(f * float64(time.Second))), nil
	}
	return 0, fmt.Errorf("invalid duration value: %q", raw)
}

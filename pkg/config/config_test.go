package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigFileParsesDurationsAndSizes(t *testing.T) {
	path := writeConfig(t, `
server:
  address: 127.0.0.1
  port: 9090
  db_path: /tmp/inbox
  read_timeout: 2.5
  max_request_body_size: 2MiB
store:
  cache_size: 64MB
notify:
  kind: webhook
  webhook_url: https://hooks.example.com/inbox
  timeout: 750ms
reminder:
  enabled: true
  cron: "*/15 * * * *"
  min_age: 30m
`)
	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9090", cfg.Addr())
	assert.Equal(t, 2500*time.Millisecond, cfg.Server.ReadTimeout.Duration())
	assert.Equal(t, int64(2*1024*1024), cfg.Server.MaxRequestBodySize.Int64())
	assert.Equal(t, int64(64_000_000), cfg.Store.CacheSize.Int64())
	assert.Equal(t, 750*time.Millisecond, cfg.Notify.Timeout.Duration())
	assert.Equal(t, 30*time.Minute, cfg.Reminder.MinAge.Duration())
}

func TestLoadConfigFileRejectsBadDuration(t *testing.T) {
	path := writeConfig(t, "notify:\n  timeout: soon\n")
	_, err := LoadConfigFile(path)
	require.Error(t, err)
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Notify.Kind = "none"
	cfg.ApplyDefaults()

	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
	assert.Equal(t, "none", cfg.Notify.Kind)
	assert.Equal(t, defaultServiceName, cfg.Notify.ServiceName)
	assert.Equal(t, defaultReminderCron, cfg.Reminder.Cron)
	assert.Equal(t, float64(defaultInboundRPS), cfg.Inbound.RateLimit.RPS)
}

func TestApplyEnvOverlays(t *testing.T) {
	env := map[string]string{
		"INBOX_ADDR":             "localhost:7000",
		"INBOX_NOTIFY_KIND":      "WEBHOOK",
		"INBOX_REMINDER_ENABLED": "yes",
		"INBOX_STORE_CACHE_SIZE": "16MiB",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
	cfg := &Config{}
	used, err := applyEnv(cfg, lookup)
	require.NoError(t, err)
	assert.True(t, used)
	assert.Equal(t, "localhost", cfg.Server.Address)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "webhook", cfg.Notify.Kind)
	assert.True(t, cfg.Reminder.Enabled)
	assert.Equal(t, int64(16*1024*1024), cfg.Store.CacheSize.Int64())
}

func TestApplyEnvReportsBadValues(t *testing.T) {
	lookup := func(k string) (string, bool) {
		if k == "INBOX_PORT" {
			return "eighty", true
		}
		return "", false
	}
	_, err := applyEnv(&Config{}, lookup)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INBOX_PORT")
}

func TestLoadEffectiveConfigFlagsWin(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9000\n  db_path: /from/file\n")
	flags, err := ParseConfigFlags([]string{"--config", path, "--db", "/from/flag"})
	require.NoError(t, err)

	eff, err := LoadEffectiveConfig(flags)
	require.NoError(t, err)
	assert.Equal(t, "/from/flag", eff.DBPath)
	assert.Equal(t, "0.0.0.0:9000", eff.Addr)
	assert.Contains(t, eff.Sources, "config")
	assert.Contains(t, eff.Sources, "flags")
}

func TestLoadEffectiveConfigMissingExplicitFile(t *testing.T) {
	flags, err := ParseConfigFlags([]string{"--config", filepath.Join(t.TempDir(), "nope.yaml")})
	require.NoError(t, err)
	_, err = LoadEffectiveConfig(flags)
	require.Error(t, err)
}

func TestValidateConfig(t *testing.T) {
	base := func() EffectiveConfigResult {
		cfg := &Config{}
		cfg.ApplyDefaults()
		return EffectiveConfigResult{Config: cfg, DBPath: cfg.Server.DBPath, Addr: cfg.Addr()}
	}

	require.NoError(t, ValidateConfig(base()))

	eff := base()
	eff.Config.Notify.Kind = "carrier-pigeon"
	require.Error(t, ValidateConfig(eff))

	eff = base()
	eff.Config.Notify.Kind = "webhook"
	eff.Config.Notify.WebhookURL = "not a url"
	require.Error(t, ValidateConfig(eff))

	eff = base()
	eff.Config.Reminder.Enabled = true
	eff.Config.Reminder.Cron = "every tuesday"
	require.Error(t, ValidateConfig(eff))

	eff = base()
	eff.DBPath = ""
	require.Error(t, ValidateConfig(eff))
}

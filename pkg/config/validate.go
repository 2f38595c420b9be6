package config

import (
	"fmt"
	"net/url"
	"slices"

	"github.com/adhocore/gronx"
)

// set defaults, fail fast on critical errors
func ValidateConfig(eff EffectiveConfigResult) error {
	cfg := eff.Config
	if cfg == nil {
		return fmt.Errorf("effective config is nil")
	}
	if eff.DBPath == "" {
		return fmt.Errorf("database path is empty: set --db flag, INBOX_DB_PATH env, or server.db_path in config")
	}
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", cfg.Server.Port)
	}

	if !slices.Contains(NotifyKinds, cfg.Notify.Kind) {
		return fmt.Errorf("notify.kind must be one of %v, got %q", NotifyKinds, cfg.Notify.Kind)
	}
	if cfg.Notify.Kind == "webhook" {
		u, err := url.Parse(cfg.Notify.WebhookURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("notify.webhook_url must be an absolute http(s) url when notify.kind is webhook")
		}
	}

	if cfg.Reminder.Enabled {
		if cfg.Notify.Kind == "none" {
			return fmt.Errorf("reminder.enabled requires a notify.kind other than none")
		}
		if !gronx.New().IsValid(cfg.Reminder.Cron) {
			return fmt.Errorf("invalid reminder.cron: not a valid cron expression")
		}
	}
	return nil
}

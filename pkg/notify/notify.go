package notify

import (
	"context"
	"fmt"

	"github.com/valyala/fasthttp"

	"github.com/membrane-io/user/pkg/config"
	"github.com/membrane-io/user/pkg/inbox"
	"github.com/membrane-io/user/pkg/logger"
)

// Noop drops every notification. The inbox still works; the responder just
// has to read it through the API.
type Noop struct{}

func (Noop) Notify(context.Context, string, string) error { return nil }

// Log writes notifications to the process log. Useful in development.
type Log struct{}

func (Log) Notify(_ context.Context, subject, body string) error {
	logger.Info("notification", "subject", subject, "body", body)
	return nil
}

// New builds the notifier selected by cfg.Kind. client may be nil.
func New(cfg config.NotifyConfig, client *fasthttp.Client) (inbox.Notifier, error) {
	switch cfg.Kind {
	case "", "none":
		return Noop{}, nil
	case "log":
		return Log{}, nil
	case "webhook":
		if cfg.WebhookURL == "" {
			return nil, fmt.Errorf("notify: webhook_url is required for kind webhook")
		}
		return NewWebhook(cfg.WebhookURL, cfg.Timeout.Duration(), client), nil
	default:
		return nil, fmt.Errorf("notify: unknown kind %q", cfg.Kind)
	}
}

package notify

import (
	"context"
	"net/url"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/membrane-io/user/pkg/inbox"
	"github.com/membrane-io/user/pkg/models"
)

// WebhookChannel is a conversation channel addressed by an http(s) URL.
// Outbound thread messages are posted back to that URL.
type WebhookChannel struct {
	URL         string
	DisplayName string
	p           poster
}

// NewWebhookChannel returns a channel for rawURL, or false when rawURL is
// not an absolute http(s) URL.
func NewWebhookChannel(rawURL, name string, timeout time.Duration, client *fasthttp.Client) (*WebhookChannel, bool) {
	if !IsWebhookURL(rawURL) {
		return nil, false
	}
	return &WebhookChannel{URL: rawURL, DisplayName: name, p: newPoster(rawURL, timeout, client)}, true
}

// IsWebhookURL reports whether s is an absolute http or https URL.
func IsWebhookURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func (c *WebhookChannel) Key() string { return c.URL }

func (c *WebhookChannel) Name() string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	return c.URL
}

// TellPayload is the JSON body posted to a webhook channel.
type TellPayload struct {
	Message string `json:"message"`
}

func (c *WebhookChannel) Tell(ctx context.Context, message string) error {
	return c.p.post(ctx, TellPayload{Message: message})
}

// Channel builds the channel for a caller-supplied key. URL keys become
// webhook channels when enabled; anything else is a key-only channel.
func Channel(key, name string, webhooks bool, timeout time.Duration, client *fasthttp.Client) models.Channel {
	if key == "" {
		return nil
	}
	if webhooks {
		if ch, ok := NewWebhookChannel(key, name, timeout, client); ok {
			return ch
		}
	}
	return models.KeyChannel{ID: key, DisplayName: name}
}

// Resolver restores webhook channels for threads loaded from disk.
func Resolver(webhooks bool, timeout time.Duration, client *fasthttp.Client) inbox.ChannelResolver {
	return func(key, name string) models.Channel {
		return Channel(key, name, webhooks, timeout, client)
	}
}

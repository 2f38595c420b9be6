package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"
)

const defaultTimeout = 5 * time.Second

var defaultClient = &fasthttp.Client{
	Name:                "inboxd",
	MaxConnsPerHost:     16,
	MaxIdleConnDuration: time.Minute,
}

// poster sends JSON payloads to one URL.
type poster struct {
	url     string
	timeout time.Duration
	client  *fasthttp.Client
}

func newPoster(url string, timeout time.Duration, client *fasthttp.Client) poster {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if client == nil {
		client = defaultClient
	}
	return poster{url: url, timeout: timeout, client: client}
}

func (p poster) post(ctx context.Context, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	timeout := p.timeout
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < timeout {
			timeout = left
		}
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(p.url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	if err := p.client.DoTimeout(req, resp, timeout); err != nil {
		return fmt.Errorf("post %s: %w", p.url, err)
	}
	if code := resp.StatusCode(); code < 200 || code >= 300 {
		return fmt.Errorf("post %s: unexpected status %d", p.url, code)
	}
	return nil
}

// Payload is the JSON body a Webhook notifier sends.
type Payload struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Webhook posts each notification as JSON to a fixed URL. Replies come back
// through the inbound endpoint with the subject intact.
type Webhook struct {
	p poster
}

func NewWebhook(url string, timeout time.Duration, client *fasthttp.Client) *Webhook {
	return &Webhook{p: newPoster(url, timeout, client)}
}

func (w *Webhook) Notify(ctx context.Context, subject, body string) error {
	return w.p.post(ctx, Payload{Subject: subject, Body: body})
}

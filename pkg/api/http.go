package api

import (
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/membrane-io/user/pkg/inbox"
	"github.com/membrane-io/user/pkg/models"
	"github.com/membrane-io/user/pkg/notify"
	"github.com/membrane-io/user/pkg/router"
)

// Options wires the HTTP surface to an inbox.
type Options struct {
	Inbox *inbox.Service
	// ChannelWebhooks turns http(s) channel keys into webhook channels.
	ChannelWebhooks bool
	WebhookTimeout  time.Duration
	WebhookClient   *fasthttp.Client
	// RPS and Burst limit /v1/ask and /v1/inbound per client IP.
	RPS   float64
	Burst int
}

// Handlers serves the inbox over HTTP.
type Handlers struct {
	inbox   *inbox.Service
	opts    Options
	limiter *limiterPool
}

func New(opts Options) *Handlers {
	return &Handlers{
		inbox:   opts.Inbox,
		opts:    opts,
		limiter: newLimiterPool(opts.RPS, opts.Burst),
	}
}

// Close stops the limiter's cleanup loop.
func (h *Handlers) Close() { h.limiter.Close() }

func (h *Handlers) channel(key, name string) models.Channel {
	return notify.Channel(key, name, h.opts.ChannelWebhooks, h.opts.WebhookTimeout, h.opts.WebhookClient)
}

// RegisterRoutes wires all API routes onto r.
func (h *Handlers) RegisterRoutes(r *router.Router) {
	// caller entry points
	r.POST("/v1/tell", h.Tell)
	r.POST("/v1/ask", h.limiter.limit(h.Ask))
	r.POST("/v1/inbound", h.limiter.limit(h.Inbound))

	// root
	r.GET("/v1/root", h.Root)
	r.POST("/v1/root/read", h.MarkAllRead)

	// threads
	r.GET("/v1/threads", h.ListThreads)
	r.GET("/v1/threads/{id}", h.ReadThread)
	r.POST("/v1/threads/{id}/read", h.MarkThreadRead)
	r.POST("/v1/threads/{id}/tell", h.ThreadTell)
	r.GET("/v1/threads/{id}/messages", h.ListThreadMessages)
	r.GET("/v1/threads/{id}/messages/{mid}", h.ReadThreadMessage)

	// messages
	r.GET("/v1/messages", h.ListMessages)
	r.GET("/v1/messages/{mid}", h.ReadMessage)
	r.POST("/v1/messages/{mid}/respond", h.Respond)

	r.GET("/metrics", fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler()))
}

// Handler returns a fasthttp handler serving only the API routes.
func (h *Handlers) Handler() fasthttp.RequestHandler {
	r := router.New()
	h.RegisterRoutes(r)
	r.NotFound(func(ctx *fasthttp.RequestCtx) {
		router.WriteJSONError(ctx, fasthttp.StatusNotFound, "not found")
	})
	return r.Handler
}

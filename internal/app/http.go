package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/membrane-io/user/pkg/logger"
	"github.com/membrane-io/user/pkg/router"
)

// printBanner logs the startup summary and build info.
func (a *App) printBanner() {
	ver := a.version
	if a.commit != "" && a.commit != "none" {
		ver += " (" + a.commit + ")"
	}
	if a.buildDate != "" && a.buildDate != "unknown" {
		ver += " @ " + a.buildDate
	}
	cfg := a.eff.Config
	items := []string{
		fmt.Sprintf("version: %s", ver),
		fmt.Sprintf("listen: %s", a.eff.Addr),
		fmt.Sprintf("db_path: %s", a.st.Path()),
		fmt.Sprintf("sources: %s", strings.Join(a.eff.Sources, ",")),
		fmt.Sprintf("notify: %s", cfg.Notify.Kind),
		fmt.Sprintf("max_body: %s", cfg.Server.MaxRequestBodySize),
	}
	if cfg.Reminder.Enabled {
		items = append(items, fmt.Sprintf("reminder: cron=%q min_age=%s", cfg.Reminder.Cron, cfg.Reminder.MinAge.Duration()))
	} else {
		items = append(items, "reminder: disabled")
	}
	root := a.inbox.Root()
	items = append(items,
		fmt.Sprintf("threads: %d", root.Threads),
		fmt.Sprintf("orphaned_questions: %d", root.OrphanedCount))
	logger.LogConfigSummary("inboxd", items)
}

// readyzHandlerFast reports whether the store is open and the app is serving.
func (a *App) readyzHandlerFast(ctx *fasthttp.RequestCtx) {
	if !a.st.Ready() || a.state == "shutting_down" || a.state == "stopped" {
		router.WriteJSONStatus(ctx, fasthttp.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	ver := a.version
	if ver == "" {
		ver = "dev"
	}
	router.WriteJSONStatus(ctx, fasthttp.StatusOK, map[string]string{"status": "ok", "version": ver})
}

func (a *App) healthzHandlerFast(ctx *fasthttp.RequestCtx) {
	router.WriteJSONStatus(ctx, fasthttp.StatusOK, map[string]string{"status": "ok"})
}

// handler builds the full route table.
func (a *App) handler() fasthttp.RequestHandler {
	r := router.New()
	r.GET("/healthz", a.healthzHandlerFast)
	r.GET("/readyz", a.readyzHandlerFast)
	a.api.RegisterRoutes(r)
	r.NotFound(func(ctx *fasthttp.RequestCtx) {
		router.WriteJSONError(ctx, fasthttp.StatusNotFound, "not found")
	})
	return r.Handler
}

// startHTTP builds and starts the fasthttp server, returning a channel that delivers errors.
func (a *App) startHTTP(_ context.Context) <-chan error {
	cfg := a.eff.Config
	const (
		readBufferSize = 64 * 1024 // 64 KiB read buffer per connection
		// no write timeout: /v1/ask holds the response until answered
		maxKeepaliveDuration = 2 * time.Minute
	)
	a.srvFast = &fasthttp.Server{
		Handler:              a.handler(),
		Name:                 "inboxd",
		ReadBufferSize:       readBufferSize,
		MaxRequestBodySize:   int(cfg.Server.MaxRequestBodySize.Int64()),
		ReadTimeout:          cfg.Server.ReadTimeout.Duration(),
		IdleTimeout:          cfg.Server.IdleTimeout.Duration(),
		MaxKeepaliveDuration: maxKeepaliveDuration,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.srvFast.ListenAndServe(a.eff.Addr)
	}()
	return errCh
}

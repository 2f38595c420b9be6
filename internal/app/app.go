package app

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/valyala/fasthttp"

	"github.com/membrane-io/user/internal/reminder"
	"github.com/membrane-io/user/pkg/api"
	"github.com/membrane-io/user/pkg/config"
	"github.com/membrane-io/user/pkg/inbox"
	"github.com/membrane-io/user/pkg/logger"
	"github.com/membrane-io/user/pkg/notify"
	"github.com/membrane-io/user/pkg/store"
)

// App groups server state and components.
type App struct {
	eff       config.EffectiveConfigResult
	version   string
	commit    string
	buildDate string

	st       *store.Store
	inbox    *inbox.Service
	api      *api.Handlers
	reminder *reminder.Manager

	reminderCancel context.CancelFunc
	srvFast        *fasthttp.Server
	state          string
}

// New opens the store and builds every component. It does not start the
// HTTP server or the reminder; Run does.
func New(eff config.EffectiveConfigResult, version, commit, buildDate string) (*App, error) {
	if err := config.ValidateConfig(eff); err != nil {
		return nil, err
	}
	cfg := eff.Config

	if !cfg.Store.Sync || cfg.Store.DisableWAL {
		logger.LogConfigSummary("config_durability_summary", []string{
			fmt.Sprintf("sync: %t", cfg.Store.Sync),
			fmt.Sprintf("disable_wal: %t", cfg.Store.DisableWAL),
			fmt.Sprintf("cache_size: %s", humanize.IBytes(uint64(cfg.Store.CacheSize.Int64()))),
		})
	}

	st, err := store.Open(eff.DBPath, store.Options{
		Sync:       cfg.Store.Sync,
		DisableWAL: cfg.Store.DisableWAL,
		CacheSize:  cfg.Store.CacheSize.Int64(),
	})
	if err != nil {
		return nil, err
	}

	notifier, err := notify.New(cfg.Notify, nil)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	svc, err := inbox.New(inbox.Options{
		Store:       st,
		Notifier:    notifier,
		Resolver:    notify.Resolver(cfg.Notify.ChannelWebhooks, cfg.Notify.Timeout.Duration(), nil),
		ServiceName: cfg.Notify.ServiceName,
	})
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("load inbox: %w", err)
	}

	a := &App{
		eff:       eff,
		version:   version,
		commit:    commit,
		buildDate: buildDate,
		st:        st,
		inbox:     svc,
		api: api.New(api.Options{
			Inbox:           svc,
			ChannelWebhooks: cfg.Notify.ChannelWebhooks,
			WebhookTimeout:  cfg.Notify.Timeout.Duration(),
			RPS:             cfg.Inbound.RateLimit.RPS,
			Burst:           cfg.Inbound.RateLimit.Burst,
		}),
		reminder: reminder.New(cfg.Reminder, svc, notifier, svc.ServiceName()),
		state:    "initialized",
	}
	return a, nil
}

// Run starts the reminder and the HTTP server and blocks until ctx is
// cancelled or the server fails.
func (a *App) Run(ctx context.Context) error {
	a.printBanner()
	a.reminderCancel = a.reminder.Start(ctx)

	errCh := a.startHTTP(ctx)
	a.state = "running"
	logger.Info("server_started", "addr", a.eff.Addr)

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	}
}

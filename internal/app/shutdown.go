package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/membrane-io/user/pkg/logger"
)

// Shutdown stops accepting requests, releases blocked askers, stops the
// reminder and closes the store.
func (a *App) Shutdown(ctx context.Context) error {
	a.state = "shutting_down"
	logger.Info("shutdown_requested")

	// blocked /v1/ask handlers must return before the server can drain
	a.inbox.Close()

	var firstErr error
	if a.srvFast != nil {
		done := make(chan error, 1)
		go func() { done <- a.srvFast.Shutdown() }()
		select {
		case err := <-done:
			if err != nil {
				logger.Error("http_shutdown_error", "error", err)
				firstErr = err
			}
		case <-ctx.Done():
			logger.Error("http_shutdown_timeout", "error", ctx.Err())
			firstErr = ctx.Err()
		}
	}

	if a.reminderCancel != nil {
		a.reminderCancel()
	}
	a.api.Close()

	if err := a.st.Close(); err != nil {
		logger.Error("store_close_error", "error", err)
		if firstErr == nil {
			firstErr = err
		}
	}
	if firstErr == nil {
		a.state = "stopped"
		logger.Info("shutdown_complete")
	}
	logger.Sync()
	return firstErr
}

// SetupSignalHandler returns a context cancelled on SIGINT or SIGTERM.
func SetupSignalHandler(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case s := <-sigc:
			logger.Info("signal_received", "signal", s.String(), "msg", "shutdown requested")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigc)
	}()
	return ctx, cancel
}

// Abort logs msg and err, prints them to stderr and exits the process.
func Abort(msg string, err error) {
	logger.Error("fatal", "msg", msg, "error", err)
	logger.Sync()
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	os.Exit(1)
}

package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"avaportal/internal/config"
	"avaportal/pkg/logging"

	"github.com/coreos/go-systemd/v22/daemon"
)

// readHeaderTimeout bounds slow clients before a handler runs.
const readHeaderTimeout = 10 * time.Second

// runServer listens on cfg.ListenAddr and serves handler until ctx is
// cancelled or SIGINT/SIGTERM arrives, then drains for cfg.ShutdownTimeout.
func runServer(ctx context.Context, cfg config.ServerConfig, handler http.Handler) error {
	ln, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.ListenAddr, err)
	}
	return serve(ctx, ln, cfg.ShutdownTimeout, handler)
}

func serve(ctx context.Context, ln net.Listener, shutdownTimeout time.Duration, handler http.Handler) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ErrorLog:          slog.NewLogLogger(logging.Logger("HTTP").Handler(), slog.LevelWarn),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	logging.Info("Bootstrap", "Serving avaportal on %s", ln.Addr())
	notifySystemd(daemon.SdNotifyReady)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	logging.Info("Bootstrap", "Shutting down, draining requests for up to %s", shutdownTimeout)
	notifySystemd(daemon.SdNotifyStopping)

	// ctx is already done; the drain gets its own deadline.
	drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(drainCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// notifySystemd is a no-op outside systemd.
func notifySystemd(state string) {
	sent, err := daemon.SdNotify(false, state)
	if err != nil {
		logging.Warn("Bootstrap", "sd_notify %q failed: %v", state, err)
		return
	}
	if sent {
		logging.Debug("Bootstrap", "Sent sd_notify %q", state)
	}
}

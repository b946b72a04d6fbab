package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"textgend/internal/config"
	"textgend/internal/httpapi"
	"textgend/internal/logx"
)

const shutdownGrace = 5 * time.Second

// serve loads the model, then serves the public and admin listeners until
// ctx is done or SIGINT/SIGTERM arrives. A load failure returns before any
// listener is bound.
func (a *app) serve(ctx context.Context, cfg config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc := a.newService(cfg)
	if err := svc.Start(ctx); err != nil {
		logx.Log.Error().Err(err).Str("model", cfg.Model).Str("backend", cfg.Backend).Msg("model load failed")
		return withModelHint(err)
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logx.Log.Warn().Err(err).Msg("close generator")
		}
	}()

	// Handlers join their request context with base so shutdown cancels waiting work.
	base, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()
	httpapi.SetBaseContext(base)
	httpapi.SetGenerateTimeoutSeconds(int64(cfg.GenerateTimeoutSeconds))
	httpapi.SetCORSOptions(cfg.CORSEnabled, cfg.CORSOrigins, nil, nil)

	publicLn, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return err
	}
	servers := []*http.Server{{Handler: httpapi.NewMux(svc), ReadHeaderTimeout: 10 * time.Second}}
	listeners := []net.Listener{publicLn}
	adminAddr := ""
	if cfg.AdminEnabled() {
		adminLn, err := net.Listen("tcp", cfg.AdminAddr)
		if err != nil {
			_ = publicLn.Close()
			return err
		}
		servers = append(servers, &http.Server{Handler: httpapi.NewAdminMux(svc), ReadHeaderTimeout: 10 * time.Second})
		listeners = append(listeners, adminLn)
		adminAddr = adminLn.Addr().String()
	}

	errCh := make(chan error, len(servers))
	for i := range servers {
		srv, ln := servers[i], listeners[i]
		go func() {
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
	}
	logx.Log.Info().Str("addr", publicLn.Addr().String()).Str("admin_addr", adminAddr).Str("model", cfg.Model).Msg("textgend listening")
	if a.onListen != nil {
		a.onListen(publicLn.Addr().String(), adminAddr)
	}

	var serveErr error
	select {
	case <-ctx.Done():
		logx.Log.Info().Msg("shutting down")
	case serveErr = <-errCh:
		logx.Log.Error().Err(serveErr).Msg("server error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			// Generations still running past the grace period are aborted.
			cancelBase()
			logx.Log.Warn().Err(err).Msg("graceful shutdown error")
			_ = srv.Close()
		}
	}
	return serveErr
}

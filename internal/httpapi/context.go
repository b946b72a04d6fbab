package httpapi

import (
	"context"
	"errors"
)

// errShuttingDown is the cancel cause of generations cut off by shutdown.
var errShuttingDown = errors.New("server shutting down")

// serverBaseCtx is canceled by serve when the process starts draining.
var serverBaseCtx = context.Background()

// SetBaseContext installs the shutdown context observed by generate handlers.
// A nil ctx restores Background.
func SetBaseContext(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	serverBaseCtx = ctx
}

// joinContexts derives a context from req that is also canceled, with cause
// errShuttingDown, when base is done. Request-scoped values stay reachable.
// The returned cancel must be called when the handler returns.
func joinContexts(req, base context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancelCause(req)
	stop := context.AfterFunc(base, func() { cancel(errShuttingDown) })
	return ctx, func() {
		stop()
		cancel(context.Canceled)
	}
}

// shuttingDown reports whether ctx was canceled by the base context.
func shuttingDown(ctx context.Context) bool {
	return errors.Is(context.Cause(ctx), errShuttingDown)
}

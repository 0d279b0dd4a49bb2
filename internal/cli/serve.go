package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aretw0/concierge"
	httpadapter "github.com/aretw0/concierge/pkg/adapters/http"
	"github.com/aretw0/concierge/pkg/adapters/mcp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// NewHTTPHandler returns the JSON API of the app with /metrics mounted.
func NewHTTPHandler(app *App) http.Handler {
	return httpadapter.NewHandler(app.Engine,
		httpadapter.WithLogger(app.Logger),
		httpadapter.WithMetrics(promhttp.HandlerFor(app.Registry, promhttp.HandlerOpts{})),
		httpadapter.WithVersion(concierge.Version),
	)
}

// RunServe serves the JSON API on addr until ctx is done, then drains requests.
func RunServe(ctx context.Context, app *App, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewHTTPHandler(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		app.Logger.Info("http server listening", "addr", addr, "agent", app.Engine.Agent().Name)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.Logger.Warn("graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
			return srv.Close()
		}
		app.Logger.Info("http server stopped")
		return nil
	})
	return g.Wait()
}

// Transports of the MCP server.
const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
)

// RunMCP serves the engine over MCP.
func RunMCP(ctx context.Context, app *App, transport, addr, baseURL string) error {
	srv := mcp.NewServer(app.Engine, concierge.Version, app.Logger)
	switch transport {
	case TransportStdio, "":
		app.Logger.Info("mcp server starting", "transport", TransportStdio)
		return srv.ServeStdio()
	case TransportSSE:
		return srv.ServeSSE(ctx, addr, baseURL)
	}
	return errors.New("unknown transport " + transport + ", supported: stdio, sse")
}

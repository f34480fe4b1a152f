package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"solicitudes/internal/platform/config"
	"solicitudes/internal/platform/httpserver"
	"solicitudes/internal/platform/logger"
	"solicitudes/internal/platform/metrics"
	"solicitudes/internal/platform/middleware"
	"solicitudes/internal/platform/tracing"
	"solicitudes/internal/requests/handler"
	"solicitudes/pkg/platform/httputil"
	"solicitudes/pkg/platform/middleware/admin"
	"solicitudes/pkg/platform/middleware/metadata"
	"solicitudes/pkg/platform/middleware/requesttime"
)

const serviceName = "solicitudes"

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}
}

func runServe(ctx context.Context, cfg config.Server) error {
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, serviceName, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn("tracer shutdown failed", "error", err)
		}
	}()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn("closing resources failed", "error", err)
		}
	}()

	srv := httpserver.New(ctx, cfg.Addr, otelhttp.NewHandler(newRouter(a), serviceName), log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting solicitudes", "addr", cfg.Addr, "storage", cfg.Storage.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down", "timeout", cfg.ShutdownTimeout)
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newRouter(a *app) http.Handler {
	log := a.logger
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		requesttime.Middleware,
		metadata.ClientMetadata,
		middleware.Logger(log),
		middleware.Metrics(metrics.NewHTTP(a.registry)),
		middleware.Recovery(log),
	)

	r.Get("/healthz", a.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))

	h := handler.New(a.service(), log)
	h.Register(r)
	r.Group(func(r chi.Router) {
		r.Use(admin.RequireAdminToken(a.cfg.AdminToken, log))
		h.RegisterAdmin(r)
	})
	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (a *app) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(a.health))}
	status := http.StatusOK
	for _, hc := range a.health {
		if err := hc.check(r.Context()); err != nil {
			a.logger.WarnContext(r.Context(), "health check failed", "component", hc.name, "error", err)
			resp.Checks[hc.name] = "unavailable"
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[hc.name] = "ok"
	}
	httputil.WriteJSON(w, status, resp)
}

// Package app wires the checkout service together.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/cleanwave-checkout/internal/backend"
	"github.com/xenking/cleanwave-checkout/internal/handler"
	"github.com/xenking/cleanwave-checkout/internal/session"
	"github.com/xenking/cleanwave-checkout/pkg/health"
	"github.com/xenking/cleanwave-checkout/pkg/httpmiddleware"
)

const serviceName = "checkout"

// server is the assembled HTTP stack with the background workers it needs.
type server struct {
	handler http.Handler
	health  *health.Health
	store   *session.Store
	limiter *httpmiddleware.Limiter
}

func newServer(ctx context.Context, cfg *Config, tp trace.TracerProvider, mp metric.MeterProvider) (*server, error) {
	opts := cfg.BackendOptions()
	opts.TracerProvider = tp
	opts.MeterProvider = mp
	client, err := backend.New(opts)
	if err != nil {
		return nil, errors.Wrap(err, "create backend client")
	}

	store := session.NewStore(session.Options{
		IdleTTL:     cfg.Session.IdleTTL,
		MaxSessions: cfg.Session.MaxSessions,
	})

	recorder, err := newMetrics(mp, store.Len)
	if err != nil {
		return nil, errors.Wrap(err, "create metrics")
	}

	healthSvc := health.New()
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(cfg.Health.MaxGoroutines))
	healthSvc.AddLivenessCheck("gc_pause", time.Second, health.GCPauseCheck(cfg.Health.GCPauseThreshold))
	healthSvc.AddReadinessCheck("backend", 5*time.Second, health.PingCheck(client))
	healthSvc.AddReadinessCheck("sessions", time.Second,
		health.CapacityCheck(store.Len, cfg.Session.MaxSessions),
		health.WithThresholds(1, 1),
	)

	h := handler.New(store, client, client, client, handler.WithRecorder(recorder))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("GET /readyz", healthSvc.ReadyEndpoint)
	h.Register(mux)

	limiter := httpmiddleware.NewLimiter(httpmiddleware.RateLimitConfig{
		Max:    cfg.RateLimit.Max,
		Window: cfg.RateLimit.Window,
	})

	return &server{
		handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "Authorization", httpmiddleware.HeaderRequestID},
				ExposeHeaders:    []string{"Location", httpmiddleware.HeaderRequestID},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			limiter.Middleware(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.RequestID(),
			httpmiddleware.Instrument(serviceName, httpmiddleware.MakeRouteFinder(mux), tp, mp, "/livez", "/readyz"),
			httpmiddleware.LogRequests("/livez", "/readyz"),
			httpmiddleware.Gzip(),
		),
		health:  healthSvc,
		store:   store,
		limiter: limiter,
	}, nil
}

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("backend", cfg.Backend.URL),
	)

	srv, err := newServer(ctx, cfg, m.TracerProvider(), m.MeterProvider())
	if err != nil {
		return err
	}

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		// Coupon checks and submissions wait on the backend.
		WriteTimeout:   cfg.Backend.Timeout + 5*time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
		Addr:           cfg.Addr,
		Handler:        srv.handler,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.health.Run(gctx, cfg.Health.Interval)
	})
	g.Go(func() error {
		return srv.store.Run(gctx, cfg.Session.SweepInterval)
	})
	g.Go(func() error {
		return srv.limiter.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		srv.health.SetReady(false)
		if ctx.Err() != nil {
			lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
			time.Sleep(cfg.Graceful.ReadinessDelay)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutdown")
		}
		lg.Info("Server stopped", zap.Int("open_sessions", srv.store.Len()))
		return nil
	})
	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		srv.health.SetReady(true)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})

	return g.Wait()
}

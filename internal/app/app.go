package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/marketlane/storefront/internal/api"
	"github.com/marketlane/storefront/internal/catalog"
	"github.com/marketlane/storefront/internal/checkout"
	"github.com/marketlane/storefront/internal/metrics"
	"github.com/marketlane/storefront/internal/storage/sqlite"
	"github.com/marketlane/storefront/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr()),
		zap.String("db_path", cfg.DBPath),
	)

	// SQLite ledger + embedded schema.
	store, err := sqlite.Open(ctx, cfg.DBPath, lg.Named("sqlite"))
	if err != nil {
		return errors.Wrap(err, "open store")
	}
	defer func() { _ = store.Close() }()

	if err := store.Migrate(ctx); err != nil {
		return errors.Wrap(err, "migrate")
	}

	// Metrics, catalog, checkout service, handlers.
	mtr := metrics.New(cfg.AppName)
	cat := catalog.Default()
	checkoutSvc := checkout.NewService(cat, store, mtr)
	h := api.NewHandler(cat, checkoutSvc, store, mtr)

	// Observe must wrap the mux directly: otelhttp clones the request, so a
	// route pattern matched further in would not be visible outside of it.
	handler := httpmiddleware.Wrap(
		otelhttp.NewHandler(
			httpmiddleware.Wrap(h.Mux(), httpmiddleware.Observe(mtr)),
			"storefront",
			otelhttp.WithTracerProvider(m.TracerProvider()),
			otelhttp.WithMeterProvider(m.MeterProvider()),
		),
		httpmiddleware.Recovery(),
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(zctx.From(ctx)),
	)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr(),
		Handler:           handler,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		return nil
	})
	return g.Wait()
}

package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/olshop/online-store/internal/controller"
	"github.com/olshop/online-store/internal/domain/cart"
	"github.com/olshop/online-store/internal/domain/catalog"
	"github.com/olshop/online-store/internal/source/fakestore"
	"github.com/olshop/online-store/internal/storage/file"
	"github.com/olshop/online-store/internal/web"
	"github.com/olshop/online-store/pkg/health"
	"github.com/olshop/online-store/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("data_dir", cfg.Storage.Dir),
	)

	cache := catalog.NewCache()
	source := fakestore.NewClient(cfg.Catalog.URL)

	cartRepo := file.NewCartRepository(cfg.CartPath())
	orderRepo := file.NewOrderRepository(cfg.OrdersPath())
	store := cart.NewStore(cache)

	// Catalog fetch and cart restore run concurrently; neither failure is
	// fatal. A dead upstream leaves the cache in its error state (with the
	// local snapshot as fallback when configured), a broken slot leaves the
	// cart empty.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		loadCatalog(gctx, lg, cfg, source, cache)
		return nil
	})
	g.Go(func() error {
		lines, err := cartRepo.Load(gctx)
		if err != nil {
			lg.Warn("Cart restore failed, starting empty", zap.Error(err))
			return nil
		}
		store.Replace(lines)
		lg.Info("Cart restored", zap.Int("lines", store.Len()))
		return nil
	})
	if err := g.Wait(); err != nil {
		return errors.Wrap(err, "startup")
	}

	ctrl, err := controller.New(controller.Config{
		HandoffBase:  cfg.Handoff.BaseURL,
		HandoffPhone: cfg.Handoff.Phone,
		CloseDelay:   cfg.UI.CloseDelay,
	}, store, cartRepo, orderRepo, lg.Named("controller"), m.MeterProvider().Meter("online-store"))
	if err != nil {
		return errors.Wrap(err, "create controller")
	}

	handler, err := web.NewHandler(ctrl, cache, orderRepo)
	if err != nil {
		return errors.Wrap(err, "create web handler")
	}

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.AddReadinessCheck("catalog", time.Second, func(context.Context) error {
		return cache.LastError()
	})
	healthSvc.SetReady(true)

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	handler.Routes(mux)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(mux,
			httpmiddleware.Recovery(),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		close(shutdownDone)
	}()

	lg.Info("Store listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

// loadCatalog populates the cache from the upstream endpoint, falling back to
// the local snapshot when the fetch fails. Both failing leaves the cache in
// its error state so the page renders the failure placeholder.
func loadCatalog(ctx context.Context, lg *zap.Logger, cfg *Config, source catalog.Source, cache *catalog.Cache) {
	products, err := source.Fetch(ctx)
	if err == nil {
		cache.Replace(products)
		lg.Info("Catalog loaded", zap.Int("products", len(products)))
		return
	}
	lg.Warn("Catalog fetch failed", zap.Error(err))

	if cfg.Catalog.SnapshotFile != "" {
		products, snapErr := fakestore.ReadSnapshot(cfg.Catalog.SnapshotFile)
		if snapErr == nil {
			cache.Replace(products)
			lg.Info("Catalog loaded from snapshot",
				zap.String("file", cfg.Catalog.SnapshotFile),
				zap.Int("products", len(products)),
			)
			return
		}
		lg.Warn("Catalog snapshot read failed", zap.Error(snapErr))
	}

	cache.SetError(err)
}

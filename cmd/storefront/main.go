package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"finitefield.org/storefront/internal/platform/config"
	"finitefield.org/storefront/internal/platform/observability"
	"finitefield.org/storefront/internal/preview"
	"finitefield.org/storefront/internal/storefront"
)

func main() {
	ctx := context.Background()

	baseLogger, err := observability.NewLogger("storefront")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("storefront")
	ctx = observability.WithLogger(ctx, logger)

	cfg, err := config.Load(ctx)
	if err != nil {
		var invalid *config.ValidationError
		if errors.As(err, &invalid) {
			logger.Fatal("invalid configuration", zap.Strings("fields", invalid.Fields()))
		}
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	syncSigner := preview.NewSyncSigner(cfg.Bridge.SyncSecret, cfg.Bridge.SyncTokenTTL)
	if len(os.Args) > 1 && os.Args[1] == "sync-token" {
		if err := issueSyncToken(os.Stdout, syncSigner, os.Args[2:]); err != nil {
			logger.Fatal("failed to issue sync token", zap.Error(err))
		}
		return
	}

	store := storefront.NewStore()
	loaded, err := storefront.LoadDir(ctx, store, cfg.Content.Dir, logger.Named("content"))
	if err != nil {
		logger.Fatal("failed to load template documents", zap.Error(err))
	}
	logger.Info("template documents loaded",
		zap.Int("count", loaded),
		zap.String("dir", cfg.Content.Dir),
		zap.Strings("vendors", store.Vendors()),
	)
	if !syncSigner.Enabled() {
		logger.Warn("template sync disabled; set STOREFRONT_BRIDGE_SYNC_SECRET to enable it")
	}

	metrics, err := observability.NewBridgeMetrics(nil)
	if err != nil {
		logger.Fatal("failed to register bridge metrics", zap.Error(err))
	}

	previewHandler, err := preview.NewHandler(store, preview.Options{
		AllowedOrigins:  cfg.Bridge.AllowedOrigins,
		CommitOnUnmount: cfg.Bridge.CommitOnUnmount,
		PingInterval:    cfg.Bridge.PingInterval,
		MaxFrameBytes:   cfg.Bridge.MaxFrameBytes,
		Metrics:         metrics,
		SyncSigner:      syncSigner,
	})
	if err != nil {
		logger.Fatal("failed to initialise preview", zap.Error(err))
	}

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           newRouter(logger.Named("http"), previewHandler),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("storefront listening", zap.Strings("allowed_origins", cfg.Bridge.AllowedOrigins))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// issueSyncToken prints a template-sync token for the vendor named in args.
func issueSyncToken(w io.Writer, signer *preview.SyncSigner, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: storefront sync-token <vendor-id>")
	}
	if err := storefront.ValidateVendorID(args[0]); err != nil {
		return err
	}
	token, err := signer.Issue(args[0])
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, token)
	return err
}

func newRouter(logger *zap.Logger, previewHandler *preview.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	// RealIP trusts X-Forwarded-For; deploy behind a proxy that sets it.
	r.Use(middleware.RealIP)
	r.Use(observability.InjectLoggerMiddleware(logger))
	r.Use(observability.RecoveryMiddleware(logger))
	r.Use(observability.RequestLoggerMiddleware())

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	previewHandler.Routes(r)
	return r
}

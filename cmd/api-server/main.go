package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"coursehub/database"
	"coursehub/internal/config"
	"coursehub/internal/logging"
	"coursehub/internal/microservices/http-api/service"
	"coursehub/internal/microservices/websocket"
	"coursehub/internal/server"

	gfshutdown "github.com/gelmium/graceful-shutdown"
)

func main() {
	// 1. Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger := logging.New(cfg)

	// 2. Connect the store selected by STORE_DRIVER
	ctx := context.Background()
	stores, err := database.Open(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed_to_open_store", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}

	// 3. Token verification against the identity provider
	verifier, closeVerifier, err := newVerifier(cfg)
	if err != nil {
		logger.Error("failed_to_init_verifier", "error", err)
		os.Exit(1)
	}

	// 4. Services and realtime channel
	principalService := service.NewPrincipalService(stores.Principals)
	historyService := service.NewHistoryService(stores.Messages, stores.Principals, cfg.HistoryLimit)
	registry := websocket.NewRegistry()
	relay := websocket.NewRelay(stores.Messages, stores.Principals, registry, cfg.DirectedDelivery)
	realtime := websocket.NewHandler(registry, relay, stores.Principals, verifier, websocket.HandlerOptions{
		AllowedOrigins: cfg.CORSOrigins,
		RateLimit:      cfg.WSRateLimit,
		RateBurst:      cfg.WSRateBurst,
	})

	router := server.NewRouter(server.Deps{
		Config:     cfg,
		Verifier:   verifier,
		Principals: principalService,
		History:    historyService,
		Relay:      relay,
		Realtime:   realtime,
		Store:      stores,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server_started", "addr", srv.Addr, "store", cfg.StoreDriver, "delivery", cfg.DirectedDelivery)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server_failed", "error", err)
			os.Exit(1)
		}
	}()

	wait := gfshutdown.GracefulShutdown(ctx, cfg.ShutdownTimeout, map[string]gfshutdown.Operation{
		// hijacked websocket connections are not tracked by http.Server
		"api": func(ctx context.Context) error {
			registry.CloseAll()
			if err := srv.Shutdown(ctx); err != nil {
				return err
			}
			return stores.Close(ctx)
		},
		"verifier": func(ctx context.Context) error {
			closeVerifier()
			return nil
		},
	})

	exitCode := <-wait
	slog.Info("server_exited", "code", exitCode)
	os.Exit(exitCode)
}

// newVerifier prefers JWKS when configured and falls back to the shared secret
func newVerifier(cfg *config.Config) (service.IdentityVerifier, func(), error) {
	if cfg.AuthJWKSURL != "" {
		v, err := service.NewJWKSVerifier(cfg.AuthJWKSURL, cfg.AuthIssuer, cfg.AuthAudience)
		if err != nil {
			return nil, nil, err
		}
		return v, v.Close, nil
	}
	slog.Warn("using_shared_secret_verifier")
	return service.NewHMACVerifier(cfg.JWTSecret, cfg.AuthIssuer, cfg.AuthAudience), func() {}, nil
}

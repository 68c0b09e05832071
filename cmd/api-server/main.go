package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hackgods/saree-booking/internal/api"
	"github.com/hackgods/saree-booking/internal/app"
	"github.com/hackgods/saree-booking/internal/auth"
	"github.com/hackgods/saree-booking/internal/config"
	"github.com/hackgods/saree-booking/internal/logging"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load error", slog.Any("err", err))
		os.Exit(1)
	}

	logger := logging.New(cfg.Env, cfg.LogLevel, "api-server")
	slog.SetDefault(logger)

	logger.Info("api-server starting up",
		slog.String("env", cfg.Env),
		slog.String("http_port", cfg.HTTPPort),
		slog.String("version", version),
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	issuer, err := newIssuer(cfg, logger)
	if err != nil {
		logger.Error("auth setup failed", slog.Any("err", err))
		os.Exit(1)
	}

	// Backends are opened last so no os.Exit path skips their Close.
	deps, err := app.Open(rootCtx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer deps.Close(logger)

	router := api.NewRouter(api.RouterConfig{
		Bookings:       deps.Bookings,
		Catalog:        deps.Catalog,
		Auth:           issuer,
		HealthChecks:   deps.HealthChecks(),
		Logger:         logger,
		RequestTimeout: cfg.RequestTimeout,
		Env:            cfg.Env,
		Version:        version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error("http server error", slog.Any("err", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("err", err))
	}
	logger.Info("api-server stopped")
}

// newIssuer builds the admin token issuer. Outside prod a missing secret is
// replaced by a random one and a token is printed for local use.
func newIssuer(cfg config.Config, logger *slog.Logger) (*auth.Issuer, error) {
	secret := cfg.AdminJWTSecret
	ephemeral := false
	if secret == "" {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, err
		}
		secret = hex.EncodeToString(buf)
		ephemeral = true
	}

	issuer, err := auth.NewIssuer(secret, cfg.AdminTokenTTL)
	if err != nil {
		return nil, err
	}

	if ephemeral {
		token, err := issuer.Issue("local-admin", auth.RoleAdmin)
		if err != nil {
			return nil, err
		}
		logger.Warn("ADMIN_JWT_SECRET not set, using an ephemeral secret",
			slog.String("admin_token", token),
		)
	}
	return issuer, nil
}

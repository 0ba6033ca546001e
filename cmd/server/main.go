package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chat-app-api/internal/auth"
	"chat-app-api/internal/config"
	"chat-app-api/internal/database"
	"chat-app-api/internal/logging"
	"chat-app-api/internal/realtime"
	"chat-app-api/internal/routes"

	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.App.Env)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	db, err := database.Open(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Warn("close database", zap.Error(err))
		}
	}()

	tokens := auth.NewTokenManager(cfg.JWT)
	verifier := auth.NewTokenVerifier(tokens, db, cfg.JWT.VerifyCacheTTL, log)

	registry := realtime.NewRegistry(realtime.NewBroadcaster(log, cfg.Gateway.SelfPresence))
	gateway := realtime.NewGateway(verifier, registry, realtime.NewRelay(registry, log), log,
		realtime.WithHandshakeTimeout(cfg.Gateway.HandshakeTimeout))

	router := routes.SetupRoutes(routes.Dependencies{
		Config:   cfg,
		DB:       db,
		Tokens:   tokens,
		Verifier: verifier,
		Registry: registry,
		Gateway:  gateway,
		Logger:   log,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go verifier.Sweep(ctx, cfg.JWT.VerifyCacheTTL)

	errc := make(chan error, 1)
	go func() {
		log.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("env", string(cfg.App.Env)),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	// Websocket connections are hijacked, so srv.Shutdown does not wait for them.
	gateway.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

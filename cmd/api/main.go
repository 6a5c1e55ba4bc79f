package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"fundbridge.io/internal/auth"
	"fundbridge.io/internal/config"
	"fundbridge.io/internal/httpapi"
	"fundbridge.io/internal/merchant"
	"fundbridge.io/internal/obs"
)

var version = "0.3.1"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	obs.InitLog(obs.LogConfig{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	obs.Init()

	var db *sql.DB
	if cfg.Database.DSN != "" {
		db, err = sql.Open("pgx", cfg.Database.DSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
	}

	tokenOpts := []auth.ServiceOption{
		auth.WithIssuer(cfg.Auth.Issuer),
		auth.WithAccessTTL(cfg.Auth.AccessTTL),
	}
	if cfg.Auth.Secret != "" {
		tokenOpts = append(tokenOpts, auth.WithSecret([]byte(cfg.Auth.Secret)))
	}
	tokens, err := auth.NewService(tokenOpts...)
	if err != nil {
		log.Fatalf("token service: %v", err)
	}

	var merchants merchant.Store
	if db != nil {
		merchants, err = merchant.NewPG(db)
		if err != nil {
			log.Fatalf("merchant store: %v", err)
		}
	}

	api := httpapi.New(cfg, tokens, merchants, httpapi.ReadyProbe{DB: db}, version)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       cfg.Server.Timeout,
		ReadHeaderTimeout: cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	logger := obs.Logger()
	logger.Info().Str("addr", srv.Addr).Str("version", version).Msg("starting fundbridge-api")

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if db != nil {
		_ = db.Close()
	}
	logger.Info().Msg("stopped")
}

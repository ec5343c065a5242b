// Package main provides the live-session server binary: the websocket
// gateway plus the session coordinator backed by PostgreSQL.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/questforge/mud/internal/config"
	"github.com/questforge/mud/internal/game/admission"
	"github.com/questforge/mud/internal/gameserver"
	"github.com/questforge/mud/internal/observability"
	"github.com/questforge/mud/internal/server"
	"github.com/questforge/mud/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	dbStart := time.Now()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.Duration("elapsed", time.Since(dbStart)),
	)

	store := postgres.NewStore(pool.DB())
	workflow := admission.NewWorkflow(store, cfg.Admission.Policy(),
		observability.Component(logger, "admission"))
	verifier := gameserver.NewTokenVerifier(cfg.Auth)
	coordinator := gameserver.NewCoordinator(store, workflow, verifier,
		observability.Component(logger, "coordinator"), cfg.Websocket.SendBuffer)
	gateway := gameserver.NewGateway(cfg.Websocket, coordinator,
		observability.Component(logger, "gateway"))

	lifecycle := server.NewLifecycle(logger)
	lifecycle.Add("websocket", gateway)
	lifecycle.Add("postgres", &server.FuncService{
		StartFn: func() error {
			for {
				time.Sleep(30 * time.Second)
				if err := pool.Health(ctx, 5*time.Second); err != nil {
					logger.Warn("database health check failed", zap.Error(err))
				}
			}
		},
		StopFn: func() {
			pool.Close()
		},
	})

	logger.Info("game server initialized",
		zap.Duration("startup", time.Since(start)),
		zap.String("ws_addr", cfg.Websocket.Addr()),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

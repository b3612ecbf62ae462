package main

import (
	"context"

	"github.com/oggyb/swapcircle/internal/app"
	"github.com/oggyb/swapcircle/internal/auth"
	"github.com/oggyb/swapcircle/internal/cache"
	"github.com/oggyb/swapcircle/internal/config"
	"github.com/oggyb/swapcircle/internal/db"
	"github.com/oggyb/swapcircle/internal/logger"
	"github.com/oggyb/swapcircle/internal/server"
	"github.com/oggyb/swapcircle/internal/service/chat"
	"github.com/oggyb/swapcircle/internal/service/decision"
	"github.com/oggyb/swapcircle/internal/service/discover"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}

	// Inject logger into app context
	appCtx := app.New(database, redisCache, log)

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(database); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	identity := auth.NewProvider(cfg)

	registrars := []server.Registrar{
		discover.NewRegistrar(appCtx),
		decision.NewRegistrar(appCtx),
		chat.NewRegistrar(appCtx),
	}

	addr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	log.Info("starting HTTP server", "addr", addr)

	if err := server.StartHTTPServer(cfg, identity, registrars...); err != nil {
		log.Error("failed to start HTTP server", "err", err)
	}
}

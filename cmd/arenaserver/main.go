// Package main provides the arena server binary: the creature REST API,
// battle session websockets, and the matchmaking queue on one HTTP listener.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/arena"
	"github.com/cory-johannsen/arena/internal/config"
	"github.com/cory-johannsen/arena/internal/game/creature"
	"github.com/cory-johannsen/arena/internal/httpapi"
	"github.com/cory-johannsen/arena/internal/observability"
	"github.com/cory-johannsen/arena/internal/server"
	"github.com/cory-johannsen/arena/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	presetsPath := flag.String("presets", "", "path to preset creature YAML (overrides config)")
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

	logger.Info("starting arena server",
		zap.String("addr", cfg.Server.Addr()),
	)

	// Load the preset roster used for seeding and scripted opponents.
	path := cfg.Battle.PresetsPath
	if *presetsPath != "" {
		path = *presetsPath
	}
	presetStart := time.Now()
	presets, err := creature.LoadPresets(path)
	if err != nil {
		logger.Fatal("loading presets", zap.Error(err))
	}
	logger.Info("presets loaded",
		zap.Int("count", len(presets)),
		zap.Duration("elapsed", time.Since(presetStart)),
	)

	// Connect to PostgreSQL
	dbStart := time.Now()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.Duration("elapsed", time.Since(dbStart)),
	)

	creatureRepo := postgres.NewCreatureRepository(pool.DB())
	playerRepo := postgres.NewPlayerRepository(pool.DB())
	stateRepo := postgres.NewSessionStateRepository(pool.DB())
	queueRepo := postgres.NewQueueStateRepository(pool.DB())

	sessions := arena.NewSessionManager(arena.SessionDeps{
		Log:          logger,
		States:       stateRepo,
		Creatures:    creatureRepo,
		Players:      playerRepo,
		Presets:      presets,
		MoveTimeout:  cfg.Battle.MoveTimeout,
		CleanupDelay: cfg.Battle.CleanupDelay,
	})
	queue := arena.NewQueue(arena.QueueDeps{
		Log:           logger,
		Store:         queueRepo,
		RetryInterval: cfg.Matchmaking.RetryInterval,
		CloseDelay:    cfg.Matchmaking.CloseDelay,
	})
	wsHandler := arena.NewWSHandler(logger, sessions, queue)

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/healthz", func(c *gin.Context) {
		if err := pool.Health(c.Request.Context(), 5*time.Second); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	httpapi.NewHandler(logger, creatureRepo, presets).Register(router, wsHandler)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Wire lifecycle
	lifecycle := server.NewLifecycle(logger)

	lifecycle.Add("http", &server.FuncService{
		StartFn: func() error {
			logger.Info("HTTP server listening", zap.String("addr", httpServer.Addr))
			if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
		StopFn: func() {
			shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.Warn("http shutdown", zap.Error(err))
			}
		},
	})

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

	logger.Info("arena server initialized",
		zap.Duration("startup", time.Since(start)),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cafe_backoffice/internal/cache"
	"cafe_backoffice/internal/config"
	"cafe_backoffice/internal/database"
	"cafe_backoffice/internal/router"
	"cafe_backoffice/internal/storage"
	"cafe_backoffice/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	utils.InitLogger(cfg.LogLevel, !cfg.IsProduction())
	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			utils.LogWarn(err, "Redis unavailable, category cache disabled")
			redisClient = nil
		} else {
			defer redisClient.Close()
			utils.LogInfo("Category cache enabled", map[string]interface{}{"addr": cfg.Redis.Addr, "ttl": cfg.Redis.TTL.String()})
		}
	}

	var images *storage.S3ImageStore
	if cfg.Storage.Enabled() {
		client, err := storage.NewS3Client(ctx, cfg.Storage)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize object storage")
		}
		images = storage.NewS3ImageStore(client, cfg.Storage)
		if err := images.EnsureBucket(ctx); err != nil {
			utils.LogWarn(err, "Could not ensure image bucket", map[string]interface{}{"bucket": images.Bucket()})
		}
	} else {
		utils.LogInfo("Object storage not configured, image uploads disabled")
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(utils.GinLogger())
	engine.Use(gin.CustomRecovery(utils.RecoveryHandler))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	corsConfig.AllowCredentials = true
	engine.Use(cors.New(corsConfig))

	router.Setup(engine, router.Dependencies{
		DB:         db,
		Config:     cfg,
		Categories: cache.NewCategoryCache(redisClient, cfg.Redis.TTL),
		Images:     images,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.LogInfo("Server starting", map[string]interface{}{"port": cfg.Port, "env": cfg.Env})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	utils.LogInfo("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.LogError(err, "Graceful shutdown failed")
	}
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/eventstream/pulse/internal/cache"
	"github.com/eventstream/pulse/internal/config"
	"github.com/eventstream/pulse/internal/database"
	"github.com/eventstream/pulse/internal/handler"
	"github.com/eventstream/pulse/internal/metrics"
	"github.com/eventstream/pulse/internal/middleware"
	"github.com/eventstream/pulse/internal/repository"
	"github.com/eventstream/pulse/internal/secret"
	"github.com/eventstream/pulse/internal/service"
	"github.com/eventstream/pulse/internal/sse"
	"github.com/eventstream/pulse/internal/utils"
	"github.com/eventstream/pulse/internal/worker"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	for _, w := range cfg.Warnings {
		log.Warn().Msg(w)
	}
	log.Warn().Msg("SECRET_KEY derives the API key cipher: changing it makes every stored key unreadable (check with `pulsectl verify-keys`)")

	// 3. Connect to database and run migrations
	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}
	log.Info().Str("driver", cfg.DB.Driver).Msg("Database ready")

	// 4. Catalog cache: Redis when configured, in-process otherwise
	var kv cache.KV
	cacheKind := "memory"
	if cfg.Redis.Enabled() {
		redisClient, err := cache.NewRedisClient(&cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer redisClient.Close()
		kv, cacheKind = redisClient, "redis"
	} else {
		kv = cache.NewMemory()
	}
	catalog := cache.NewCatalogCache(kv, cfg.Redis.CacheTTL)
	log.Info().Str("cache", cacheKind).Dur("ttl", cfg.Redis.CacheTTL).Msg("Catalog cache ready")

	// 5. Initialize repositories
	adminRepo := repository.NewAdminUserRepository(db)
	appRepo := repository.NewTargetAppRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)
	keyRepo := repository.NewAPIKeyRepository(db)

	// 6. Initialize services
	cipher, err := secret.NewCipher(cfg.SecretKey)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize API key cipher")
	}
	jwt := utils.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)
	hub := sse.NewHub()
	notifier := sse.NewHubNotifier(hub)

	appSvc := service.NewTargetAppService(appRepo, catalog)
	analyticsSvc := service.NewAnalyticsService(messageRepo, analyticsRepo, notifier)
	messageSvc := service.NewMessageService(messageRepo, appRepo, analyticsSvc, catalog, notifier)
	keySvc := service.NewAPIKeyService(keyRepo, cipher)
	authSvc := service.NewAdminAuthService(adminRepo, jwt)
	eligibilitySvc := service.NewEligibilityService(service.NewCachedSource(messageRepo, catalog))
	mediaSvc := setupMedia(cfg, messageSvc)

	if bad, err := keySvc.VerifyAll(context.Background()); err != nil {
		log.Error().Err(err).Msg("Failed to verify stored API keys")
	} else if len(bad) > 0 {
		log.Error().Strs("keys", bad).Msg("Stored API keys cannot be decrypted with the current SECRET_KEY")
	}

	// 7. Initialize handlers
	handlers := &handler.Handlers{
		Health:       handler.NewHealthHandler(db, kv, cacheKind),
		Messages:     handler.NewMessageHandler(eligibilitySvc, analyticsSvc),
		Keys:         handler.NewKeyHandler(keySvc),
		Auth:         handler.NewAdminAuthHandler(authSvc),
		AdminApps:    handler.NewAdminAppHandler(appSvc),
		AdminMessage: handler.NewAdminMessageHandler(messageSvc, analyticsSvc, mediaSvc),
		AdminKeys:    handler.NewAdminKeyHandler(keySvc),
		SSE:          handler.NewSSEHandler(hub, jwt),
	}

	// 8. Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 9. Initialize middleware
	tokenMw := middleware.NewTokenMiddleware(
		service.NewTokenValidator(cfg.APIToken),
		middleware.NewInvalidAuthRateLimiter(ctx),
	)
	jwtMw := middleware.NewJWTMiddleware(jwt)

	// 10. Setup router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	metrics.MustRegister()
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handler.SetupRoutes(router, handlers, tokenMw, jwtMw)

	// 11. Start workers
	go worker.NewKeyExpiryWorker(keySvc, notifier, cfg.Worker.KeyExpiryCheckInterval).Start(ctx)

	// 12. Start HTTP server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 13. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// 14. Cancel context to stop workers
	cancel()

	// 15. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// setupMedia wires S3 uploads and optional Rekognition moderation. It returns
// nil when no bucket is configured.
func setupMedia(cfg *config.Config, messages *service.MessageService) *service.MediaService {
	if !cfg.S3.Enabled() {
		log.Info().Msg("S3 not configured, image uploads disabled")
		return nil
	}
	s3, err := service.NewS3Service(&cfg.S3)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize S3")
	}

	var moderator service.Moderator
	if cfg.Moderation.Enabled {
		rek, err := service.NewRekognitionModerator(context.Background(), cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize Rekognition")
		}
		moderator = rek
		log.Info().Float64("min_confidence", cfg.Moderation.MinConfidence).Msg("Image moderation enabled")
	}
	return service.NewMediaService(s3, moderator, messages)
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"pod-service/internal/ai"
	"pod-service/internal/auth"
	"pod-service/internal/config"
	"pod-service/internal/db"
	"pod-service/internal/handlers"
	"pod-service/internal/logger"
	"pod-service/internal/middleware"
	"pod-service/internal/observability"
	"pod-service/internal/rabbitmq"
	"pod-service/internal/recommend"
	"pod-service/internal/repositories"
	"pod-service/internal/telemetry"
	"pod-service/internal/ws"
)

func main() {
	cfg, dotenv := config.Load()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	if !dotenv {
		log.Debug("no .env file loaded")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, cfg.OTLPEndpoint, cfg.ServiceName, cfg.Environment)
	if err != nil {
		log.Warn("tracing disabled", "error", err)
		shutdownTracing = func(context.Context) error { return nil }
	}

	database, err := db.Connect(cfg.DatabaseDSN, log)
	if err != nil {
		log.Fatal("failed to connect to db", "error", err)
	}
	defer database.Close()

	podRepo := repositories.NewPodRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	profileRepo := repositories.NewProfileRepo(database)

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, log)
	log.Info("event publisher ready", "mode", rabbitmq.PublisherMode(publisher), "noop_reason", rabbitmq.PublisherNoopReason(publisher))
	emitter := telemetry.NewEventEmitter(publisher, cfg.ServiceName, cfg.Environment, log)

	aiClient := ai.NewClient(ai.Options{
		APIKey:     cfg.OpenAIAPIKey,
		BaseURL:    cfg.OpenAIBaseURL,
		Model:      cfg.OpenAIModel,
		Timeout:    cfg.AITimeout,
		MaxRetries: cfg.AIMaxRetries,
	}, log)

	var matchCache recommend.MatchCache
	if rdb := connectRedis(ctx, cfg.RedisURL, log); rdb != nil {
		defer rdb.Close()
		matchCache = recommend.NewRedisCache(rdb, log)
	}
	scorer := recommend.NewScorer(aiClient, cfg.AITimeout, log)
	recommender := recommend.NewRecommender(podRepo, profileRepo, scorer, matchCache, cfg.RecommendationCacheTTL)

	hub := ws.NewHub(podRepo, messageRepo, emitter, ws.Options{
		PongWait:  cfg.WSPongWait,
		WriteWait: cfg.WSWriteWait,
	}, log)

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, 24*time.Hour)
	podHandler := handlers.NewPodHandler(podRepo, hub)
	messageHandler := handlers.NewMessageHandler(podRepo, messageRepo, hub, emitter, aiClient, log)
	recommendationHandler := handlers.NewRecommendationHandler(recommender)
	wsHandler := ws.NewHandler(ctx, hub, cfg.CORSOrigins)

	gin.SetMode(ginMode(cfg.LogMode))
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware(cfg.CORSOrigins))
	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(observability.RequestIDMiddleware())
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/healthz", func(c *gin.Context) {
		if err := database.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authMiddleware := middleware.AuthMiddleware(jwtManager)

	router.GET("/pods", authMiddleware, podHandler.ListPods)
	router.GET("/pods/:pod_id/presence", authMiddleware, podHandler.Presence)
	router.GET("/pods/:pod_id/messages", authMiddleware, messageHandler.GetMessages)
	router.POST("/pods/:pod_id/messages", authMiddleware, messageHandler.PostMessage)
	router.POST("/pods/:pod_id/assistant", authMiddleware, messageHandler.AskAssistant)
	router.GET("/pods/:pod_id/match", authMiddleware, recommendationHandler.PodMatch)
	router.GET("/recommendations", authMiddleware, recommendationHandler.Recommendations)

	router.GET("/ws", authMiddleware, wsHandler.Handle)

	handlers.RegisterDebugRoutes(router, publisher, cfg.DebugRoutes)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("pod-service listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", "error", err)
	}
	hub.Shutdown(shutdownCtx)
	if err := publisher.Close(); err != nil {
		log.Warn("publisher close", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn("tracer shutdown", "error", err)
	}
}

func connectRedis(ctx context.Context, url string, log *logger.Logger) *redis.Client {
	if url == "" {
		log.Info("recommendation cache disabled", "reason", "REDIS_URL not set")
		return nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		log.Warn("recommendation cache disabled", "reason", "invalid REDIS_URL", "error", err)
		return nil
	}
	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Warn("recommendation cache disabled", "reason", "redis unreachable", "error", err)
		_ = rdb.Close()
		return nil
	}
	return rdb
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cors.New(cfg)
		}
	}
	cfg.AllowOrigins = origins
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	}
	return cors.New(cfg)
}

func ginMode(logMode string) string {
	if logMode == "production" {
		return gin.ReleaseMode
	}
	return gin.DebugMode
}

package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/mediaplatform/catalog-service/internal/cache"
	"github.com/mediaplatform/catalog-service/internal/config"
	"github.com/mediaplatform/catalog-service/internal/events"
	accountHandlers "github.com/mediaplatform/catalog-service/internal/http/handlers/accounts"
	mediaHandlers "github.com/mediaplatform/catalog-service/internal/http/handlers/media"
	uploadHandlers "github.com/mediaplatform/catalog-service/internal/http/handlers/uploads"
	wsHandlers "github.com/mediaplatform/catalog-service/internal/http/handlers/websocket"
	"github.com/mediaplatform/catalog-service/internal/http/middleware"
	"github.com/mediaplatform/catalog-service/internal/services/objectstore"
	"github.com/mediaplatform/catalog-service/internal/storage/postgres"
	ws "github.com/mediaplatform/catalog-service/internal/websocket"
	httpSwagger "github.com/swaggo/http-swagger"
)

func main() {
	// load config
	cfg := config.MustLoad()

	// database setup
	storage, err := postgres.NewPostgres(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	slog.Info("Connected to Postgres database")

	// redis setup; the cache and limiter are fail-open, so a missing
	// Redis degrades performance but does not block startup
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		slog.Warn("Redis unreachable at startup, continuing", slog.String("error", err.Error()))
	} else {
		slog.Info("Connected to Redis")
	}

	// websocket hub for the live view feed
	hub := ws.NewHub()
	go hub.Run()
	publisher := events.NewEventPublisher(hub)

	cacheService := cache.NewAnalyticsCache(storage, redisClient)
	rateLimitConfig := middleware.NewRateLimitConfig(redisClient)
	authRequired := middleware.AuthMiddleware(cfg.JWTSecret)

	// setup server
	router := http.NewServeMux()

	router.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Media Catalog API is running"))
	})
	router.HandleFunc("GET /ping-redis", func(w http.ResponseWriter, r *http.Request) {
		if _, err := redisClient.Ping(r.Context()).Result(); err != nil {
			http.Error(w, "Redis connection failed: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("Redis is alive!"))
	})

	router.HandleFunc("POST /auth/signup", accountHandlers.SignUp(storage))
	router.HandleFunc("POST /auth/login", accountHandlers.Login(storage, cfg.JWTSecret))

	router.Handle("POST /media", authRequired(mediaHandlers.CreateMedia(storage)))
	router.Handle("GET /media/{id}/stream-url", authRequired(mediaHandlers.StreamURL(storage, cfg.JWTSecret)))
	router.HandleFunc("GET /media/{id}/analytics", mediaHandlers.Analytics(cacheService))
	router.Handle("POST /media/{id}/view",
		rateLimitConfig.RateLimitedHandler("view", mediaHandlers.PostView(cacheService, publisher)))

	router.HandleFunc("GET /ws/media/{id}", wsHandlers.ViewFeedHandler(hub))

	router.HandleFunc("GET /cache/stats", cache.GetCacheStats(redisClient))
	router.Handle("GET /swagger/", httpSwagger.WrapHandler)

	// object storage is optional; presigned upload URLs are only
	// mounted when an endpoint is configured
	if cfg.MinIO.Endpoint != "" {
		objectStore, err := objectstore.NewService(cfg)
		if err != nil {
			log.Fatal("Failed to initialize object store:", err)
		}
		uploads := uploadHandlers.NewUploadHandlers(objectStore)
		router.Handle("POST /media/upload-url", authRequired(uploads.GenerateUploadURL()))
		router.Handle("GET /media/download-url", authRequired(uploads.GenerateDownloadURL()))
		slog.Info("Object store configured", slog.String("endpoint", cfg.MinIO.Endpoint))
	}

	server := http.Server{
		Addr:    cfg.HTTPServer.Address,
		Handler: middleware.RequestID(router),
	}

	log.Println("server started on", cfg.HTTPServer.Address)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %s", err)
		}
	}()

	<-done

	slog.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = server.Shutdown(ctx)
	if err != nil {
		slog.Error("failed to gracefully shutdown server", slog.String("error", err.Error()))
		return
	}

	slog.Info("Server stopped")
}

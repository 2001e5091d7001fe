package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/plantsinspace/backend/cmd/room-service/internal/config"
	"github.com/plantsinspace/backend/cmd/room-service/internal/handlers"
	"github.com/plantsinspace/backend/cmd/room-service/internal/models"
	"github.com/plantsinspace/backend/internal/ratelimit"
	"github.com/plantsinspace/backend/internal/storage"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Optional Redis, only used for rate limiting; the limiter fails open
	// when it is absent.
	var limiter *ratelimit.Limiter
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		limiter = ratelimit.NewLimiter(rdb, ratelimit.DefaultTrackLimits())
	}

	store, err := storage.NewTrackStore(storage.Options{
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Bucket:    cfg.S3Bucket,
		Region:    cfg.S3Region,
		UseSSL:    cfg.S3UseSSL,
	})
	if err != nil {
		log.Fatal("failed to initialize track store", zap.Error(err))
	}

	registry := models.NewRegistry()

	sockets := handlers.NewSocketServer(cfg.CORSOrigin, log)
	coordinator := models.NewCoordinator(registry, sockets, cfg.CleanupGrace, log)
	sockets.Bind(coordinator)

	r := mux.NewRouter()
	r.PathPrefix("/socket.io/").Handler(sockets.Handler())

	// Engine.IO handles CORS for the socket mount itself; the middleware
	// chain only wraps the plain HTTP surface.
	api := r.NewRoute().Subrouter()
	api.Use(handlers.RequestLogger(log), handlers.CORS(cfg.CORSOrigin))
	api.HandleFunc("/health", handlers.HealthCheck).Methods("GET")
	api.HandleFunc("/api/rooms/{roomId}/status", handlers.RoomStatus(registry)).Methods("GET")
	api.HandleFunc("/api/tracks/{trackId}", handlers.DownloadTrack(store, limiter, log)).Methods("GET", "OPTIONS")

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Info("starting room service", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("listen failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down room service")

	sockets.Close()
	if err := srv.Shutdown(context.Background()); err != nil {
		log.Fatal("server forced to shutdown", zap.Error(err))
	}

	log.Info("room service exited")
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}

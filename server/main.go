package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-watermark/internal/config"
	"github.com/phambaophuc/image-watermark/internal/http/handlers"
	"github.com/phambaophuc/image-watermark/internal/http/routes"
	"github.com/phambaophuc/image-watermark/internal/logger"
	"github.com/phambaophuc/image-watermark/internal/services/queue"
	"github.com/phambaophuc/image-watermark/internal/services/storage"
	"github.com/phambaophuc/image-watermark/internal/services/watermark"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Initialize logger
	logger, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	if cfg.Log.Mode != "dev" && cfg.Log.Mode != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize services
	var store storage.JobStore
	if cfg.Redis.Enabled {
		redisClient := storage.NewRedisClient(cfg.Redis)
		defer redisClient.Close()
		store = storage.NewRedisJobStore(redisClient, cfg.Job.TTL)
	} else {
		store = storage.NewMemoryJobStore(cfg.Job.TTL)
	}

	publisher := storage.NewPublisher(cfg.Supabase, logger)
	if !publisher.Enabled() {
		logger.Info("Supabase not configured, outputs stay local")
	}

	fontDirs := cfg.Watermark.FontDirs
	if len(fontDirs) == 0 {
		fontDirs = watermark.DefaultFontDirs()
	}
	fonts := watermark.NewFontLoader(fontDirs, cfg.Watermark.DefaultFontFamily, logger)

	executor := queue.NewJobExecutor(store, publisher, fonts, logger,
		watermark.WithQuality(cfg.Watermark.JPEGQuality))
	executor.SetMaxAssetSize(cfg.Watermark.MaxAssetSize)

	if len(cfg.Watermark.AllowedRoots) == 0 {
		logger.Warn("ALLOWED_ROOTS is empty, the API will refuse every job")
	}

	dispatcher := newDispatcher(ctx, cfg, executor, logger)

	// Initialize handlers
	jobHandler := handlers.NewJobHandler(store, dispatcher, publisher, logger, cfg)

	router := routes.NewRouter(jobHandler, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Handler:      router.SetupRoutes(),
	}

	// Start server
	go func() {
		logger.Info("Starting server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Stop workers between files
	cancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	switch d := dispatcher.(type) {
	case *queue.QueueService:
		d.Close()
	case *queue.LocalDispatcher:
		d.Wait()
	}

	logger.Info("Server exited")
}

// newDispatcher starts RabbitMQ workers, falling back to in-process workers
// when the queue is disabled or unreachable.
func newDispatcher(ctx context.Context, cfg *config.Config, executor *queue.JobExecutor, logger *zap.Logger) queue.Dispatcher {
	if cfg.RabbitMQ.Enabled {
		queueService, err := queue.NewQueueService(cfg.RabbitMQ.URL, executor, logger)
		if err == nil {
			for i := 1; i <= cfg.Job.WorkerCount; i++ {
				if err := queueService.StartWorker(ctx, i); err != nil {
					logger.Error("Failed to start worker", zap.Int("worker_id", i), zap.Error(err))
				}
			}
			return queueService
		}
		logger.Warn("Failed to initialize queue service, using local workers", zap.Error(err))
	}

	local := queue.NewLocalDispatcher(executor, 0, logger)
	local.Start(ctx, cfg.Job.WorkerCount)
	return local
}

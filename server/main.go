package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/haoyuedashi/meme-text-bot/internal/annotator"
	"github.com/haoyuedashi/meme-text-bot/internal/bot"
	"github.com/haoyuedashi/meme-text-bot/internal/config"
	"github.com/haoyuedashi/meme-text-bot/internal/host"
	"github.com/haoyuedashi/meme-text-bot/internal/http/routes"
	"github.com/haoyuedashi/meme-text-bot/internal/storage"
	"github.com/haoyuedashi/meme-text-bot/pkg/utils"
)

func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Resolve the caption font once; every request reuses it.
	fonts := annotator.ResolveFont(cfg.Storage.FontsDir, logger)
	annot := annotator.New(fonts, cfg.Bot.AutoStroke, cfg.Bot.StrokeWidth, logger)

	store, err := storage.NewTempStore(cfg.Storage.TempDir, cfg.Storage.CleanupDays, logger)
	if err != nil {
		logger.Fatal("Failed to initialize temp store", zap.Error(err))
	}

	// Sweeper lives for the service's lifetime and stops on shutdown.
	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	store.StartSweeper(sweepCtx)

	hostClient := host.NewClient(cfg.Host.APIBaseURL, cfg.Host.AccessToken, time.Duration(cfg.Host.Timeout), logger)

	download := func(ctx context.Context, url string) ([]byte, error) {
		return utils.DownloadImage(ctx, url, time.Duration(cfg.Storage.DownloadTimeout), cfg.Storage.MaxDownloadSize)
	}

	memeBot := bot.New(cfg, hostClient, annot, store, download, logger)
	router := routes.NewRouter(memeBot.Router(), cfg.Server.WebhookToken, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout),
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout),
		Handler:      router.SetupRoutes(),
	}

	logger.Info("Meme text bot loaded",
		zap.String("command_prefix", cfg.Bot.CommandPrefix),
		zap.Int("cleanup_days", cfg.Storage.CleanupDays))

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
	stopSweeper()

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

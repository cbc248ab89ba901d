package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KaramanMedikalStokTakip/KSM4.1/internal/catalog"
	"github.com/KaramanMedikalStokTakip/KSM4.1/internal/pos"
	"github.com/KaramanMedikalStokTakip/KSM4.1/internal/sales"
	"github.com/KaramanMedikalStokTakip/KSM4.1/internal/server"
	"github.com/redis/go-redis/v9"
)

type Config struct {
	HTTPPort        string
	StockServerURL  string
	RedisAddr       string
	RequestTimeout  time.Duration
	UpstreamTimeout time.Duration
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		StockServerURL:  getEnv("STOCK_SERVER_URL", "http://localhost:8081"),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RequestTimeout:  30 * time.Second,
		UpstreamTimeout: 10 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	cfg := loadConfig()

	var finder catalog.Finder = catalog.NewClient(cfg.StockServerURL, cfg.UpstreamTimeout)

	// Without a Redis address every scan goes straight to the catalog.
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()
		finder = catalog.NewCachedFinder(finder, catalog.NewRedisCache(client))
		log.Printf("barcode cache enabled at %s", cfg.RedisAddr)
	}

	submitter := sales.NewClient(cfg.StockServerURL, cfg.UpstreamTimeout)
	registry := pos.NewRegistry(finder, submitter)
	router := server.NewRouter(server.NewTillHandler(registry), cfg.RequestTimeout)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("POS server starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/KaramanMedikalStokTakip/KSM4.1/internal/stock"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Config struct {
	HTTPPort        string
	DBHost          string
	DBPort          int
	DBUser          string
	DBPassword      string
	DBName          string
	MigrationsDir   string
	KafkaBrokers    []string
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	port, err := strconv.Atoi(getEnv("STOCK_DB_PORT", "5432"))
	if err != nil {
		log.Fatalf("invalid STOCK_DB_PORT: %v", err)
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = strings.Split(v, ",")
	}

	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8081"),
		DBHost:          getEnv("STOCK_DB_HOST", ""),
		DBPort:          port,
		DBUser:          getEnv("STOCK_DB_USER", "postgres"),
		DBPassword:      getEnv("STOCK_DB_PASSWORD", "postgres"),
		DBName:          getEnv("STOCK_DB_NAME", "stock"),
		MigrationsDir:   getEnv("MIGRATIONS_DIR", "./migrations"),
		KafkaBrokers:    brokers,
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

	var store stock.Store
	if cfg.DBHost != "" {
		cred := &stock.Credentials{
			Host:              cfg.DBHost,
			Port:              cfg.DBPort,
			User:              cfg.DBUser,
			Password:          cfg.DBPassword,
			DBName:            cfg.DBName,
			MigrationsDirPath: cfg.MigrationsDir,
		}
		pg, err := stock.NewPostgresStore(cred)
		if err != nil {
			log.Fatalf("failed to connect to postgres: %v", err)
		}
		if e2 := pg.RunMigrations(cred); e2 != nil {
			log.Fatalf("failed to run migrations: %v", e2)
		}
		log.Println("connected to postgres")
		store = pg
	} else {
		log.Println("STOCK_DB_HOST not set, using in-memory store")
		store = stock.NewMemoryStore()
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if len(cfg.KafkaBrokers) > 0 {
		poller := stock.NewOutboxPoller(store, cfg.KafkaBrokers...)
		defer poller.Close()
		go poller.Run(ctx)
		log.Printf("outbox poller publishing to %v", cfg.KafkaBrokers)
	}

	handler := stock.NewHandler(store)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Group(handler.Routes)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("stock server starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()

	log.Println("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}

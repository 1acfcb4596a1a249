package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/suar-net/suar-reactive/internal/config"
	"github.com/suar-net/suar-reactive/internal/database"
	"github.com/suar-net/suar-reactive/internal/handler"
	"github.com/suar-net/suar-reactive/internal/metrics"
	"github.com/suar-net/suar-reactive/internal/platform/ratelimiter"
	"github.com/suar-net/suar-reactive/internal/repository"
	"github.com/suar-net/suar-reactive/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables from OS")
	}

	logger := log.New(os.Stdout, "INFO: ", log.Ldate|log.Ltime|log.Lshortfile)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	transport, err := service.NewHTTPTransport(cfg.Transport)
	if err != nil {
		logger.Fatalf("Failed to create transport: %v", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metricsRecorder, err := metrics.NewRecorder(registry)
	if err != nil {
		logger.Fatalf("Failed to register metrics: %v", err)
	}

	deps := handler.Dependencies{
		Transport: transport,
		Recorders: []service.Recorder{metricsRecorder},
		Limiter:   ratelimiter.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst, 10*time.Minute),
		Metrics:   promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Logger:    logger,
	}

	var db *sql.DB
	if cfg.DB.Enabled() {
		db, err = database.ConnectDB(cfg.DB)
		if err != nil {
			logger.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		logger.Println("Succesfully connected to database")

		repo := repository.NewRepository(db)
		deps.DB = db
		deps.History = repo.Request()
		deps.Recorders = append(deps.Recorders, service.NewHistoryRecorder(repo.Request(), logger))
	} else {
		logger.Println("DB_HOST not set, request history disabled")
	}

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler.SetupRouter(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Printf("Server starting on port %s", cfg.Server.Port)
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Cannot run server on port %s: %v", cfg.Server.Port, err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Println("Shut down the server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatalf("Server shutdown failed: %v", err)
	}
	logger.Println("Server successfully shut down")
}

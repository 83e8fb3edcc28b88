package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rzzdr/ccr-analytics/config"
	"github.com/rzzdr/ccr-analytics/internal/kafka"
	"github.com/rzzdr/ccr-analytics/internal/risk"
	"github.com/rzzdr/ccr-analytics/pkg/api"
	"github.com/rzzdr/ccr-analytics/pkg/metrics"
	"github.com/rzzdr/ccr-analytics/pkg/utils/logger"
)

var (
	configFile = flag.String("config", config.GetConfigPath(), "Path to configuration file")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadFrom(*configFile)
	if err != nil {
		logger.GetLogger("api.main").Fatalf("Failed to load configuration: %v", err)
	}

	logger.Init(cfg.App.LogLevel, cfg.App.Environment)
	log := logger.GetLogger("api.main")
	defer log.Sync()
	log.Info("Starting CCR Analytics API Service")

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create a context that will be canceled on program termination
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	recorder := metrics.NewRecorder(prometheus.DefaultRegisterer)

	riskCalculator := risk.NewCalculator(
		risk.CalculatorConfig{
			PFEQuantile: &cfg.Exposure.PFEQuantile,
			WorkerCount: cfg.Stress.Workers,
			MaxCells:    cfg.Simulation.MaxCells,
		},
		recorder,
	)

	handlers := api.CreateHandlers(riskCalculator, cfg.Base, cfg.Stress.Scenarios)

	var publisher *kafka.ResultPublisher
	if cfg.Kafka.Enabled {
		publisher, err = kafka.NewResultPublisher(kafka.ProducerConfig{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.Topic,
			Compression:  cfg.Kafka.Compression,
			MaxAttempts:  cfg.Kafka.MaxAttempts,
			WriteTimeout: cfg.Kafka.WriteTimeout,
		}, recorder)
		if err != nil {
			log.Fatalf("Failed to create result publisher: %v", err)
		}
		handlers.WithPublisher(publisher)
	}

	apiServer := api.NewServer(
		api.Config{
			Host:           cfg.API.Host,
			Port:           cfg.API.Port,
			ReadTimeout:    cfg.API.ReadTimeout,
			WriteTimeout:   cfg.API.WriteTimeout,
			AllowedOrigins: cfg.API.AllowedOrigins,
			RateLimit:      cfg.API.RateLimit,
			RateBurst:      cfg.API.RateBurst,
		},
		handlers,
		recorder,
		prometheus.DefaultGatherer,
	)

	// Start API server
	go func() {
		if err := apiServer.Start(); err != nil {
			log.Errorf("API server error: %v", err)
			cancel()
		}
	}()

	var promServer *metrics.PrometheusServer
	if cfg.Metrics.Prometheus.Enabled && cfg.Metrics.Prometheus.Port != cfg.API.Port {
		promServer = metrics.NewPrometheusServer(cfg.Metrics.Prometheus.Port, prometheus.DefaultGatherer)
		go func() {
			if err := promServer.Start(); err != nil {
				log.Errorf("Prometheus server error: %v", err)
			}
		}()
	}

	// Wait for a termination signal or a server failure
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Infof("Received signal %v, initiating shutdown", sig)
	case <-ctx.Done():
		log.Info("API server stopped, initiating shutdown")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.API.ShutdownTimeout)
	defer shutdownCancel()

	if err := apiServer.Stop(shutdownCtx); err != nil {
		log.Errorf("API server shutdown error: %v", err)
	}

	if promServer != nil {
		if err := promServer.Stop(shutdownCtx); err != nil {
			log.Errorf("Prometheus server shutdown error: %v", err)
		}
	}

	if publisher != nil {
		if err := publisher.Close(); err != nil {
			log.Errorf("Kafka writer shutdown error: %v", err)
		}
	}

	log.Info("Shutdown complete")
}

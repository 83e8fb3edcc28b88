package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rzzdr/ccr-analytics/config"
	"github.com/rzzdr/ccr-analytics/internal/kafka"
	"github.com/rzzdr/ccr-analytics/internal/risk"
	"github.com/rzzdr/ccr-analytics/pkg/utils/logger"
)

var (
	configFile   = flag.String("config", config.GetConfigPath(), "Path to configuration file")
	profileEvery = flag.Int("profile-every", 0, "Print the EE/PFE profile every N time steps (0 disables)")
	publish      = flag.Bool("publish", false, "Publish the stress table to Kafka regardless of kafka.enabled")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadFrom(*configFile)
	if err != nil {
		logger.GetLogger("ccr.main").Fatalf("Failed to load configuration: %v", err)
	}

	logger.Init(cfg.App.LogLevel, cfg.App.Environment)
	log := logger.GetLogger("ccr.main")
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	calculator := risk.NewCalculator(
		risk.CalculatorConfig{
			PFEQuantile: &cfg.Exposure.PFEQuantile,
			WorkerCount: cfg.Stress.Workers,
			MaxCells:    cfg.Simulation.MaxCells,
		},
		nil,
	)

	analysis, err := calculator.Analyze(ctx, cfg.Base)
	if err != nil {
		log.Fatalf("Analysis failed: %v", err)
	}

	results, stressErr := calculator.RunStressTest(ctx, cfg.Base, cfg.Stress.Scenarios)
	if results == nil {
		log.Fatalf("Stress test failed: %v", stressErr)
	}
	if stressErr != nil {
		log.Warnf("Some scenarios failed: %v", stressErr)
	}

	if err := printReport(os.Stdout, analysis, results, *profileEvery); err != nil {
		log.Fatalf("Failed to write report: %v", err)
	}

	if cfg.Kafka.Enabled || *publish {
		publisher, err := kafka.NewResultPublisher(kafka.ProducerConfig{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.Topic,
			Compression:  cfg.Kafka.Compression,
			MaxAttempts:  cfg.Kafka.MaxAttempts,
			WriteTimeout: cfg.Kafka.WriteTimeout,
		}, nil)
		if err != nil {
			log.Fatalf("Failed to create result publisher: %v", err)
		}

		if err := publisher.PublishResults(ctx, results); err != nil {
			log.Errorf("Failed to publish stress results: %v", err)
		}
		if err := publisher.Close(); err != nil {
			log.Errorf("Kafka writer shutdown error: %v", err)
		}
	}

	if stressErr != nil {
		log.Sync()
		os.Exit(1)
	}
}

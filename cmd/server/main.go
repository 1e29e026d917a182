package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"wind-forecast/internal/controller"
	"wind-forecast/internal/database"
	"wind-forecast/internal/dataset"
	"wind-forecast/internal/handler"
	"wind-forecast/internal/ml"
	"wind-forecast/internal/mqtt"
	"wind-forecast/internal/services"
	"wind-forecast/pkg/config"
)

func main() {
	// Load configuration
	cfg := config.Load()

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	logger.Info("Starting wind forecast service...")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// === Model artifact ===
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		logger.Warn("Model artifact not found, creating sample model", zap.String("path", cfg.ModelPath))
		if err := ml.CreateSampleModel(cfg.ModelPath, 2); err != nil {
			logger.Fatal("Failed to create sample model", zap.Error(err))
		}
	}

	// === Optional ClickHouse store ===
	var db *database.ClickHouseDB
	if cfg.ClickHouseEnabled {
		db, err = database.NewClickHouseDB(ctx, database.ClickHouseConfig{
			Addr:     cfg.ClickHouseAddr,
			Database: cfg.ClickHouseDB,
			Username: cfg.ClickHouseUser,
			Password: cfg.ClickHousePass,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to initialize ClickHouse", zap.Error(err))
		}
		defer db.Close()
	}

	source, err := buildSource(ctx, cfg, db, logger)
	if err != nil {
		logger.Fatal("Failed to configure dataset source", zap.Error(err))
	}

	// === Forecast pipeline ===
	cache := services.NewResourceCache(source, func() (ml.Model, error) {
		return ml.LoadModel(cfg.ModelPath)
	}, logger)

	forecastConfig := services.DefaultForecastServiceConfig()
	forecastConfig.SequenceLength = cfg.SequenceLength
	forecastConfig.SequenceLengthMin = cfg.SequenceLengthMin
	forecastConfig.SequenceLengthMax = cfg.SequenceLengthMax
	forecastConfig.SequenceLengthStep = cfg.SequenceLengthStep
	forecastConfig.PredictWorkers = cfg.PredictWorkers

	var store services.ReportStore
	var runs controller.RunLister
	if db != nil {
		store = db
		runs = db
	}
	forecastService := services.NewForecastService(cache, store, forecastConfig, logger)

	// === Optional MQTT transport ===
	if cfg.MQTTEnabled {
		mqttClient, err := mqtt.NewClient(mqtt.ClientConfig{
			Broker:   cfg.MQTTBroker,
			ClientID: cfg.MQTTClientID,
			Username: cfg.MQTTUsername,
			Password: cfg.MQTTPassword,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to initialize MQTT client", zap.Error(err))
		}
		defer mqttClient.Close()

		publisher := mqtt.NewPublisher(
			mqttClient.GetNativeClient(),
			mqtt.PublisherConfig{ReportTopic: cfg.MQTTTopicReport},
			forecastService.ReportChan,
			logger,
		)
		go publisher.Start(ctx)

		controlService := services.NewControlService(forecastService, 10, logger)
		go controlService.Start(ctx)

		subscriber := mqtt.NewSubscriber(
			mqttClient.GetNativeClient(),
			mqtt.SubscriberConfig{SequenceLengthTopic: cfg.MQTTTopicSequenceLength},
			controlService.SequenceLengthChan,
			logger,
		)
		if err := subscriber.SubscribeAll(); err != nil {
			logger.Fatal("Failed to subscribe to MQTT topics", zap.Error(err))
		}
	}

	// === Initial run ===
	ds, err := cache.Dataset(ctx)
	if err != nil {
		logger.Fatal("Failed to load dataset", zap.Error(err))
	}
	logger.Info("Dataset loaded",
		zap.String("source", ds.Source),
		zap.Int("rows", ds.Len()),
		zap.String("preview", dataset.Preview(ds, 5).String()))

	if _, err := forecastService.Current(ctx); err != nil {
		logger.Fatal("Initial forecast failed", zap.Error(err))
	}

	// === HTTP API ===
	forecastController := controller.NewForecastController(forecastService, cache, runs, logger)
	router := handler.SetupRouter(forecastController, logger)

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("Wind forecast service is running",
		zap.Int("sequence_length", forecastService.SequenceLength()),
		zap.Bool("clickhouse", cfg.ClickHouseEnabled),
		zap.Bool("mqtt", cfg.MQTTEnabled))

	// === Wait for interrupt signal ===
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// === Graceful shutdown ===
	logger.Info("Shutdown signal received, stopping services...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}

	logger.Info("Shutdown complete")
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfgZap := zap.NewProductionConfig()
	cfgZap.Level.SetLevel(lvl)
	return cfgZap.Build()
}

// buildSource picks the dataset source. The ClickHouse source is seeded with
// synthetic rows on first start so the dashboard always has data.
func buildSource(ctx context.Context, cfg *config.Config, db *database.ClickHouseDB, logger *zap.Logger) (dataset.Source, error) {
	synthetic := dataset.DefaultSyntheticConfig()
	synthetic.Periods = cfg.DatasetPeriods
	synthetic.Seed = cfg.DatasetSeed

	switch cfg.DatasetSource {
	case "synthetic":
		return dataset.NewSyntheticSource(synthetic), nil

	case "csv":
		return dataset.NewCSVSource(cfg.DatasetCSVPath), nil

	case "clickhouse":
		if db == nil {
			return nil, errors.New("clickhouse source requires CLICKHOUSE_ENABLED=true")
		}
		ingest := services.NewIngestService(db, 0, logger)
		if _, err := ingest.SeedIfEmpty(ctx, dataset.NewSyntheticSource(synthetic)); err != nil {
			return nil, err
		}
		return dataset.NewStoreSource(db, 0), nil
	}
	return nil, fmt.Errorf("unknown dataset source %q", cfg.DatasetSource)
}

package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"biasev/adapters/artifact"
	"biasev/adapters/excel"
	"biasev/adapters/stats/engine"
	"biasev/app"
	"biasev/internal/config"
	"biasev/internal/logging"
	"biasev/internal/session"
	"biasev/ports"
	"biasev/ui"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(appConfig.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(appConfig, logger); err != nil {
		logger.Fatal("Server stopped with error", zap.Error(err))
	}
}

func run(appConfig *config.Config, logger *zap.Logger) error {
	gin.SetMode(appConfig.Server.GinMode)

	// A missing or broken model does not stop the server; the prediction
	// section reports the load error instead
	var severityModel ports.SeverityModel
	linear, loadErr := artifact.LoadLinearModel(appConfig.Model.Path)
	if loadErr != nil {
		logger.Warn("Severity model unavailable", zap.String("path", appConfig.Model.Path), zap.Error(loadErr))
	} else {
		severityModel = linear
		logger.Info("Severity model loaded",
			zap.String("path", appConfig.Model.Path),
			zap.Strings("features", linear.Schema().Names()))
	}

	store := session.NewMemoryStore(appConfig.Session.TTL, logger)
	statsEngine := engine.NewStatsEngine(logger)

	server, err := ui.NewServer(ui.Services{
		Datasets:    app.NewDatasetService(excel.NewDataReader(logger), store, appConfig.Data.MaxUploadBytes(), logger),
		Analysis:    app.NewAnalysisService(statsEngine, store),
		Predictions: app.NewPredictionService(severityModel, loadErr, logger),
	}, ui.Options{
		PreviewRows:    appConfig.Data.PreviewRows,
		MaxUploadBytes: appConfig.Data.MaxUploadBytes(),
		SessionTTL:     appConfig.Session.TTL,
	}, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return store.RunJanitor(ctx, time.Minute)
	})
	g.Go(func() error {
		return server.Run(ctx, ":"+appConfig.Server.Port, appConfig.Server.ShutdownTimeout)
	})
	return g.Wait()
}

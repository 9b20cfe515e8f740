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

	gcs "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/Aashish23092/loan-intake-verification/client"
	"github.com/Aashish23092/loan-intake-verification/config"
	"github.com/Aashish23092/loan-intake-verification/handler"
	"github.com/Aashish23092/loan-intake-verification/logger"
	"github.com/Aashish23092/loan-intake-verification/notify"
	"github.com/Aashish23092/loan-intake-verification/repository"
	"github.com/Aashish23092/loan-intake-verification/service"
	"github.com/Aashish23092/loan-intake-verification/session"
	"github.com/Aashish23092/loan-intake-verification/storage"
	"github.com/Aashish23092/loan-intake-verification/utils"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLog, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	if err := run(cfg, zapLog); err != nil {
		zapLog.Error("service stopped", zap.Error(err))
		_ = zapLog.Sync()
		os.Exit(1)
	}
	_ = zapLog.Sync()
}

// run wires the service and blocks until a shutdown signal or a server failure.
func run(cfg *config.Config, zapLog *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Cloud Vision doubles as the face detector, so it is created even when it is not an OCR provider
	visionClient, err := client.NewVisionClient(ctx, cfg.OCR.VisionAPIKey, cfg.OCR.VisionEndpoint)
	if err != nil {
		return fmt.Errorf("failed to create vision client: %w", err)
	}

	providers, closeProviders := buildProviders(ctx, cfg, visionClient, zapLog)
	defer closeProviders()
	extractor := client.NewChainExtractor(zapLog.Named("ocr"), providers...)

	var store session.ProfileStore
	if cfg.Redis.Enabled {
		rdb := repository.NewRedisClient(cfg.Redis)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping failed: %w", err)
		}
		store = repository.NewProfileRepository(rdb, cfg.Redis.TTL)
		zapLog.Info("profiles persisted to redis", zap.String("address", cfg.Redis.Address))
	}

	var recorder service.DecisionRecorder
	if cfg.Postgres.Enabled {
		db, err := repository.NewPostgres(cfg.Postgres)
		if err != nil {
			return fmt.Errorf("failed to open postgres: %w", err)
		}
		defer db.Close()
		decisions := repository.NewDecisionRepository(db)
		if err := decisions.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to migrate postgres: %w", err)
		}
		recorder = decisions
	}

	var notifier service.DecisionNotifier
	if cfg.Notify.Enabled {
		snsClient, err := notify.NewSNSClient(ctx, cfg.Notify.Region)
		if err != nil {
			return fmt.Errorf("failed to create SNS client: %w", err)
		}
		notifier = notify.NewSNSNotifier(snsClient, cfg.Notify.TopicARN)
	}

	var archive service.ArchiveStore
	switch cfg.Archive.Backend {
	case "gcs":
		gcsClient, err := gcs.NewClient(ctx)
		if err != nil {
			return fmt.Errorf("failed to create GCS client: %w", err)
		}
		defer gcsClient.Close()
		archive = storage.NewGCSArchive(gcsClient, cfg.Archive.GCSBucket, zapLog.Named("archive"))
	default:
		if err := os.MkdirAll(cfg.Archive.LocalRoot, 0o755); err != nil {
			return fmt.Errorf("failed to create archive root: %w", err)
		}
		archive = storage.NewLocalArchive(cfg.Archive.LocalRoot)
	}

	sessions := session.NewManager(store, zapLog.Named("session"))
	go sessions.RunEviction(ctx, cfg.Session.SweepInterval, cfg.Session.IdleTimeout)
	fields := utils.NewFieldExtractor(cfg.Extraction.Patterns, zapLog.Named("extract"))

	documentService := service.NewDocumentService(sessions, extractor, fields, service.NewPDFProcessor(), archive, zapLog.Named("documents"))
	faceService := service.NewFaceService(visionClient, client.NewFFmpegFrameSampler(cfg.Face.FFmpegPath),
		cfg.Face.FrameOffset, cfg.Face.Threshold, zapLog.Named("face"))
	eligibilityService := service.NewEligibilityService(sessions, recorder, notifier, zapLog.Named("eligibility"))
	applicationService := service.NewApplicationService(sessions, eligibilityService, faceService, zapLog.Named("applications"))

	applicationHandler := handler.NewApplicationHandler(applicationService, documentService, eligibilityService,
		cfg.OCR.Timeout, cfg.Server.MaxFileSize, zapLog.Named("http"))
	router := handler.NewRouter(applicationHandler, zapLog.Named("http"), 32<<20)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		zapLog.Info("starting loan intake verification service", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		zapLog.Info("shutting down")
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// buildProviders creates the configured OCR providers in order. The returned func
// closes the ones holding connections.
func buildProviders(ctx context.Context, cfg *config.Config, visionClient *client.VisionClient, zapLog *zap.Logger) ([]client.Provider, func()) {
	var providers []client.Provider
	var closers []func() error

	for _, name := range cfg.OCR.Providers {
		switch name {
		case "vision":
			providers = append(providers, client.Provider{Name: name, Extractor: visionClient})
		case "tesseract":
			providers = append(providers, client.Provider{
				Name:      name,
				Extractor: client.NewTesseractClient(cfg.OCR.TesseractDataPath, cfg.OCR.TesseractLanguage),
			})
		case "paddle":
			providers = append(providers, client.Provider{Name: name, Extractor: client.NewPaddleClient(cfg.OCR.PaddleURL, nil)})
		case "docai":
			docai, err := client.NewDocAIClient(ctx, cfg.OCR.DocAIProjectID, cfg.OCR.DocAILocation, cfg.OCR.DocAIProcessorID)
			if err != nil {
				zapLog.Error("document AI provider disabled", zap.Error(err))
				continue
			}
			closers = append(closers, docai.Close)
			providers = append(providers, client.Provider{Name: name, Extractor: docai})
		case "qr":
			providers = append(providers, client.Provider{Name: name, Extractor: client.NewQRClient()})
		}
	}

	names := make([]string, 0, len(providers))
	for _, p := range providers {
		names = append(names, p.Name)
	}
	zapLog.Info("OCR providers configured", zap.Strings("providers", names))

	return providers, func() {
		for _, c := range closers {
			_ = c()
		}
	}
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hasbegun/argus/internal/domain/port"
	"github.com/hasbegun/argus/internal/infra/blob"
	"github.com/hasbegun/argus/internal/infra/config"
	"github.com/hasbegun/argus/internal/infra/httpapi"
	"github.com/hasbegun/argus/internal/infra/metrics"
	"github.com/hasbegun/argus/internal/infra/ollama"
	"github.com/hasbegun/argus/internal/infra/thumbs"
	"github.com/hasbegun/argus/internal/infra/tracing"
	"github.com/hasbegun/argus/internal/infra/uploadlog"
	"github.com/hasbegun/argus/internal/infra/video"
	"github.com/hasbegun/argus/internal/usecase"
	"github.com/hasbegun/argus/pkg/logger"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	fatalOnErr(err, "load config")

	log, err := logger.New(cfg.LogLevel)
	fatalOnErr(err, "init logger")
	defer log.Sync()

	log.Info("starting argus-server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing (non-fatal if the collector is unavailable)
	tp, err := tracing.InitTracer(ctx, cfg.JaegerEndpoint, "argus-server")
	if err != nil {
		log.Warn("tracing init failed, continuing without tracing", zap.Error(err))
	} else {
		defer tp.Shutdown(ctx)
	}

	for _, dir := range []string{cfg.StorageDir, cfg.FramesDir, cfg.ThumbsDir, cfg.TempDir} {
		if dir == "" {
			continue
		}
		fatalOnErr(os.MkdirAll(dir, 0o755), "create directory "+dir)
	}

	blobs := newBlobStore(ctx, cfg)

	uploadLog, err := uploadlog.NewJSONFile(cfg.UploadLogPath)
	fatalOnErr(err, "open upload log")

	thumbnailer := thumbs.NewGenerator(cfg.ThumbnailSize)

	vision := ollama.NewClient(ollama.ClientConfig{
		Host:    cfg.OllamaHost,
		Model:   cfg.OllamaModel,
		APIKey:  cfg.OllamaAPIKey,
		Timeout: time.Duration(cfg.OllamaTimeoutSec) * time.Second,
	}, log)

	prober := video.NewProber(log)
	correctors := video.NewCorrectorFactory(cfg.OrientationMode, prober, log)
	opener := video.NewOpener(log)
	preprocessor := video.NewCLAHEPreprocessor()

	pool := usecase.NewInferencePool(cfg.InferenceWorkers)
	defer pool.Close()

	ingest := usecase.NewIngestUploadUseCase(uploadLog, blobs, thumbnailer, log, usecase.IngestUploadConfig{
		TempDir:   cfg.TempDir,
		ThumbsDir: cfg.ThumbsDir,
	})
	analyzer := usecase.NewAnalyzeVideoUseCase(opener, correctors, preprocessor, vision, pool, log, usecase.AnalyzeVideoConfig{
		PendingFrames: cfg.PendingFrames,
	})

	metricsSrv := metrics.StartMetricsServer(ctx, cfg.MetricsPort, log)

	handler := httpapi.NewHandler(ingest, analyzer, vision, log, cfg.FramesDir)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: httpapi.NewRouter(handler, cfg.FramesDir, cfg.ThumbsDir, log),
	}

	go func() {
		log.Info("argus-server listening", zap.Int("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", zap.Error(err))
			cancel()
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)
	metricsSrv.Shutdown(shutdownCtx)

	log.Info("argus-server stopped")
}

func newBlobStore(ctx context.Context, cfg *config.Config) port.BlobStore {
	switch cfg.StorageBackend {
	case "minio":
		store, err := blob.NewMinIOStore(blob.MinIOConfig{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			UseSSL:    cfg.MinIOUseSSL,
			Bucket:    cfg.MinIOBucket,
			TempDir:   cfg.TempDir,
		})
		fatalOnErr(err, "create minio store")
		fatalOnErr(store.EnsureBucket(ctx), "ensure minio bucket")
		return store
	default:
		store, err := blob.NewFilesystemStore(cfg.StorageDir)
		fatalOnErr(err, "create filesystem store")
		return store
	}
}

func fatalOnErr(err error, msg string) {
	if err != nil {
		panic(msg + ": " + err.Error())
	}
}

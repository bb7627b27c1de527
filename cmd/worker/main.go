package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hasbegun/argus/internal/domain/port"
	"github.com/hasbegun/argus/internal/infra/blob"
	"github.com/hasbegun/argus/internal/infra/config"
	"github.com/hasbegun/argus/internal/infra/email"
	"github.com/hasbegun/argus/internal/infra/metrics"
	"github.com/hasbegun/argus/internal/infra/ollama"
	"github.com/hasbegun/argus/internal/infra/postgres"
	"github.com/hasbegun/argus/internal/infra/rabbitmq"
	"github.com/hasbegun/argus/internal/infra/tracing"
	"github.com/hasbegun/argus/internal/infra/video"
	"github.com/hasbegun/argus/internal/usecase"
	"github.com/hasbegun/argus/pkg/logger"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	fatalOnErr(err, "load config")

	log, err := logger.New(cfg.LogLevel)
	fatalOnErr(err, "init logger")
	defer log.Sync()

	log.Info("starting argus-worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing (non-fatal if the collector is unavailable)
	tp, err := tracing.InitTracer(ctx, cfg.JaegerEndpoint, "argus-worker")
	if err != nil {
		log.Warn("tracing init failed, continuing without tracing", zap.Error(err))
	} else {
		defer tp.Shutdown(ctx)
	}

	for _, dir := range []string{cfg.StorageDir, cfg.FramesDir, cfg.TempDir} {
		if dir == "" {
			continue
		}
		fatalOnErr(os.MkdirAll(dir, 0o755), "create directory "+dir)
	}

	// Database
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	fatalOnErr(err, "connect to postgres")
	defer pool.Close()

	if err := postgres.RunMigrations(cfg.DatabaseURL, "migrations"); err != nil {
		log.Warn("migration warning", zap.Error(err))
	}

	blobs := newBlobStore(ctx, cfg)

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

	inferencePool := usecase.NewInferencePool(cfg.InferenceWorkers)
	defer inferencePool.Close()

	analyzer := usecase.NewAnalyzeVideoUseCase(opener, correctors, preprocessor, vision, inferencePool, log, usecase.AnalyzeVideoConfig{
		PendingFrames: cfg.PendingFrames,
	})

	// RabbitMQ publisher connection
	rmqConn, err := amqp.Dial(cfg.RabbitMQURL)
	fatalOnErr(err, "connect to rabbitmq for publisher")
	defer rmqConn.Close()

	pub, err := rabbitmq.NewPublisher(rmqConn, cfg.RabbitMQExchange)
	fatalOnErr(err, "create rabbitmq publisher")

	resultPub := rabbitmq.NewResultPublisher(pub)
	statusPub := rabbitmq.NewStatusPublisher(pub)
	dlqPub := rabbitmq.NewDLQPublisher(pub, cfg.RabbitMQDLQ)

	repo := postgres.NewJobRepository(pool)
	notifier := email.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, log)

	uc := usecase.NewProcessJobUseCase(
		repo, blobs, analyzer,
		resultPub, statusPub, dlqPub, notifier,
		log,
		usecase.ProcessJobConfig{
			FramesDir:  cfg.FramesDir,
			MaxRetries: cfg.MaxRetries,
		},
	)

	metricsSrv := metrics.StartMetricsServer(ctx, cfg.MetricsPort, log)

	consumer, err := rabbitmq.NewConsumer(rabbitmq.ConsumerConfig{
		URL:          cfg.RabbitMQURL,
		RequestQueue: cfg.RabbitMQRequestQueue,
		ResultQueue:  cfg.RabbitMQResultQueue,
		StatusQueue:  cfg.RabbitMQStatusQueue,
		Exchange:     cfg.RabbitMQExchange,
		DLQ:          cfg.RabbitMQDLQ,
		Prefetch:     cfg.RabbitMQPrefetch,
		WorkerCount:  cfg.WorkerCount,
		BaseDelayMs:  cfg.RetryBaseDelayMs,
	}, uc.Execute, log)
	fatalOnErr(err, "create consumer")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	log.Info("argus-worker started, consuming messages")

	if err := consumer.Start(ctx); err != nil {
		log.Error("consumer error", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	metricsSrv.Shutdown(shutdownCtx)

	consumer.Close()
	log.Info("argus-worker stopped")
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

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Kakar21/Videoflix-Backend/internal/domain/entity"
	"github.com/Kakar21/Videoflix-Backend/internal/domain/port"
	"github.com/Kakar21/Videoflix-Backend/internal/infra/config"
	"github.com/Kakar21/Videoflix-Backend/internal/infra/email"
	"github.com/Kakar21/Videoflix-Backend/internal/infra/ffmpeg"
	imagingfx "github.com/Kakar21/Videoflix-Backend/internal/infra/imaging"
	"github.com/Kakar21/Videoflix-Backend/internal/infra/metrics"
	miniostorage "github.com/Kakar21/Videoflix-Backend/internal/infra/minio"
	"github.com/Kakar21/Videoflix-Backend/internal/infra/postgres"
	"github.com/Kakar21/Videoflix-Backend/internal/infra/rabbitmq"
	"github.com/Kakar21/Videoflix-Backend/internal/infra/tracing"
	"github.com/Kakar21/Videoflix-Backend/internal/layout"
	"github.com/Kakar21/Videoflix-Backend/internal/usecase"
	"github.com/Kakar21/Videoflix-Backend/pkg/logger"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	fatalOnErr(err, "load config")

	log, err := logger.New(cfg.LogLevel)
	fatalOnErr(err, "init logger")
	defer log.Sync()

	log.Info("starting videoflix-transcoder")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing (non-fatal if Jaeger unavailable)
	tp, err := tracing.InitTracer(ctx, cfg.JaegerEndpoint)
	if err != nil {
		log.Warn("tracing init failed, continuing without tracing", zap.Error(err))
	} else {
		defer tp.Shutdown(ctx)
	}

	// Database
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	fatalOnErr(err, "connect to postgres")
	defer pool.Close()

	// Migrations
	err = postgres.RunMigrations(cfg.DatabaseURL, "migrations")
	if err != nil {
		log.Warn("migration warning", zap.Error(err))
	}

	// Object-store ingest is optional; most deployments share the media
	// volume with the upload service.
	var source port.SourceStorage
	if cfg.SourceFromObjectStore {
		storage, err := miniostorage.NewStorage(miniostorage.StorageConfig{
			Endpoint:     cfg.MinIOEndpoint,
			AccessKey:    cfg.MinIOAccessKey,
			SecretKey:    cfg.MinIOSecretKey,
			UseSSL:       cfg.MinIOUseSSL,
			UploadBucket: cfg.MinIOUploadBucket,
		})
		fatalOnErr(err, "create minio storage")
		fatalOnErr(storage.EnsureBucket(ctx), "ensure upload bucket")
		source = storage
	}

	// RabbitMQ publisher connection
	rmqConn, err := amqp.Dial(cfg.RabbitMQURL)
	fatalOnErr(err, "connect to rabbitmq for publisher")
	defer rmqConn.Close()

	pub, err := rabbitmq.NewPublisher(rmqConn, cfg.RabbitMQExchange)
	fatalOnErr(err, "create rabbitmq publisher")

	statusPub := rabbitmq.NewStatusPublisher(pub, cfg.RabbitMQStatusQueue)
	dlqPub := rabbitmq.NewDLQPublisher(pub, cfg.RabbitMQDLQ)

	// Infra adapters
	repo := postgres.NewJobRepository(pool)
	runner := ffmpeg.NewCommandRunner(log)
	prober := ffmpeg.NewProber(runner, cfg.FFprobeBin)
	cutter := ffmpeg.NewPreviewCutter(runner, prober, cfg.FFmpegBin, log)
	encoder := ffmpeg.NewRenditionEncoder(runner, cfg.FFmpegBin, cfg.PackagingMode, cfg.SegmentSeconds, cfg.EncodeConcurrency, log)
	thumbs := imagingfx.NewThumbnailer(cfg.ThumbnailWidth, cfg.ThumbnailHeight, cfg.ThumbnailQuality, log)
	notifier := email.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, log)
	artifactLayout := layout.New(cfg.MediaRoot)

	// Use cases
	transcodeUC := usecase.NewTranscodeVideoUseCase(
		repo, source, thumbs, cutter, encoder,
		statusPub, dlqPub, notifier,
		artifactLayout, entity.DefaultCatalog(), log,
		usecase.TranscodeConfig{
			ScratchDir:     cfg.ScratchDir,
			PreviewSeconds: cfg.PreviewSeconds,
			PackagingMode:  cfg.PackagingMode,
			MaxRetries:     cfg.MaxRetries,
		},
	)
	cleanupUC := usecase.NewCleanupVideoUseCase(artifactLayout, dlqPub, log)

	// Metrics server
	metricsSrv := metrics.StartMetricsServer(ctx, cfg.MetricsPort, log)

	// Consumer (worker pools per queue)
	consumer, err := rabbitmq.NewConsumer(rabbitmq.ConsumerConfig{
		URL:         cfg.RabbitMQURL,
		Exchange:    cfg.RabbitMQExchange,
		DLQ:         cfg.RabbitMQDLQ,
		StatusQueue: cfg.RabbitMQStatusQueue,
		Prefetch:    cfg.RabbitMQPrefetch,
		BaseDelayMs: cfg.RetryBaseDelayMs,
		Bindings: []rabbitmq.QueueBinding{
			{
				Queue:      cfg.RabbitMQTranscodeQueue,
				RoutingKey: "video.created",
				Workers:    cfg.WorkerCount,
				Handler:    transcodeUC.OnVideoCreated,
			},
			{
				Queue:      cfg.RabbitMQCleanupQueue,
				RoutingKey: "video.deleted",
				Workers:    1,
				Handler:    cleanupUC.OnVideoDeleted,
			},
		},
	}, log)
	fatalOnErr(err, "create consumer")

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	log.Info("videoflix-transcoder started, consuming events")

	if err := consumer.Start(ctx); err != nil {
		log.Error("consumer error", zap.Error(err))
	}

	// Shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	metricsSrv.Shutdown(shutdownCtx)

	consumer.Close()
	log.Info("videoflix-transcoder stopped")
}

func fatalOnErr(err error, msg string) {
	if err != nil {
		panic(msg + ": " + err.Error())
	}
}

package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/ecosort/recyclesort/config"
	kafkactrl "github.com/ecosort/recyclesort/internal/controller/kafka"
	"github.com/ecosort/recyclesort/internal/controller/restapi"
	infrakafka "github.com/ecosort/recyclesort/internal/infrastructure/kafka"
	"github.com/ecosort/recyclesort/internal/infrastructure/rekognition"
	"github.com/ecosort/recyclesort/internal/repo/persistent"
	"github.com/ecosort/recyclesort/internal/usecase/metadata"
	"github.com/ecosort/recyclesort/internal/usecase/pipeline"
	"github.com/ecosort/recyclesort/internal/usecase/resolver"
	"github.com/ecosort/recyclesort/pkg/httpserver"
	"github.com/ecosort/recyclesort/pkg/kafka/consumer"
	"github.com/ecosort/recyclesort/pkg/kafka/producer"
	"github.com/ecosort/recyclesort/pkg/logger"
	"github.com/ecosort/recyclesort/pkg/postgres"
	"github.com/ecosort/recyclesort/pkg/retry"
	"github.com/ecosort/recyclesort/pkg/s3client"
)

func Run(cfg *config.Config) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Logger
	l := logger.New(cfg.Log.Level)

	// Repository

	// s3
	s3Ctx, s3Cancel := context.WithTimeout(ctx, cfg.S3.CfgLoadTimeout)
	defer s3Cancel()
	s3c, err := s3client.New(s3Ctx, cfg.S3.Endpoint, cfg.S3.AccessKey, cfg.S3.SecretKey,
		s3client.Region(cfg.S3.Region))
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - s3client.New: %w", err))
	}

	// postgres
	pg, err := postgres.New(cfg.PG.URL, postgres.MaxPoolSize(cfg.PG.PoolMax))
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - postgres.New: %w", err))
	}
	defer pg.Close()

	objectStore := persistent.NewObjectStoreRepo(s3c, cfg.S3.Bucket)
	metadataRepo := persistent.NewMetadataRepo(pg)
	ruleRepo := persistent.NewRuleRepo(pg)

	// Rekognition
	detector, err := rekognition.New(ctx, cfg.Rekognition.Region, cfg.Rekognition.AccessKey, cfg.Rekognition.SecretKey)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - rekognition.New: %w", err))
	}

	// Kafka Producer
	kafkaProducer, err := producer.New(ctx, cfg.Kafka.Brokers)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - producer.New: %w", err))
	}

	labelsPublisher := infrakafka.NewEventPublisher(kafkaProducer, cfg.Kafka.LabelsTopic)
	resultsPublisher := infrakafka.NewEventPublisher(kafkaProducer, cfg.Kafka.ResultsTopic)

	// Use-Case

	retryPolicy := retry.New(
		retry.MaxRetries(cfg.Pipeline.MaxRetries),
		retry.InitialInterval(cfg.Pipeline.RetryInterval),
	)

	resolverUseCase := resolver.New(ruleRepo)

	pipelineUseCase := pipeline.New(
		objectStore,
		metadataRepo,
		detector,
		resolverUseCase,
		resultsPublisher,
		retryPolicy,
		cfg.Pipeline.MaxLabels,
		cfg.Pipeline.MinConfidence,
		l,
	)

	metadataUseCase := metadata.New(
		metadataRepo,
		objectStore,
		retryPolicy,
		cfg.Presign.TTL,
		l,
	)

	// Kafka Consumers
	storedConsumer, err := consumer.New(ctx, cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.StoredTopic)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - consumer.New(stored): %w", err))
	}

	labelsConsumer, err := consumer.New(ctx, cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.LabelsTopic)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - consumer.New(labels): %w", err))
	}

	// Kafka as Controller, one per pipeline stage
	workers := cfg.Pipeline.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	analysisController := kafkactrl.New(
		"analysis",
		kafkactrl.NewAnalysisHandler(pipelineUseCase, labelsPublisher, l),
		infrakafka.NewEventConsumer(storedConsumer),
		l,
		cfg.Pipeline.CommitTimeout,
		cfg.Pipeline.ProcessTimeout,
		workers,
	)

	inferenceController := kafkactrl.New(
		"inference",
		kafkactrl.NewInferenceHandler(pipelineUseCase, l),
		infrakafka.NewEventConsumer(labelsConsumer),
		l,
		cfg.Pipeline.CommitTimeout,
		cfg.Pipeline.ProcessTimeout,
		workers,
	)

	// HTTP Server
	httpServer := httpserver.New(l, httpserver.Port(cfg.HTTP.Port), httpserver.Prefork(cfg.HTTP.UsePreforkMode))
	restapi.NewRouter(httpServer.App, cfg, metadataUseCase, l)

	// Start Components
	err = analysisController.Start(ctx)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - analysisController.Start: %w", err))
	}
	err = inferenceController.Start(ctx)
	if err != nil {
		l.Fatal(fmt.Errorf("app - Run - inferenceController.Start: %w", err))
	}
	httpServer.Start()

	// Waiting Signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-interrupt:
		l.Info("app - Run - signal: %s", s.String())
	case err = <-httpServer.Notify():
		l.Error(fmt.Errorf("app - Run - httpServer.Notify: %w", err))
	}

	// Shutdown
	err = httpServer.Shutdown()
	if err != nil {
		l.Error(fmt.Errorf("app - Run - httpServer.Shutdown: %w", err))
	}

	acShutdownCtx, acShutdownCancel := context.WithTimeout(ctx, cfg.Pipeline.ShutdownTimeout)
	defer acShutdownCancel()
	err = analysisController.Shutdown(acShutdownCtx)
	if err != nil {
		l.Error(fmt.Errorf("app - Run - analysisController.Shutdown: %w", err))
	}

	icShutdownCtx, icShutdownCancel := context.WithTimeout(ctx, cfg.Pipeline.ShutdownTimeout)
	defer icShutdownCancel()
	err = inferenceController.Shutdown(icShutdownCtx)
	if err != nil {
		l.Error(fmt.Errorf("app - Run - inferenceController.Shutdown: %w", err))
	}

	err = kafkaProducer.Close()
	if err != nil {
		l.Error(fmt.Errorf("app - Run - kafkaProducer.Close: %w", err))
	}
}

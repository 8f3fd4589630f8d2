package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	phttp "github.com/radieske/accountability-bet-platform/internal/proof-service/http"
	"github.com/radieske/accountability-bet-platform/internal/proof-service/media"
	"github.com/radieske/accountability-bet-platform/internal/resolution"
	respg "github.com/radieske/accountability-bet-platform/internal/resolution/postgres"
	"github.com/radieske/accountability-bet-platform/internal/resolution/producer"
	"github.com/radieske/accountability-bet-platform/internal/shared/blob"
	"github.com/radieske/accountability-bet-platform/internal/shared/config"
	"github.com/radieske/accountability-bet-platform/internal/shared/db"
	skafka "github.com/radieske/accountability-bet-platform/internal/shared/kafka"
	"github.com/radieske/accountability-bet-platform/internal/shared/logger"
	"github.com/radieske/accountability-bet-platform/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Postgres
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg", zap.Error(err))
	}
	defer pg.Close()

	// Blob storage para mídia de provas
	blobCtx, blobCancel := context.WithTimeout(context.Background(), 5*time.Second)
	blobClient, err := blob.Connect(blobCtx, blob.Config{
		Endpoint:       cfg.BlobEndpoint,
		Region:         cfg.BlobRegion,
		Bucket:         cfg.BlobBucket,
		AccessKey:      cfg.BlobAccessKey,
		SecretKey:      cfg.BlobSecretKey,
		ForcePathStyle: cfg.BlobForcePathStyle,
		PublicBaseURL:  cfg.BlobPublicBaseURL,
	})
	blobCancel()
	if err != nil {
		log.Fatal("blob", zap.Error(err))
	}

	// Kafka writers (proof_submitted na submissão; bet_resolved via votos)
	proofWriter := skafka.NewWriter(cfg.KafkaBrokers, cfg.TopicProofSubmitted)
	defer proofWriter.Close()
	resolvedWriter := skafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetResolved)
	defer resolvedWriter.Close()

	// deps
	store := respg.NewStore(pg)
	publ := producer.NewKafkaPublisher(proofWriter, resolvedWriter)
	engine := resolution.NewEngine(log, store, publ)
	uploader := media.NewUploader(log, blobClient)

	api := phttp.NewServer(log, engine, store, uploader)
	apiSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: api.Router(),
	}

	// metrics/health
	metrics.StartMetricsServer(cfg.MetricsPort, func(hctx context.Context) error {
		if err := pg.PingContext(hctx); err != nil {
			return fmt.Errorf("pg: %w", err)
		}
		if err := blobClient.Health(hctx); err != nil {
			return fmt.Errorf("blob: %w", err)
		}
		return nil
	})
	log.Info("metrics/health listening", zap.String("port", cfg.MetricsPort))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	go func() {
		<-ctx.Done()
		_ = apiSrv.Shutdown(context.Background())
	}()

	log.Info("proof-service listening", zap.String("addr", fmt.Sprintf(":%s", cfg.HTTPPort)))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}

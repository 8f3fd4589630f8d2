package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	bcache "github.com/radieske/accountability-bet-platform/internal/bet-service/cache"
	bhttp "github.com/radieske/accountability-bet-platform/internal/bet-service/http"
	"github.com/radieske/accountability-bet-platform/internal/bet-service/repo"
	"github.com/radieske/accountability-bet-platform/internal/bet-service/ws"
	"github.com/radieske/accountability-bet-platform/internal/resolution"
	respg "github.com/radieske/accountability-bet-platform/internal/resolution/postgres"
	"github.com/radieske/accountability-bet-platform/internal/resolution/producer"
	"github.com/radieske/accountability-bet-platform/internal/shared/cache"
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

	// Redis (cache de snapshot + pub/sub do WS)
	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	// Kafka writers usados pelo engine (decline de h2h emite bet_resolved)
	proofWriter := skafka.NewWriter(cfg.KafkaBrokers, cfg.TopicProofSubmitted)
	defer proofWriter.Close()
	resolvedWriter := skafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetResolved)
	defer resolvedWriter.Close()

	// deps
	store := respg.NewStore(pg)
	publ := producer.NewKafkaPublisher(proofWriter, resolvedWriter)
	engine := resolution.NewEngine(log, store, publ)
	betRepo := repo.NewPostgres(pg)
	snapshots := bcache.New(rdb)

	hub := ws.NewHub(func(r *http.Request) bool { return true })

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	ws.StartRedisSubscriber(ctx, log, rdb, cfg.RedisPubSubChannel, hub)

	// HTTP público
	api := bhttp.NewServer(log, betRepo, store, engine, snapshots, hub)
	apiSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: api.Router(),
	}

	// metrics/health
	metrics.StartMetricsServer(cfg.MetricsPort, func(hctx context.Context) error {
		if err := pg.PingContext(hctx); err != nil {
			return fmt.Errorf("pg: %w", err)
		}
		if err := rdb.Ping(hctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		return nil
	})
	log.Info("metrics/health listening", zap.String("port", cfg.MetricsPort))

	// Shutdown gracioso quando o contexto encerrar
	go func() {
		<-ctx.Done()
		_ = apiSrv.Shutdown(context.Background())
	}()

	log.Info("bet-service listening", zap.String("addr", fmt.Sprintf(":%s", cfg.HTTPPort)))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}

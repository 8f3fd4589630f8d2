package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/radieske/accountability-bet-platform/internal/notification"
	"github.com/radieske/accountability-bet-platform/internal/notification/consumer"
	nrepo "github.com/radieske/accountability-bet-platform/internal/notification/repo"
	"github.com/radieske/accountability-bet-platform/internal/shared/cache"
	"github.com/radieske/accountability-bet-platform/internal/shared/config"
	"github.com/radieske/accountability-bet-platform/internal/shared/db"
	skafka "github.com/radieske/accountability-bet-platform/internal/shared/kafka"
	"github.com/radieske/accountability-bet-platform/internal/shared/logger"
	"github.com/radieske/accountability-bet-platform/internal/shared/metrics"
	"github.com/radieske/accountability-bet-platform/pkg/contracts/events"
)

const consumerGroup = "notification-worker"

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Postgres para a tabela notifications
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg connect", zap.Error(err))
	}
	defer pg.Close()

	// Redis para o broadcast do canal do WS
	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer rdb.Close()

	// Kafka: um reader por tópico consumido, DLQs correspondentes
	proofReader := skafka.NewReader(cfg.KafkaBrokers, cfg.TopicProofSubmitted, consumerGroup)
	defer proofReader.Close()
	resolvedReader := skafka.NewReader(cfg.KafkaBrokers, cfg.TopicBetResolved, consumerGroup)
	defer resolvedReader.Close()

	proofDLQ := skafka.NewWriter(cfg.KafkaBrokers, cfg.TopicProofSubmittedDLQ)
	defer proofDLQ.Close()
	resolvedDLQ := skafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetResolvedDLQ)
	defer resolvedDLQ.Close()

	// Métricas Prometheus por tópico
	consumed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notif_messages_consumed_total", Help: "mensagens consumidas",
	}, []string{"topic"})
	handled := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notif_messages_handled_total", Help: "mensagens processadas",
	}, []string{"topic"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notif_errors_total", Help: "erros por tópico e fase",
	}, []string{"topic", "stage"})
	prometheus.MustRegister(consumed, handled, errorsBy)

	notifier := &notification.Notifier{
		Log:     log,
		Repo:    nrepo.NewPostgres(pg),
		Rdb:     rdb,
		Channel: cfg.RedisPubSubChannel,
	}

	proofProc := &consumer.Processor{
		Log:    log,
		Reader: proofReader,
		DLQ:    proofDLQ,
		Handler: func(ctx context.Context, _, value []byte) error {
			var ev events.ProofSubmitted
			if err := json.Unmarshal(value, &ev); err != nil {
				return fmt.Errorf("unmarshal proof_submitted: %w", err)
			}
			return notifier.HandleProofSubmitted(ctx, ev)
		},
		OnConsumed: func() { consumed.WithLabelValues(cfg.TopicProofSubmitted).Inc() },
		OnHandled:  func() { handled.WithLabelValues(cfg.TopicProofSubmitted).Inc() },
		OnError:    func(stage string) { errorsBy.WithLabelValues(cfg.TopicProofSubmitted, stage).Inc() },
	}

	resolvedProc := &consumer.Processor{
		Log:    log,
		Reader: resolvedReader,
		DLQ:    resolvedDLQ,
		Handler: func(ctx context.Context, _, value []byte) error {
			var ev events.BetResolved
			if err := json.Unmarshal(value, &ev); err != nil {
				return fmt.Errorf("unmarshal bet_resolved: %w", err)
			}
			return notifier.HandleBetResolved(ctx, ev)
		},
		OnConsumed: func() { consumed.WithLabelValues(cfg.TopicBetResolved).Inc() },
		OnHandled:  func() { handled.WithLabelValues(cfg.TopicBetResolved).Inc() },
		OnError:    func(stage string) { errorsBy.WithLabelValues(cfg.TopicBetResolved, stage).Inc() },
	}

	// Servidor HTTP para métricas e health check
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return fmt.Errorf("pg: %w", err)
		}
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		return nil
	})
	log.Info("metrics/health listening", zap.String("port", cfg.MetricsPort))

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("notification-worker started",
		zap.String("consume", cfg.TopicProofSubmitted+","+cfg.TopicBetResolved),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return proofProc.Run(gctx) })
	g.Go(func() error { return resolvedProc.Run(gctx) })

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		log.Fatal("worker stopped with error", zap.Error(err))
	}
	log.Info("notification-worker stopped")
}

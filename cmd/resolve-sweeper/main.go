package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/accountability-bet-platform/internal/resolution"
	respg "github.com/radieske/accountability-bet-platform/internal/resolution/postgres"
	"github.com/radieske/accountability-bet-platform/internal/resolution/producer"
	"github.com/radieske/accountability-bet-platform/internal/shared/config"
	"github.com/radieske/accountability-bet-platform/internal/shared/db"
	skafka "github.com/radieske/accountability-bet-platform/internal/shared/kafka"
	"github.com/radieske/accountability-bet-platform/internal/shared/logger"
	"github.com/radieske/accountability-bet-platform/internal/shared/metrics"
	"github.com/radieske/accountability-bet-platform/internal/sweeper"
	srepo "github.com/radieske/accountability-bet-platform/internal/sweeper/repo"
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

	// Kafka writers para os eventos emitidos na resolução forçada
	proofWriter := skafka.NewWriter(cfg.KafkaBrokers, cfg.TopicProofSubmitted)
	defer proofWriter.Close()
	resolvedWriter := skafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetResolved)
	defer resolvedWriter.Close()

	// deps
	store := respg.NewStore(pg)
	publ := producer.NewKafkaPublisher(proofWriter, resolvedWriter)
	engine := resolution.NewEngine(log, store, publ)

	// Métricas Prometheus por regra de varredura
	resolved := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sweeper_bets_resolved_total", Help: "apostas resolvidas por regra",
	}, []string{"rule"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sweeper_errors_total", Help: "erros por regra",
	}, []string{"rule"})
	prometheus.MustRegister(resolved, errorsBy)

	sw := &sweeper.Sweeper{
		Log:        log,
		Store:      srepo.NewPostgres(pg),
		Resolver:   engine,
		Interval:   cfg.SweepInterval,
		OnResolved: func(rule string) { resolved.WithLabelValues(rule).Inc() },
		OnError:    func(rule string) { errorsBy.WithLabelValues(rule).Inc() },
	}

	// Servidor HTTP para métricas e health check
	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return pg.PingContext(ctx)
	})
	log.Info("metrics/health listening", zap.String("port", cfg.MetricsPort))

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("resolve-sweeper started", zap.Duration("interval", cfg.SweepInterval))
	if err := sw.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("sweeper stopped with error", zap.Error(err))
	}
	log.Info("resolve-sweeper stopped")
}

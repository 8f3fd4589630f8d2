package consumer

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	skafka "github.com/radieske/accountability-bet-platform/internal/shared/kafka"
)

// Handler processa uma mensagem já lida do tópico
type Handler func(ctx context.Context, key, value []byte) error

// Processor consome um tópico e delega cada mensagem ao Handler.
// Falha de processamento manda a mensagem para a DLQ (quando configurada)
// em vez de travar o consumo.
type Processor struct {
	Log     *zap.Logger
	Reader  *kafka.Reader
	DLQ     *kafka.Writer // opcional
	Handler Handler

	OnConsumed func()       // métricas (counter++)
	OnHandled  func()       // métricas
	OnError    func(string) // métricas por fase
}

// Run inicia o loop principal de consumo até o contexto encerrar
func (p *Processor) Run(ctx context.Context) error {
	for {
		key, value, err := skafka.ReadNext(ctx, p.Reader)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err() // encerra se o contexto for cancelado
			}
			p.Log.Warn("kafka read failed", zap.Error(err))
			if p.OnError != nil {
				p.OnError("read")
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		if p.OnConsumed != nil {
			p.OnConsumed()
		}

		if err := p.Handler(ctx, key, value); err != nil {
			p.Log.Error("handle message", zap.ByteString("key", key), zap.Error(err))
			if p.OnError != nil {
				p.OnError("handle")
			}
			if p.DLQ != nil {
				if derr := skafka.WriteJSON(ctx, p.DLQ, string(key), value); derr != nil {
					p.Log.Error("dlq write", zap.Error(derr))
				}
			}
			continue
		}

		if p.OnHandled != nil {
			p.OnHandled()
		}
	}
}

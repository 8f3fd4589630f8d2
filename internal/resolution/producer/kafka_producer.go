package producer

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"github.com/radieske/accountability-bet-platform/pkg/contracts/events"
)

// KafkaPublisher implementa resolution.Publisher com um writer por tópico
type KafkaPublisher struct {
	ProofWriter    *kafka.Writer
	ResolvedWriter *kafka.Writer
}

func NewKafkaPublisher(proofW, resolvedW *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{ProofWriter: proofW, ResolvedWriter: resolvedW}
}

func (p *KafkaPublisher) PublishProofSubmitted(ctx context.Context, e events.ProofSubmitted) error {
	b, _ := json.Marshal(e)
	return p.ProofWriter.WriteMessages(ctx, kafka.Message{Key: []byte(e.BetID), Value: b})
}

func (p *KafkaPublisher) PublishBetResolved(ctx context.Context, e events.BetResolved) error {
	b, _ := json.Marshal(e)
	return p.ResolvedWriter.WriteMessages(ctx, kafka.Message{Key: []byte(e.BetID), Value: b})
}

package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/radieske/accountability-bet-platform/internal/notification/repo"
	"github.com/radieske/accountability-bet-platform/pkg/contracts/events"
)

// Notifier transforma eventos de domínio em linhas de notifications e em
// broadcasts do canal Redis que alimenta o WebSocket do bet-service
type Notifier struct {
	Log     *zap.Logger
	Repo    *repo.Postgres
	Rdb     *redis.Client
	Channel string
}

// HandleProofSubmitted avisa os participantes (menos o autor) que há uma
// prova com ruling aguardando votos
func (n *Notifier) HandleProofSubmitted(ctx context.Context, ev events.ProofSubmitted) error {
	data := map[string]any{
		"bet_id":   ev.BetID,
		"proof_id": ev.ProofID,
		"group_id": ev.GroupID,
	}

	for _, uid := range ev.ParticipantIDs {
		if uid == ev.SubmittedBy {
			continue
		}
		err := n.Repo.Insert(ctx, repo.Notification{
			UserID: uid,
			Type:   "proof_submitted",
			Title:  "Proof submitted",
			Body:   "A proof was submitted with a ruling. Cast your vote before the deadline.",
			Data:   data,
		})
		if err != nil {
			return fmt.Errorf("insert notification: %w", err)
		}
	}

	n.broadcast(ctx, ev.BetID, map[string]any{
		"type":     "proof_submitted",
		"proof_id": ev.ProofID,
		"ruling":   ev.Ruling,
	})
	return nil
}

// HandleBetResolved notifica vencedores, perdedores e, em caso de voided,
// todos os participantes
func (n *Notifier) HandleBetResolved(ctx context.Context, ev events.BetResolved) error {
	data := map[string]any{
		"bet_id":   ev.BetID,
		"group_id": ev.GroupID,
		"result":   ev.Result,
		"source":   ev.Source,
	}

	if ev.Result == "voided" {
		for _, uid := range ev.ParticipantIDs {
			err := n.Repo.Insert(ctx, repo.Notification{
				UserID: uid,
				Type:   "bet_voided",
				Title:  "Bet voided",
				Body:   "The bet ended without a verdict. No winners, no losers.",
				Data:   data,
			})
			if err != nil {
				return fmt.Errorf("insert notification: %w", err)
			}
		}
	} else {
		for _, uid := range ev.WinnerIDs {
			err := n.Repo.Insert(ctx, repo.Notification{
				UserID: uid,
				Type:   "bet_won",
				Title:  "You won the bet",
				Body:   "The bet was resolved in your favor.",
				Data:   data,
			})
			if err != nil {
				return fmt.Errorf("insert notification: %w", err)
			}
		}
		for _, uid := range ev.LoserIDs {
			err := n.Repo.Insert(ctx, repo.Notification{
				UserID: uid,
				Type:   "bet_lost",
				Title:  "You lost the bet",
				Body:   "The bet was resolved against you.",
				Data:   data,
			})
			if err != nil {
				return fmt.Errorf("insert notification: %w", err)
			}
		}
	}

	n.broadcast(ctx, ev.BetID, map[string]any{
		"type":   "bet_resolved",
		"result": ev.Result,
		"source": ev.Source,
	})
	return nil
}

// broadcast publica a atualização no canal Pub/Sub do WS (best-effort)
func (n *Notifier) broadcast(ctx context.Context, betID string, payload map[string]any) {
	msg, _ := json.Marshal(map[string]any{
		"bet_id":  betID,
		"payload": payload,
	})

	bctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	if err := n.Rdb.Publish(bctx, n.Channel, msg).Err(); err != nil {
		n.Log.Warn("ws broadcast publish failed", zap.String("betId", betID), zap.Error(err))
	}
}

package sweeper

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/accountability-bet-platform/internal/resolution"
)

// Janelas de timeout de cada regra de varredura
const (
	NoProofWindow    = 48 * time.Hour // aposta ativa vencida sem nenhuma prova
	StaleProofWindow = 72 * time.Hour // prova submetida sem veredito do grupo
	H2HAcceptWindow  = 24 * time.Hour // desafio h2h nunca aceito
)

// Store define as consultas de candidatos de cada regra.
// Cada query já embute a condição de guarda (status, janela, ausência de
// prova/outcome/lado), então o sweeper só percorre e resolve.
type Store interface {
	// apostas "active" com deadline vencido há mais de 48h e zero provas
	ListNoProofExpired(ctx context.Context, cutoff time.Time) ([]string, error)
	// apostas "proof_submitted" cuja prova mais recente tem mais de 72h e sem outcome
	ListStaleProofSubmitted(ctx context.Context, cutoff time.Time) ([]string, error)
	// desafios h2h ainda "pending" criados há mais de 24h sem lado oponente
	ListStalePendingH2H(ctx context.Context, cutoff time.Time) ([]string, error)
}

// Resolver é o ponto único de resolução (implementado pelo resolution.Engine)
type Resolver interface {
	ResolveOutcome(ctx context.Context, betID string, result resolution.Result, source string) error
}

// Sweeper roda as três regras de timeout em lote. Cada regra é idempotente e
// fail-soft: a falha de uma aposta não aborta a varredura das demais, e o
// candidato volta a ser selecionado na próxima rodada enquanto a guarda valer.
type Sweeper struct {
	Log      *zap.Logger
	Store    Store
	Resolver Resolver
	Interval time.Duration

	Now func() time.Time // injetável nos testes

	OnResolved func(rule string) // métricas (counter++)
	OnError    func(rule string) // métricas por regra
}

// Run executa Sweep imediatamente e depois a cada Interval, até o contexto encerrar
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.Sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep roda uma passada das três regras
func (s *Sweeper) Sweep(ctx context.Context) {
	now := s.now()

	// 1) Timeout sem prova: claimant presumido falho
	s.sweepRule(ctx, "no_proof",
		func() ([]string, error) { return s.Store.ListNoProofExpired(ctx, now.Add(-NoProofWindow)) },
		resolution.ResultClaimantFailed, "sweep_no_proof",
	)

	// 2) Prova submetida sem veredito: voided (no-contest)
	s.sweepRule(ctx, "stale_proof",
		func() ([]string, error) { return s.Store.ListStaleProofSubmitted(ctx, now.Add(-StaleProofWindow)) },
		resolution.ResultVoided, "sweep_stale_proof",
	)

	// 3) Desafio h2h nunca aceito: voided
	s.sweepRule(ctx, "h2h_pending",
		func() ([]string, error) { return s.Store.ListStalePendingH2H(ctx, now.Add(-H2HAcceptWindow)) },
		resolution.ResultVoided, "sweep_h2h",
	)
}

func (s *Sweeper) sweepRule(ctx context.Context, rule string, list func() ([]string, error), result resolution.Result, source string) {
	betIDs, err := list()
	if err != nil {
		s.Log.Error("sweep list", zap.String("rule", rule), zap.Error(err))
		if s.OnError != nil {
			s.OnError(rule)
		}
		return
	}

	for _, betID := range betIDs {
		if err := s.Resolver.ResolveOutcome(ctx, betID, result, source); err != nil {
			// fail-soft: loga e segue; a aposta é re-selecionada na próxima rodada
			s.Log.Error("sweep resolve", zap.String("rule", rule), zap.String("betId", betID), zap.Error(err))
			if s.OnError != nil {
				s.OnError(rule)
			}
			continue
		}
		if s.OnResolved != nil {
			s.OnResolved(rule)
		}
	}
}

func (s *Sweeper) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

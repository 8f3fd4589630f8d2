package resolution

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radieske/accountability-bet-platform/pkg/contracts/events"
)

// RulingWindow é a janela de votação aberta por uma prova com ruling
const RulingWindow = 24 * time.Hour

var (
	ErrNoContent        = errors.New("proof needs media or caption")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrNotFound         = errors.New("not found")
	ErrInvalidVote      = errors.New("invalid vote")
	ErrInvalidRuling    = errors.New("invalid ruling")
)

// Store define as operações de persistência usadas pelo engine de resolução.
// Implementado por resolution/postgres; os testes usam um fake em memória.
type Store interface {
	GetBet(ctx context.Context, betID string) (*Bet, error)
	ListSides(ctx context.Context, betID string) ([]BetSide, error)
	UpdateBetStatus(ctx context.Context, betID string, status BetStatus) error

	InsertProof(ctx context.Context, p *Proof) error
	GetProof(ctx context.Context, proofID string) (*Proof, error)
	// LatestRulingProof retorna a prova com ruling mais recente da aposta,
	// ou ErrNotFound quando não existe nenhuma
	LatestRulingProof(ctx context.Context, betID string) (*Proof, error)
	UpdateProofCaption(ctx context.Context, proofID, caption string) error

	UpsertVote(ctx context.Context, v ProofVote) error
	CountVotes(ctx context.Context, proofID string) (confirms, disputes int, err error)

	HasOutcome(ctx context.Context, betID string) (bool, error)
	// InsertOutcome insere com ON CONFLICT DO NOTHING; retorna false quando
	// outro caminho de resolução já inseriu o outcome
	InsertOutcome(ctx context.Context, o Outcome) (bool, error)

	// RecordStatEvent incrementa o stat do usuário de forma idempotente por
	// (user, bet); chamadas repetidas não contam duas vezes
	RecordStatEvent(ctx context.Context, userID, betID string, won bool) error
}

// Publisher publica os eventos de domínio no Kafka
type Publisher interface {
	PublishProofSubmitted(ctx context.Context, e events.ProofSubmitted) error
	PublishBetResolved(ctx context.Context, e events.BetResolved) error
}

// Engine implementa o fluxo prova → votos → resolução.
// Resolução antecipada exige maioria absoluta dos participantes; o fallback
// de deadline usa pluralidade simples dos votos efetivamente dados.
type Engine struct {
	log   *zap.Logger
	store Store
	publ  Publisher
	now   func() time.Time
}

func NewEngine(log *zap.Logger, store Store, publ Publisher) *Engine {
	return &Engine{log: log, store: store, publ: publ, now: time.Now}
}

// SubmitProofInput carrega os dados já materializados de uma submissão
// (o upload de mídia acontece antes, no proof-service)
type SubmitProofInput struct {
	BetID       string
	SubmittedBy string
	MediaURLs   []string
	ProofType   string
	Caption     string
	Ruling      *Ruling
}

// SubmitProof persiste a prova. Com ruling, abre a janela de votação de 24h
// e move a aposta para "proof_submitted"; uma prova com ruling posterior
// supersede a anterior como candidata à resolução.
func (e *Engine) SubmitProof(ctx context.Context, in SubmitProofInput) (*Proof, error) {
	if in.SubmittedBy == "" {
		return nil, ErrNotAuthenticated
	}
	if len(in.MediaURLs) == 0 && in.Caption == "" {
		return nil, ErrNoContent
	}
	if in.Ruling != nil && *in.Ruling != RulingRidersWin && *in.Ruling != RulingDoubtersWin {
		return nil, ErrInvalidRuling
	}

	bet, err := e.store.GetBet(ctx, in.BetID)
	if err != nil {
		return nil, fmt.Errorf("get bet: %w", err)
	}

	p := &Proof{
		ID:          uuid.NewString(),
		BetID:       in.BetID,
		SubmittedBy: in.SubmittedBy,
		MediaURLs:   in.MediaURLs,
		ProofType:   in.ProofType,
		Caption:     in.Caption,
		Ruling:      in.Ruling,
		CreatedAt:   e.now(),
	}
	if in.Ruling != nil {
		dl := e.now().Add(RulingWindow)
		p.RulingDeadline = &dl
	}

	if err := e.store.InsertProof(ctx, p); err != nil {
		return nil, fmt.Errorf("insert proof: %w", err)
	}

	if in.Ruling != nil {
		if err := e.store.UpdateBetStatus(ctx, bet.ID, StatusProofSubmitted); err != nil {
			return nil, fmt.Errorf("update bet status: %w", err)
		}

		sides, err := e.store.ListSides(ctx, bet.ID)
		if err != nil {
			return nil, fmt.Errorf("list sides: %w", err)
		}
		ev := events.ProofSubmitted{
			ProofID:        p.ID,
			BetID:          bet.ID,
			GroupID:        bet.GroupID,
			SubmittedBy:    p.SubmittedBy,
			Ruling:         string(*in.Ruling),
			RulingDeadline: p.RulingDeadline.UnixMilli(),
			ParticipantIDs: Participants(bet.ClaimantID, sides),
			TsUnixMs:       e.now().UnixMilli(),
		}
		if err := e.publ.PublishProofSubmitted(ctx, ev); err != nil {
			// notificação é best-effort; a prova já está persistida
			e.log.Warn("publish proof_submitted", zap.String("betId", bet.ID), zap.Error(err))
		}
	}

	return p, nil
}

// VoteOnProof grava (upsert) o voto do usuário e tenta a resolução antecipada
func (e *Engine) VoteOnProof(ctx context.Context, proofID, userID string, vote Vote) error {
	if userID == "" {
		return ErrNotAuthenticated
	}
	if vote != VoteConfirm && vote != VoteDispute {
		return ErrInvalidVote
	}

	if err := e.store.UpsertVote(ctx, ProofVote{ProofID: proofID, UserID: userID, Vote: vote}); err != nil {
		return fmt.Errorf("upsert vote: %w", err)
	}

	return e.TryAutoResolve(ctx, proofID)
}

// TryAutoResolve resolve a aposta quando uma das direções atinge maioria
// absoluta dos participantes (floor(N/2)+1). Maioria de confirms aplica o
// ruling como dado; maioria de disputes aplica o ruling invertido.
// No-op para provas sem ruling, apostas já resolvidas ou N < 2.
func (e *Engine) TryAutoResolve(ctx context.Context, proofID string) error {
	proof, err := e.store.GetProof(ctx, proofID)
	if err != nil {
		return fmt.Errorf("get proof: %w", err)
	}
	if proof.Ruling == nil {
		return nil // prova só evidencial, não resolve nada
	}

	resolved, err := e.store.HasOutcome(ctx, proof.BetID)
	if err != nil {
		return fmt.Errorf("has outcome: %w", err)
	}
	if resolved {
		return nil
	}

	bet, err := e.store.GetBet(ctx, proof.BetID)
	if err != nil {
		return fmt.Errorf("get bet: %w", err)
	}
	sides, err := e.store.ListSides(ctx, proof.BetID)
	if err != nil {
		return fmt.Errorf("list sides: %w", err)
	}

	n := len(Participants(bet.ClaimantID, sides))
	if n < 2 {
		return nil // sem contraparte não há maioria possível
	}

	confirms, disputes, err := e.store.CountVotes(ctx, proofID)
	if err != nil {
		return fmt.Errorf("count votes: %w", err)
	}

	majority := MajorityThreshold(n)
	switch {
	case confirms >= majority:
		return e.resolve(ctx, bet, sides, proof.Ruling.ResultFor(), "vote_majority")
	case disputes >= majority:
		return e.resolve(ctx, bet, sides, proof.Ruling.Flipped(), "vote_majority")
	default:
		return nil // aguarda mais votos ou o deadline
	}
}

// CheckDeadlineResolution aplica o fallback de pluralidade após o vencimento
// da janela de votação: disputes > confirms inverte o ruling, senão o ruling
// original vale. No-op sem prova com ruling, sem deadline vencido ou com
// outcome já existente.
func (e *Engine) CheckDeadlineResolution(ctx context.Context, betID string) error {
	proof, err := e.store.LatestRulingProof(ctx, betID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("latest ruling proof: %w", err)
	}
	if proof.RulingDeadline == nil || e.now().Before(*proof.RulingDeadline) {
		return nil
	}

	resolved, err := e.store.HasOutcome(ctx, betID)
	if err != nil {
		return fmt.Errorf("has outcome: %w", err)
	}
	if resolved {
		return nil
	}

	bet, err := e.store.GetBet(ctx, betID)
	if err != nil {
		return fmt.Errorf("get bet: %w", err)
	}
	sides, err := e.store.ListSides(ctx, betID)
	if err != nil {
		return fmt.Errorf("list sides: %w", err)
	}

	confirms, disputes, err := e.store.CountVotes(ctx, proof.ID)
	if err != nil {
		return fmt.Errorf("count votes: %w", err)
	}

	result := proof.Ruling.ResultFor()
	if disputes > confirms {
		result = proof.Ruling.Flipped()
	}
	return e.resolve(ctx, bet, sides, result, "deadline_plurality")
}

// ResolveOutcome força um resultado terminal para a aposta.
// Ponto único de escrita do outcome, usado também pelo sweeper.
func (e *Engine) ResolveOutcome(ctx context.Context, betID string, result Result, source string) error {
	bet, err := e.store.GetBet(ctx, betID)
	if err != nil {
		return fmt.Errorf("get bet: %w", err)
	}
	sides, err := e.store.ListSides(ctx, betID)
	if err != nil {
		return fmt.Errorf("list sides: %w", err)
	}
	return e.resolve(ctx, bet, sides, result, source)
}

// UpdateCaption atualiza só a legenda da prova, sem efeito no status da aposta
func (e *Engine) UpdateCaption(ctx context.Context, proofID, caption string) error {
	return e.store.UpdateProofCaption(ctx, proofID, caption)
}

// resolve insere o outcome, ajusta o status da aposta, registra stats e
// publica o evento. A unicidade de outcomes.bet_id encerra a corrida entre
// o caminho de maioria e o sweeper: quem perder a inserção sai em silêncio.
func (e *Engine) resolve(ctx context.Context, bet *Bet, sides []BetSide, result Result, source string) error {
	o := Outcome{BetID: bet.ID, Result: result, ResolvedAt: e.now()}

	inserted, err := e.store.InsertOutcome(ctx, o)
	if err != nil {
		return fmt.Errorf("insert outcome: %w", err)
	}
	if !inserted {
		e.log.Debug("outcome already exists", zap.String("betId", bet.ID))
		return nil
	}

	status := StatusCompleted
	if result == ResultVoided {
		status = StatusVoided
	}
	if err := e.store.UpdateBetStatus(ctx, bet.ID, status); err != nil {
		return fmt.Errorf("update bet status: %w", err)
	}

	winners, losers := WinnersLosers(result, bet.ClaimantID, sides)
	for _, id := range winners {
		if err := e.store.RecordStatEvent(ctx, id, bet.ID, true); err != nil {
			e.log.Warn("stat event", zap.String("userId", id), zap.Error(err))
		}
	}
	for _, id := range losers {
		if err := e.store.RecordStatEvent(ctx, id, bet.ID, false); err != nil {
			e.log.Warn("stat event", zap.String("userId", id), zap.Error(err))
		}
	}

	ev := events.BetResolved{
		BetID:           bet.ID,
		GroupID:         bet.GroupID,
		ClaimantID:      bet.ClaimantID,
		Result:          string(result),
		Source:          source,
		ParticipantIDs:  Participants(bet.ClaimantID, sides),
		WinnerIDs:       winners,
		LoserIDs:        losers,
		PunishmentOwers: punishmentOwers(bet, result, losers),
		ResolvedAt:      o.ResolvedAt,
	}
	if err := e.publ.PublishBetResolved(ctx, ev); err != nil {
		e.log.Warn("publish bet_resolved", zap.String("betId", bet.ID), zap.Error(err))
	}

	e.log.Info("bet resolved",
		zap.String("betId", bet.ID),
		zap.String("result", string(result)),
		zap.String("source", source),
	)
	return nil
}

// punishmentOwers devolve os perdedores quando a aposta carrega punição,
// independente do branch de dinheiro
func punishmentOwers(bet *Bet, result Result, losers []string) []string {
	if result == ResultVoided {
		return nil
	}
	hasPunishment := bet.StakeType == StakePunishment || bet.StakeType == StakeBoth ||
		bet.StakePunishmentID != nil ||
		(bet.StakeCustomPunishment != nil && *bet.StakeCustomPunishment != "")
	if !hasPunishment {
		return nil
	}
	return losers
}

package resolution

import "time"

// Status do ciclo de vida de uma aposta.
// "pending" só existe para desafios head-to-head ainda não aceitos.
type BetStatus string

const (
	StatusPending        BetStatus = "pending"
	StatusActive         BetStatus = "active"
	StatusProofSubmitted BetStatus = "proof_submitted"
	StatusCompleted      BetStatus = "completed"
	StatusDisputed       BetStatus = "disputed"
	StatusVoided         BetStatus = "voided"
)

// Lado de um participante
type Side string

const (
	SideRider   Side = "rider"   // aposta que o claimant cumpre
	SideDoubter Side = "doubter" // aposta que o claimant falha
)

// Ruling é a alegação de resultado anexada a uma prova pelo claimant
type Ruling string

const (
	RulingRidersWin   Ruling = "riders_win"
	RulingDoubtersWin Ruling = "doubters_win"
)

// Voto de um participante sobre uma prova com ruling
type Vote string

const (
	VoteConfirm Vote = "confirm"
	VoteDispute Vote = "dispute"
)

// Resultado final de uma aposta
type Result string

const (
	ResultClaimantSucceeded Result = "claimant_succeeded"
	ResultClaimantFailed    Result = "claimant_failed"
	ResultVoided            Result = "voided"
)

// Tipo de stake da aposta
type StakeType string

const (
	StakeMoney      StakeType = "money"
	StakePunishment StakeType = "punishment"
	StakeBoth       StakeType = "both"
)

// Bet é o modelo persistido no Postgres. Nunca é deletada fisicamente.
type Bet struct {
	ID                    string
	ClaimantID            string
	GroupID               string
	Title                 string
	Category              string
	BetType               string // "standard" | "h2h"
	Deadline              time.Time
	StakeType             StakeType
	StakeMoneyCents       int64
	StakePunishmentID     *string
	StakeCustomPunishment *string
	Status                BetStatus
	H2HOpponentID         *string
	IsPublic              bool
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// BetSide é uma linha por (bet, user). Imutável após criação (sem troca de lado).
type BetSide struct {
	BetID    string
	UserID   string
	Side     Side
	JoinedAt time.Time
}

// Proof é evidência submetida pelo claimant. Quando Ruling != nil a prova
// abre a janela de votação (RulingDeadline) e vira candidata a resolução.
type Proof struct {
	ID             string
	BetID          string
	SubmittedBy    string
	MediaURLs      []string
	ProofType      string
	Caption        string
	Ruling         *Ruling
	RulingDeadline *time.Time
	CreatedAt      time.Time
}

// ProofVote é único por (proof, user); re-voto sobrescreve (upsert)
type ProofVote struct {
	ProofID string
	UserID  string
	Vote    Vote
}

// Outcome é o registro final e imutável de uma aposta.
// Sua existência é a flag autoritativa de "aposta resolvida".
type Outcome struct {
	BetID      string
	Result     Result
	ResolvedAt time.Time
}

// ResultFor mapeia o ruling direto para o resultado da aposta
func (r Ruling) ResultFor() Result {
	if r == RulingRidersWin {
		return ResultClaimantSucceeded
	}
	return ResultClaimantFailed
}

// Flipped inverte o ruling (maioria de disputes derruba a alegação do claimant)
func (r Ruling) Flipped() Result {
	if r == RulingRidersWin {
		return ResultClaimantFailed
	}
	return ResultClaimantSucceeded
}

// Participants retorna o conjunto deduplicado de participantes da aposta.
// O claimant sempre conta como rider mesmo sem linha própria em bet_sides.
func Participants(claimantID string, sides []BetSide) []string {
	seen := make(map[string]struct{}, len(sides)+1)
	out := make([]string, 0, len(sides)+1)

	if claimantID != "" {
		seen[claimantID] = struct{}{}
		out = append(out, claimantID)
	}
	for _, s := range sides {
		if _, ok := seen[s.UserID]; ok {
			continue
		}
		seen[s.UserID] = struct{}{}
		out = append(out, s.UserID)
	}
	return out
}

// WinnersLosers separa os participantes em vencedores e perdedores para um
// resultado terminal. Ambos vazios quando o resultado é "voided".
func WinnersLosers(result Result, claimantID string, sides []BetSide) (winners, losers []string) {
	if result == ResultVoided {
		return nil, nil
	}

	riderSet := make(map[string]struct{})
	var riders, doubters []string

	if claimantID != "" {
		riderSet[claimantID] = struct{}{}
		riders = append(riders, claimantID)
	}
	for _, s := range sides {
		switch s.Side {
		case SideRider:
			if _, ok := riderSet[s.UserID]; !ok {
				riderSet[s.UserID] = struct{}{}
				riders = append(riders, s.UserID)
			}
		case SideDoubter:
			if s.UserID != claimantID {
				doubters = append(doubters, s.UserID)
			}
		}
	}

	if result == ResultClaimantSucceeded {
		return riders, doubters
	}
	return doubters, riders
}

// MajorityThreshold calcula o quórum de resolução antecipada: floor(n/2)+1
func MajorityThreshold(n int) int {
	return n/2 + 1
}

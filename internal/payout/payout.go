package payout

import (
	"math"

	"github.com/radieske/accountability-bet-platform/internal/resolution"
)

// UserAmount associa um participante ao valor que recebe ou deve
type UserAmount struct {
	UserID      string `json:"user_id"`
	AmountCents int64  `json:"amount_cents"`
}

// Payout é derivado sob demanda a partir de outcome + lados + stake;
// nunca é persistido, para não ficar obsoleto
type Payout struct {
	WinnerIDs       []string     `json:"winner_ids"`
	LoserIDs        []string     `json:"loser_ids"`
	WinnerPayouts   []UserAmount `json:"winner_payouts"`
	LoserPayouts    []UserAmount `json:"loser_payouts"`
	PunishmentOwers []string     `json:"punishment_owers"`
}

// Stake é a configuração de aposta relevante para o cálculo
type Stake struct {
	Type             resolution.StakeType
	MoneyCents       int64
	PunishmentID     *string
	CustomPunishment *string
}

// Compute calcula o payout de uma aposta resolvida. Função pura, sem erros:
// entrada malformada degrada para listas vazias.
//
// Dinheiro: o pote é dividido igualmente entre vencedores, e o valor devido
// por cada perdedor é o mesmo pote dividido igualmente entre perdedores —
// os dois rateios são independentes, sem casamento 1:1 entre lados.
// Sobras de arredondamento são aceitas, não redistribuídas.
func Compute(result resolution.Result, claimantID string, sides []resolution.BetSide, stake Stake) Payout {
	if result == resolution.ResultVoided {
		return Payout{}
	}

	winners, losers := resolution.WinnersLosers(result, claimantID, sides)

	p := Payout{
		WinnerIDs: winners,
		LoserIDs:  losers,
	}

	if stake.MoneyCents > 0 {
		if n := len(winners); n > 0 {
			each := evenSplit(stake.MoneyCents, n)
			for _, id := range winners {
				p.WinnerPayouts = append(p.WinnerPayouts, UserAmount{UserID: id, AmountCents: each})
			}
		}
		if n := len(losers); n > 0 {
			each := evenSplit(stake.MoneyCents, n)
			for _, id := range losers {
				p.LoserPayouts = append(p.LoserPayouts, UserAmount{UserID: id, AmountCents: each})
			}
		}
	}

	// punição independe do branch de dinheiro
	hasPunishment := stake.Type == resolution.StakePunishment || stake.Type == resolution.StakeBoth ||
		stake.PunishmentID != nil ||
		(stake.CustomPunishment != nil && *stake.CustomPunishment != "")
	if hasPunishment {
		p.PunishmentOwers = losers
	}

	return p
}

// evenSplit divide o pote em partes iguais com arredondamento meio-pra-cima
func evenSplit(pot int64, n int) int64 {
	return int64(math.Round(float64(pot) / float64(n)))
}

package payout

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/radieske/accountability-bet-platform/internal/resolution"
)

func sides(pairs ...[2]string) []resolution.BetSide {
	out := make([]resolution.BetSide, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, resolution.BetSide{UserID: p[0], Side: resolution.Side(p[1])})
	}
	return out
}

func TestCompute(t *testing.T) {
	t.Run("voided retorna payout vazio", func(t *testing.T) {
		p := Compute(resolution.ResultVoided, "c1", sides([2]string{"d1", "doubter"}), Stake{
			Type:       resolution.StakeMoney,
			MoneyCents: 5000,
		})

		assert.Empty(t, p.WinnerIDs)
		assert.Empty(t, p.LoserIDs)
		assert.Empty(t, p.WinnerPayouts)
		assert.Empty(t, p.LoserPayouts)
		assert.Empty(t, p.PunishmentOwers)
	})

	t.Run("doubters vencem: pote rateado entre os dois, claimant deve o pote", func(t *testing.T) {
		// claimant + 2 doubters, pote de R$10,00
		p := Compute(resolution.ResultClaimantFailed, "c1",
			sides([2]string{"d1", "doubter"}, [2]string{"d2", "doubter"}),
			Stake{Type: resolution.StakeMoney, MoneyCents: 1000},
		)

		assert.ElementsMatch(t, []string{"d1", "d2"}, p.WinnerIDs)
		assert.Equal(t, []string{"c1"}, p.LoserIDs)

		assert.Len(t, p.WinnerPayouts, 2)
		for _, wp := range p.WinnerPayouts {
			assert.Equal(t, int64(500), wp.AmountCents)
		}
		assert.Len(t, p.LoserPayouts, 1)
		assert.Equal(t, int64(1000), p.LoserPayouts[0].AmountCents)
	})

	t.Run("claimant vence: riders recebem, doubters devem", func(t *testing.T) {
		p := Compute(resolution.ResultClaimantSucceeded, "c1",
			sides([2]string{"r1", "rider"}, [2]string{"d1", "doubter"}),
			Stake{Type: resolution.StakeMoney, MoneyCents: 600},
		)

		assert.ElementsMatch(t, []string{"c1", "r1"}, p.WinnerIDs)
		assert.Equal(t, []string{"d1"}, p.LoserIDs)
		for _, wp := range p.WinnerPayouts {
			assert.Equal(t, int64(300), wp.AmountCents)
		}
		assert.Equal(t, int64(600), p.LoserPayouts[0].AmountCents)
	})

	t.Run("rateio arredonda e aceita sobra", func(t *testing.T) {
		// 100 / 3 vencedores = 33 cada; a sobra de 1 centavo não é redistribuída
		p := Compute(resolution.ResultClaimantFailed, "c1",
			sides([2]string{"d1", "doubter"}, [2]string{"d2", "doubter"}, [2]string{"d3", "doubter"}),
			Stake{Type: resolution.StakeMoney, MoneyCents: 100},
		)

		assert.Len(t, p.WinnerPayouts, 3)
		var total int64
		for _, wp := range p.WinnerPayouts {
			assert.Equal(t, int64(33), wp.AmountCents)
			total += wp.AmountCents
		}
		assert.Equal(t, int64(99), total)
	})

	t.Run("vencedores e perdedores sao disjuntos", func(t *testing.T) {
		p := Compute(resolution.ResultClaimantSucceeded, "c1",
			sides([2]string{"r1", "rider"}, [2]string{"d1", "doubter"}, [2]string{"d2", "doubter"}),
			Stake{Type: resolution.StakeMoney, MoneyCents: 900},
		)

		for _, w := range p.WinnerIDs {
			assert.NotContains(t, p.LoserIDs, w)
		}
	})

	t.Run("punicao recai sobre os perdedores, sem dinheiro envolvido", func(t *testing.T) {
		pun := "lavar a louça por uma semana"
		p := Compute(resolution.ResultClaimantFailed, "c1",
			sides([2]string{"d1", "doubter"}),
			Stake{Type: resolution.StakePunishment, CustomPunishment: &pun},
		)

		assert.Empty(t, p.WinnerPayouts)
		assert.Empty(t, p.LoserPayouts)
		assert.Equal(t, []string{"c1"}, p.PunishmentOwers)
	})

	t.Run("stake both combina dinheiro e punicao", func(t *testing.T) {
		punID := "pun-42"
		p := Compute(resolution.ResultClaimantFailed, "c1",
			sides([2]string{"d1", "doubter"}),
			Stake{Type: resolution.StakeBoth, MoneyCents: 2000, PunishmentID: &punID},
		)

		assert.Equal(t, int64(2000), p.WinnerPayouts[0].AmountCents)
		assert.Equal(t, []string{"c1"}, p.PunishmentOwers)
	})

	t.Run("sem stake de dinheiro nao gera valores", func(t *testing.T) {
		p := Compute(resolution.ResultClaimantSucceeded, "c1",
			sides([2]string{"d1", "doubter"}),
			Stake{Type: resolution.StakeMoney, MoneyCents: 0},
		)

		assert.Empty(t, p.WinnerPayouts)
		assert.Empty(t, p.LoserPayouts)
	})
}

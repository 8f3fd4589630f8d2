package dto

import (
	"time"

	"github.com/radieske/accountability-bet-platform/internal/payout"
)

type CreateBetResponse struct {
	BetID  string `json:"bet_id"`
	Status string `json:"status"` // "active" | "pending" (h2h aguardando aceite)
}

type SideResponse struct {
	UserID   string    `json:"user_id"`
	Side     string    `json:"side"`
	JoinedAt time.Time `json:"joined_at"`
}

type OutcomeResponse struct {
	Result     string    `json:"result"`
	ResolvedAt time.Time `json:"resolved_at"`
}

// BetResponse é o snapshot completo servido (e cacheado) pelo GET de aposta
type BetResponse struct {
	BetID                 string           `json:"bet_id"`
	ClaimantID            string           `json:"claimant_id"`
	GroupID               string           `json:"group_id"`
	Title                 string           `json:"title"`
	Category              string           `json:"category"`
	BetType               string           `json:"bet_type"`
	Deadline              time.Time        `json:"deadline"`
	StakeType             string           `json:"stake_type"`
	StakeMoneyCents       int64            `json:"stake_money_cents"`
	StakePunishmentID     *string          `json:"stake_punishment_id,omitempty"`
	StakeCustomPunishment *string          `json:"stake_custom_punishment,omitempty"`
	Status                string           `json:"status"`
	H2HOpponentID         *string          `json:"h2h_opponent_id,omitempty"`
	IsPublic              bool             `json:"is_public"`
	Sides                 []SideResponse   `json:"sides"`
	Outcome               *OutcomeResponse `json:"outcome,omitempty"`
}

type PayoutResponse struct {
	BetID  string        `json:"bet_id"`
	Result string        `json:"result"`
	Payout payout.Payout `json:"payout"`
}

package dto

import "time"

type CreateBetRequest struct {
	GroupID               string    `json:"group_id"`
	Title                 string    `json:"title"`
	Category              string    `json:"category"`
	BetType               string    `json:"bet_type"` // "standard" | "h2h"
	Deadline              time.Time `json:"deadline"`
	StakeType             string    `json:"stake_type"` // "money" | "punishment" | "both"
	StakeMoneyCents       int64     `json:"stake_money_cents"`
	StakePunishmentID     *string   `json:"stake_punishment_id,omitempty"`
	StakeCustomPunishment *string   `json:"stake_custom_punishment,omitempty"`
	H2HOpponentID         *string   `json:"h2h_opponent_id,omitempty"` // obrigatório quando bet_type=h2h
	IsPublic              bool      `json:"is_public"`
}

type JoinSideRequest struct {
	Side string `json:"side"` // "rider" | "doubter"
}

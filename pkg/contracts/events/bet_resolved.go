package events

import "time"

// Evento emitido após a inserção do outcome de uma aposta.
// Winners/Losers vêm vazios quando o resultado é "voided".
type BetResolved struct {
	BetID           string    `json:"bet_id"`
	GroupID         string    `json:"group_id"`
	ClaimantID      string    `json:"claimant_id"`
	Result          string    `json:"result"` // "claimant_succeeded" | "claimant_failed" | "voided"
	Source          string    `json:"source"` // "vote_majority" | "deadline_plurality" | "sweep_no_proof" | "sweep_stale_proof" | "sweep_h2h" | "h2h_decline"
	ParticipantIDs  []string  `json:"participant_ids"`
	WinnerIDs       []string  `json:"winner_ids"`
	LoserIDs        []string  `json:"loser_ids"`
	PunishmentOwers []string  `json:"punishment_owers"`
	ResolvedAt      time.Time `json:"resolved_at"`
}

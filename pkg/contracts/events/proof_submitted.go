package events

// Evento publicado no tópico "proof_submitted" quando uma prova com ruling
// entra na janela de votação. O notification-worker usa ParticipantIDs para
// avisar o grupo que há uma prova aguardando votos.
type ProofSubmitted struct {
	ProofID        string   `json:"proof_id"`
	BetID          string   `json:"bet_id"`
	GroupID        string   `json:"group_id"`
	SubmittedBy    string   `json:"submitted_by"`
	Ruling         string   `json:"ruling"` // "riders_win" | "doubters_win"
	RulingDeadline int64    `json:"ruling_deadline_unix_ms"`
	ParticipantIDs []string `json:"participant_ids"`
	TsUnixMs       int64    `json:"ts_unix_ms"`
}

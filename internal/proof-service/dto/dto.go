package dto

import "time"

type SubmitProofResponse struct {
	ProofID        string     `json:"proof_id"`
	BetID          string     `json:"bet_id"`
	MediaURLs      []string   `json:"media_urls"`
	Ruling         *string    `json:"ruling,omitempty"`
	RulingDeadline *time.Time `json:"ruling_deadline,omitempty"`
}

type VoteRequest struct {
	Vote string `json:"vote"` // "confirm" | "dispute"
}

type CaptionRequest struct {
	Caption string `json:"caption"`
}

type ProofResponse struct {
	ProofID        string     `json:"proof_id"`
	BetID          string     `json:"bet_id"`
	SubmittedBy    string     `json:"submitted_by"`
	MediaURLs      []string   `json:"media_urls"`
	ProofType      string     `json:"proof_type"`
	Caption        string     `json:"caption"`
	Ruling         *string    `json:"ruling,omitempty"`
	RulingDeadline *time.Time `json:"ruling_deadline,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	Confirms       int        `json:"confirms"`
	Disputes       int        `json:"disputes"`
}

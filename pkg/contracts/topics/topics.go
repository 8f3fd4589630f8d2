package topics

const (
	// Provas
	ProofSubmitted = "proof_submitted"

	// Resoluções
	BetResolved = "bet_resolved"

	// DLQs
	ProofSubmittedDLQ = "proof_submitted_dlq"
	BetResolvedDLQ    = "bet_resolved_dlq"
)

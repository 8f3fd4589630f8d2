package repo

import (
	"context"
	"database/sql"
	"time"
)

// Postgres implementa as consultas de candidatos do sweeper
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// ListNoProofExpired seleciona apostas ativas com deadline vencido antes do
// cutoff e nenhuma prova submetida
func (p *Postgres) ListNoProofExpired(ctx context.Context, cutoff time.Time) ([]string, error) {
	const q = `
		SELECT b.id
		FROM bets b
		WHERE b.status = 'active'
		  AND b.deadline < $1
		  AND NOT EXISTS (SELECT 1 FROM proofs pr WHERE pr.bet_id = b.id)
		  AND NOT EXISTS (SELECT 1 FROM outcomes o WHERE o.bet_id = b.id)
		ORDER BY b.deadline`
	return p.listIDs(ctx, q, cutoff)
}

// ListStaleProofSubmitted seleciona apostas em proof_submitted cuja prova mais
// recente é anterior ao cutoff e que ainda não têm outcome
func (p *Postgres) ListStaleProofSubmitted(ctx context.Context, cutoff time.Time) ([]string, error) {
	const q = `
		SELECT b.id
		FROM bets b
		WHERE b.status = 'proof_submitted'
		  AND NOT EXISTS (SELECT 1 FROM outcomes o WHERE o.bet_id = b.id)
		  AND (SELECT MAX(pr.created_at) FROM proofs pr WHERE pr.bet_id = b.id) < $1
		ORDER BY b.id`
	return p.listIDs(ctx, q, cutoff)
}

// ListStalePendingH2H seleciona desafios h2h ainda pendentes criados antes do
// cutoff e sem lado oponente registrado
func (p *Postgres) ListStalePendingH2H(ctx context.Context, cutoff time.Time) ([]string, error) {
	const q = `
		SELECT b.id
		FROM bets b
		WHERE b.status = 'pending'
		  AND b.bet_type = 'h2h'
		  AND b.created_at < $1
		  AND NOT EXISTS (
		    SELECT 1 FROM bet_sides s
		    WHERE s.bet_id = b.id AND s.user_id <> b.claimant_id
		  )
		ORDER BY b.created_at`
	return p.listIDs(ctx, q, cutoff)
}

func (p *Postgres) listIDs(ctx context.Context, q string, args ...any) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

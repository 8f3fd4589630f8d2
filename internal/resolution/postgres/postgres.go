package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/radieske/accountability-bet-platform/internal/resolution"
)

// Store implementa resolution.Store em banco Postgres
type Store struct{ db *sql.DB }

// NewStore retorna uma instância do store de resolução
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

const betColumns = `
	id, claimant_id, group_id, title, category, bet_type, deadline,
	stake_type, stake_money_cents, stake_punishment_id, stake_custom_punishment,
	status, h2h_opponent_id, is_public, created_at, updated_at`

func scanBet(row *sql.Row) (*resolution.Bet, error) {
	var b resolution.Bet
	err := row.Scan(
		&b.ID, &b.ClaimantID, &b.GroupID, &b.Title, &b.Category, &b.BetType, &b.Deadline,
		&b.StakeType, &b.StakeMoneyCents, &b.StakePunishmentID, &b.StakeCustomPunishment,
		&b.Status, &b.H2HOpponentID, &b.IsPublic, &b.CreatedAt, &b.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, resolution.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *Store) GetBet(ctx context.Context, betID string) (*resolution.Bet, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+betColumns+` FROM bets WHERE id=$1`, betID)
	return scanBet(row)
}

func (s *Store) ListSides(ctx context.Context, betID string) ([]resolution.BetSide, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT bet_id, user_id, side, joined_at FROM bet_sides WHERE bet_id=$1 ORDER BY joined_at`, betID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []resolution.BetSide
	for rows.Next() {
		var bs resolution.BetSide
		if err := rows.Scan(&bs.BetID, &bs.UserID, &bs.Side, &bs.JoinedAt); err != nil {
			return nil, err
		}
		out = append(out, bs)
	}
	return out, rows.Err()
}

func (s *Store) UpdateBetStatus(ctx context.Context, betID string, status resolution.BetStatus) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE bets SET status=$1, updated_at=NOW() WHERE id=$2`, status, betID)
	return err
}

func (s *Store) InsertProof(ctx context.Context, p *resolution.Proof) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO proofs (id, bet_id, submitted_by, media_urls, proof_type, caption, ruling, ruling_deadline, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		p.ID, p.BetID, p.SubmittedBy, pq.Array(p.MediaURLs), p.ProofType,
		p.Caption, nullableRuling(p.Ruling), p.RulingDeadline, p.CreatedAt,
	)
	return err
}

const proofColumns = `id, bet_id, submitted_by, media_urls, proof_type, caption, ruling, ruling_deadline, created_at`

func scanProof(row *sql.Row) (*resolution.Proof, error) {
	var p resolution.Proof
	var ruling sql.NullString
	err := row.Scan(
		&p.ID, &p.BetID, &p.SubmittedBy, pq.Array(&p.MediaURLs), &p.ProofType,
		&p.Caption, &ruling, &p.RulingDeadline, &p.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, resolution.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if ruling.Valid {
		r := resolution.Ruling(ruling.String)
		p.Ruling = &r
	}
	return &p, nil
}

func (s *Store) GetProof(ctx context.Context, proofID string) (*resolution.Proof, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+proofColumns+` FROM proofs WHERE id=$1`, proofID)
	return scanProof(row)
}

// LatestRulingProof retorna a prova com ruling mais recente da aposta;
// ela é a única autoritativa para resolução (a mais nova supersede as demais)
func (s *Store) LatestRulingProof(ctx context.Context, betID string) (*resolution.Proof, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+proofColumns+` FROM proofs
		WHERE bet_id=$1 AND ruling IS NOT NULL
		ORDER BY created_at DESC
		LIMIT 1`, betID)
	return scanProof(row)
}

func (s *Store) UpdateProofCaption(ctx context.Context, proofID, caption string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE proofs SET caption=$1 WHERE id=$2`, caption, proofID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return resolution.ErrNotFound
	}
	return nil
}

// UpsertVote grava o voto por (proof, user); re-voto sobrescreve o anterior
func (s *Store) UpsertVote(ctx context.Context, v resolution.ProofVote) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO proof_votes (proof_id, user_id, vote, created_at, updated_at)
		VALUES ($1,$2,$3,NOW(),NOW())
		ON CONFLICT (proof_id, user_id) DO UPDATE SET
		  vote       = EXCLUDED.vote,
		  updated_at = NOW()`,
		v.ProofID, v.UserID, v.Vote,
	)
	return err
}

func (s *Store) CountVotes(ctx context.Context, proofID string) (confirms, disputes int, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT
		  COUNT(*) FILTER (WHERE vote='confirm'),
		  COUNT(*) FILTER (WHERE vote='dispute')
		FROM proof_votes WHERE proof_id=$1`, proofID).Scan(&confirms, &disputes)
	return confirms, disputes, err
}

func (s *Store) HasOutcome(ctx context.Context, betID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM outcomes WHERE bet_id=$1`, betID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// InsertOutcome insere o resultado final. O UNIQUE em bet_id fecha a corrida
// entre maioria de votos e sweeper: a segunda inserção não afeta linha alguma
// e o chamador trata como "já resolvido por outro caminho".
func (s *Store) InsertOutcome(ctx context.Context, o resolution.Outcome) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO outcomes (bet_id, result, resolved_at)
		VALUES ($1,$2,$3)
		ON CONFLICT (bet_id) DO NOTHING`,
		o.BetID, o.Result, o.ResolvedAt,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// RecordStatEvent registra o evento de stat uma única vez por (user, bet)
// e só incrementa o agregado quando o evento era inédito
func (s *Store) RecordStatEvent(ctx context.Context, userID, betID string, won bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO user_bet_stats_events (user_id, bet_id, won)
		VALUES ($1,$2,$3)
		ON CONFLICT (user_id, bet_id) DO NOTHING`,
		userID, betID, won,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil // já contabilizado
	}

	wins, losses := 0, 1
	if won {
		wins, losses = 1, 0
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO user_bet_stats (user_id, wins, losses)
		VALUES ($1,$2,$3)
		ON CONFLICT (user_id) DO UPDATE SET
		  wins   = user_bet_stats.wins   + EXCLUDED.wins,
		  losses = user_bet_stats.losses + EXCLUDED.losses`,
		userID, wins, losses,
	); err != nil {
		return err
	}

	return tx.Commit()
}

func nullableRuling(r *resolution.Ruling) interface{} {
	if r == nil {
		return nil
	}
	return string(*r)
}

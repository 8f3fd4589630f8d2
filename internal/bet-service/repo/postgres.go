package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/radieske/accountability-bet-platform/internal/resolution"
)

var (
	ErrAlreadyJoined = errors.New("user already joined this bet")
	ErrNotPendingH2H = errors.New("bet is not a pending h2h challenge")
	ErrNotOpponent   = errors.New("user is not the challenged opponent")
)

// Postgres implementa as escritas de aposta do bet-service
// (leituras compartilhadas ficam no store de resolução)
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// Create insere a aposta. Desafios h2h nascem "pending" até o aceite do
// oponente; o resto nasce "active". O claimant não ganha linha em bet_sides:
// ele conta como rider implícito em toda computação.
func (p *Postgres) Create(ctx context.Context, b *resolution.Bet) (string, error) {
	id := uuid.NewString()
	status := resolution.StatusActive
	if b.BetType == "h2h" {
		status = resolution.StatusPending
	}

	_, err := p.db.ExecContext(ctx, `
		INSERT INTO bets
		  (id, claimant_id, group_id, title, category, bet_type, deadline,
		   stake_type, stake_money_cents, stake_punishment_id, stake_custom_punishment,
		   status, h2h_opponent_id, is_public)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		id, b.ClaimantID, b.GroupID, b.Title, b.Category, b.BetType, b.Deadline,
		b.StakeType, b.StakeMoneyCents, b.StakePunishmentID, b.StakeCustomPunishment,
		status, b.H2HOpponentID, b.IsPublic,
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

// JoinSide registra o lado do usuário. O conflito em (bet_id, user_id) garante
// a imutabilidade: não existe troca de lado depois de entrar.
func (p *Postgres) JoinSide(ctx context.Context, betID, userID string, side resolution.Side) error {
	res, err := p.db.ExecContext(ctx, `
		INSERT INTO bet_sides (bet_id, user_id, side, joined_at)
		VALUES ($1,$2,$3,NOW())
		ON CONFLICT (bet_id, user_id) DO NOTHING`,
		betID, userID, side,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAlreadyJoined
	}
	return nil
}

// AcceptH2H efetiva o aceite do oponente: pending → active + lado doubter.
// Usa lock pessimista na linha da aposta para não competir com o sweeper.
func (p *Postgres) AcceptH2H(ctx context.Context, betID, userID string) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var status, betType string
	var opponent sql.NullString
	err = tx.QueryRowContext(ctx, `
		SELECT status, bet_type, h2h_opponent_id FROM bets WHERE id=$1 FOR UPDATE`,
		betID).Scan(&status, &betType, &opponent)
	if err == sql.ErrNoRows {
		return resolution.ErrNotFound
	}
	if err != nil {
		return err
	}

	if status != string(resolution.StatusPending) || betType != "h2h" {
		return ErrNotPendingH2H
	}
	if !opponent.Valid || opponent.String != userID {
		return ErrNotOpponent
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE bets SET status='active', updated_at=NOW() WHERE id=$1`, betID); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO bet_sides (bet_id, user_id, side, joined_at)
		VALUES ($1,$2,'doubter',NOW())
		ON CONFLICT (bet_id, user_id) DO NOTHING`, betID, userID); err != nil {
		return err
	}

	return tx.Commit()
}

// ListGroupBets lista as apostas de um grupo, mais recentes primeiro
func (p *Postgres) ListGroupBets(ctx context.Context, groupID string) ([]resolution.Bet, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, claimant_id, group_id, title, category, bet_type, deadline,
		       stake_type, stake_money_cents, stake_punishment_id, stake_custom_punishment,
		       status, h2h_opponent_id, is_public, created_at, updated_at
		FROM bets
		WHERE group_id=$1
		ORDER BY created_at DESC`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []resolution.Bet
	for rows.Next() {
		var b resolution.Bet
		if err := rows.Scan(
			&b.ID, &b.ClaimantID, &b.GroupID, &b.Title, &b.Category, &b.BetType, &b.Deadline,
			&b.StakeType, &b.StakeMoneyCents, &b.StakePunishmentID, &b.StakeCustomPunishment,
			&b.Status, &b.H2HOpponentID, &b.IsPublic, &b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// GetOutcome retorna o resultado final da aposta, ou resolution.ErrNotFound
func (p *Postgres) GetOutcome(ctx context.Context, betID string) (*resolution.Outcome, error) {
	var o resolution.Outcome
	err := p.db.QueryRowContext(ctx,
		`SELECT bet_id, result, resolved_at FROM outcomes WHERE bet_id=$1`, betID).
		Scan(&o.BetID, &o.Result, &o.ResolvedAt)
	if err == sql.ErrNoRows {
		return nil, resolution.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
)

// Notification é a linha inserida em notifications; a entrega push em si
// acontece fora daqui, disparada pelo insert
type Notification struct {
	UserID string
	Type   string
	Title  string
	Body   string
	Data   map[string]any
}

// Postgres implementa a persistência de notificações
type Postgres struct{ db *sql.DB }

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

func (p *Postgres) Insert(ctx context.Context, n Notification) error {
	data, _ := json.Marshal(n.Data)
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, type, title, body, data, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,NOW())`,
		uuid.NewString(), n.UserID, n.Type, n.Title, n.Body, data,
	)
	return err
}

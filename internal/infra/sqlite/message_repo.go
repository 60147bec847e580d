package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"detailing-intake-bot/internal/domain"
)

type MessageRepo struct {
	db *sql.DB
}

func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

func (r *MessageRepo) AppendMessage(ctx context.Context, m domain.Message) error {
	fromAdmin := 0
	if m.FromAdmin {
		fromAdmin = 1
	}
	kind := m.Kind
	if kind == "" {
		kind = "text"
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO messages(user_id, lead_id, from_admin, text, kind, created_at) VALUES(?,?,?,?,?,?)`,
		m.UserID, arg(m.LeadID), fromAdmin, m.Text, kind, toDB(m.CreatedAt))
	if err != nil {
		return fmt.Errorf("sqlite: append message: %w", err)
	}
	return nil
}

// ListByLead returns the history of a lead, oldest first.
func (r *MessageRepo) ListByLead(ctx context.Context, leadID int64, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `SELECT id, user_id, lead_id, from_admin, text, kind, created_at FROM (
    SELECT * FROM messages WHERE lead_id = ? ORDER BY id DESC LIMIT ?
) ORDER BY id`, leadID, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list messages: %w", err)
	}
	defer rows.Close()
	var out []domain.Message
	for rows.Next() {
		var (
			m         domain.Message
			lead      sql.NullInt64
			fromAdmin int64
			created   int64
		)
		if err := rows.Scan(&m.ID, &m.UserID, &lead, &fromAdmin, &m.Text, &m.Kind, &created); err != nil {
			return nil, fmt.Errorf("sqlite: list messages scan: %w", err)
		}
		if lead.Valid {
			m.LeadID = domain.Ptr(lead.Int64)
		}
		m.FromAdmin = fromAdmin != 0
		m.CreatedAt = fromDB(created)
		out = append(out, m)
	}
	return out, rows.Err()
}

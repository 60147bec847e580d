package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"detailing-intake-bot/internal/usecase"
)

type FunnelRepo struct {
	db *sql.DB
}

func NewFunnelRepo(db *sql.DB) *FunnelRepo {
	return &FunnelRepo{db: db}
}

func (r *FunnelRepo) Hit(ctx context.Context, step usecase.Step, chatID int64) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO funnel_hits(chat_id, step, created_at) VALUES(?,?,?)`, chatID, string(step), toDB(time.Now()))
	if err != nil {
		return fmt.Errorf("sqlite: funnel hit: %w", err)
	}
	return nil
}

func (r *FunnelRepo) Counts(ctx context.Context) (map[usecase.Step]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT step, COUNT(DISTINCT chat_id) FROM funnel_hits GROUP BY step`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: funnel counts: %w", err)
	}
	defer rows.Close()
	out := map[usecase.Step]int{}
	for rows.Next() {
		var step string
		var cnt int
		if err := rows.Scan(&step, &cnt); err != nil {
			return nil, fmt.Errorf("sqlite: funnel counts scan: %w", err)
		}
		out[usecase.Step(step)] = cnt
	}
	return out, rows.Err()
}

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"detailing-intake-bot/internal/usecase"
)

type BroadcastStatRepo struct {
	db *sql.DB
}

func NewBroadcastStatRepo(db *sql.DB) *BroadcastStatRepo {
	return &BroadcastStatRepo{db: db}
}

func (r *BroadcastStatRepo) Save(ctx context.Context, s usecase.BroadcastStat) error {
	at := s.CreatedAt
	if at.IsZero() {
		at = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO broadcast_stats(total, sent, failed, created_at) VALUES(?,?,?,?)`, s.Total, s.Sent, s.Failed, toDB(at))
	if err != nil {
		return fmt.Errorf("sqlite: save broadcast stat: %w", err)
	}
	return nil
}

func (r *BroadcastStatRepo) ListRecent(ctx context.Context, n int) ([]usecase.BroadcastStat, error) {
	if n <= 0 {
		n = 10
	}
	rows, err := r.db.QueryContext(ctx, `SELECT total, sent, failed, created_at FROM broadcast_stats ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list broadcast stats: %w", err)
	}
	defer rows.Close()
	res := make([]usecase.BroadcastStat, 0, n)
	for rows.Next() {
		var s usecase.BroadcastStat
		var created int64
		if err := rows.Scan(&s.Total, &s.Sent, &s.Failed, &created); err != nil {
			return nil, fmt.Errorf("sqlite: broadcast stat scan: %w", err)
		}
		s.CreatedAt = fromDB(created)
		res = append(res, s)
	}
	return res, rows.Err()
}

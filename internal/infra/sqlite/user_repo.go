package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"detailing-intake-bot/internal/domain"
)

type UserRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db, now: time.Now}
}

// UpsertUser never blanks a stored name with an empty one.
func (r *UserRepo) UpsertUser(ctx context.Context, u domain.User) error {
	now := u.UpdatedAt
	if now.IsZero() {
		now = r.now()
	}
	created := u.CreatedAt
	if created.IsZero() {
		created = now
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO users(chat_id, username, first_name, last_name, created_at, updated_at) VALUES(?,?,?,?,?,?)
ON CONFLICT(chat_id) DO UPDATE SET
    username = CASE WHEN excluded.username <> '' THEN excluded.username ELSE users.username END,
    first_name = CASE WHEN excluded.first_name <> '' THEN excluded.first_name ELSE users.first_name END,
    last_name = CASE WHEN excluded.last_name <> '' THEN excluded.last_name ELSE users.last_name END,
    updated_at = excluded.updated_at`,
		u.ChatID, u.Username, u.FirstName, u.LastName, toDB(created), toDB(now))
	if err != nil {
		return fmt.Errorf("sqlite: upsert user %d: %w", u.ChatID, err)
	}
	return nil
}

func (r *UserRepo) FindUser(ctx context.Context, chatID int64) (*domain.User, error) {
	var (
		u                domain.User
		inDialog         int64
		dialogLead       sql.NullInt64
		created, updated int64
	)
	err := r.db.QueryRowContext(ctx, `SELECT chat_id, username, first_name, last_name, in_admin_dialog, admin_dialog_lead_id, created_at, updated_at
FROM users WHERE chat_id = ?`, chatID).Scan(&u.ChatID, &u.Username, &u.FirstName, &u.LastName, &inDialog, &dialogLead, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: find user %d: %w", chatID, err)
	}
	u.InAdminDialog = inDialog != 0
	if dialogLead.Valid {
		u.AdminDialogLeadID = domain.Ptr(dialogLead.Int64)
	}
	u.CreatedAt = fromDB(created)
	u.UpdatedAt = fromDB(updated)
	return &u, nil
}

func (r *UserRepo) SetAdminDialog(ctx context.Context, chatID int64, leadID *int64) error {
	inDialog := 0
	if leadID != nil {
		inDialog = 1
	}
	res, err := r.db.ExecContext(ctx, `UPDATE users SET in_admin_dialog = ?, admin_dialog_lead_id = ?, updated_at = ? WHERE chat_id = ?`,
		inDialog, arg(leadID), toDB(r.now()), chatID)
	if err != nil {
		return fmt.Errorf("sqlite: admin dialog for %d: %w", chatID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("sqlite: user %d: %w", chatID, domain.ErrUserNotFound)
	}
	return nil
}

// ListChatIDs is the broadcast audience.
func (r *UserRepo) ListChatIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT chat_id FROM users ORDER BY chat_id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list users: %w", err)
	}
	defer rows.Close()
	ids := make([]int64, 0, 128)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: list users scan: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"detailing-intake-bot/internal/domain"
)

const leadColumns = `id, user_id, status, service, variant, zone, goal, comment,
    vehicle_brand, vehicle_model, vehicle_year, vehicle_skipped, scheduled_when, phone,
    is_urgent, is_red_flag, submitted_at, completed_at, created_at, updated_at`

type LeadRepo struct {
	db *sql.DB
}

func NewLeadRepo(db *sql.DB) *LeadRepo {
	return &LeadRepo{db: db}
}

func (r *LeadRepo) FindActiveLead(ctx context.Context, userID int64) (*domain.Lead, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads
WHERE user_id = ? AND status IN (?, ?)
ORDER BY created_at DESC, id DESC LIMIT 1`, userID, string(domain.LeadNew), string(domain.LeadInWork))
	return r.one(row, "find active lead")
}

func (r *LeadRepo) CreateLead(ctx context.Context, userID int64, at time.Time) (*domain.Lead, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO leads(user_id, status, created_at, updated_at) VALUES(?,?,?,?)`,
		userID, string(domain.LeadNew), toDB(at), toDB(at))
	if err != nil {
		return nil, fmt.Errorf("sqlite: create lead: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("sqlite: create lead id: %w", err)
	}
	return &domain.Lead{
		ID:        id,
		UserID:    userID,
		Status:    domain.LeadNew,
		CreatedAt: at.UTC(),
		UpdatedAt: at.UTC(),
	}, nil
}

// UpdateLead keeps stored values for every absent field of f.
func (r *LeadRepo) UpdateLead(ctx context.Context, id int64, f domain.LeadFields, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE leads SET
    service = COALESCE(?, service),
    variant = COALESCE(?, variant),
    zone = COALESCE(?, zone),
    goal = COALESCE(?, goal),
    comment = COALESCE(?, comment),
    vehicle_brand = COALESCE(?, vehicle_brand),
    vehicle_model = COALESCE(?, vehicle_model),
    vehicle_year = COALESCE(?, vehicle_year),
    vehicle_skipped = COALESCE(?, vehicle_skipped),
    scheduled_when = COALESCE(?, scheduled_when),
    phone = COALESCE(?, phone),
    is_urgent = COALESCE(?, is_urgent),
    is_red_flag = COALESCE(?, is_red_flag),
    updated_at = ?
WHERE id = ?`,
		arg(f.Service), arg(f.Variant), arg(f.Zone), arg(f.Goal), arg(f.Comment),
		arg(f.VehicleBrand), arg(f.VehicleModel), arg(f.VehicleYear), boolArg(f.VehicleSkipped),
		arg(f.ScheduledWhen), arg(f.Phone), boolArg(f.IsUrgent), boolArg(f.IsRedFlag),
		toDB(at), id)
	if err != nil {
		return fmt.Errorf("sqlite: update lead %d: %w", id, err)
	}
	return mustAffect(res, id)
}

func (r *LeadRepo) MarkSubmitted(ctx context.Context, id int64, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE leads SET submitted_at = ?, updated_at = ? WHERE id = ?`, toDB(at), toDB(at), id)
	if err != nil {
		return fmt.Errorf("sqlite: submit lead %d: %w", id, err)
	}
	return mustAffect(res, id)
}

func (r *LeadRepo) GetLead(ctx context.Context, id int64) (*domain.Lead, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = ?`, id)
	l, err := r.one(row, "get lead")
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, fmt.Errorf("sqlite: lead %d: %w", id, domain.ErrLeadNotFound)
	}
	return l, nil
}

func (r *LeadRepo) LatestLead(ctx context.Context, userID int64) (*domain.Lead, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads
WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`, userID)
	return r.one(row, "latest lead")
}

func (r *LeadRepo) RecentLeadCreations(ctx context.Context, userID int64, since time.Time) ([]time.Time, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT created_at FROM leads
WHERE user_id = ? AND created_at >= ? ORDER BY created_at DESC`, userID, toDB(since))
	if err != nil {
		return nil, fmt.Errorf("sqlite: recent leads: %w", err)
	}
	defer rows.Close()
	var out []time.Time
	for rows.Next() {
		var n int64
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("sqlite: recent leads scan: %w", err)
		}
		out = append(out, fromDB(n))
	}
	return out, rows.Err()
}

func (r *LeadRepo) SetStatus(ctx context.Context, id int64, status domain.LeadStatus, at time.Time) error {
	var completed any
	if status == domain.LeadCompleted {
		completed = toDB(at)
	}
	res, err := r.db.ExecContext(ctx, `UPDATE leads SET status = ?, completed_at = COALESCE(?, completed_at), updated_at = ? WHERE id = ?`,
		string(status), completed, toDB(at), id)
	if err != nil {
		return fmt.Errorf("sqlite: set lead %d status: %w", id, err)
	}
	return mustAffect(res, id)
}

func (r *LeadRepo) ListByStatus(ctx context.Context, status domain.LeadStatus, limit int) ([]domain.Lead, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+leadColumns+` FROM leads
WHERE status = ? ORDER BY created_at DESC, id DESC LIMIT ?`, string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list leads: %w", err)
	}
	defer rows.Close()
	out := make([]domain.Lead, 0, limit)
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: list leads scan: %w", err)
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

func (r *LeadRepo) CountByStatus(ctx context.Context, status domain.LeadStatus) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM leads WHERE status = ?`, string(status)).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: count leads: %w", err)
	}
	return n, nil
}

func (r *LeadRepo) one(row *sql.Row, op string) (*domain.Lead, error) {
	l, err := scanLead(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: %s: %w", op, err)
	}
	return l, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLead(s scanner) (*domain.Lead, error) {
	var (
		l                                                          domain.Lead
		status                                                     string
		service, variant, zone, goal, comment, brand, model, when, phone sql.NullString
		year, skipped, urgent, redFlag, submitted, completed       sql.NullInt64
		created, updated                                           int64
	)
	err := s.Scan(&l.ID, &l.UserID, &status, &service, &variant, &zone, &goal, &comment,
		&brand, &model, &year, &skipped, &when, &phone,
		&urgent, &redFlag, &submitted, &completed, &created, &updated)
	if err != nil {
		return nil, err
	}
	l.Status = domain.LeadStatus(status)
	l.Service = nullString(service)
	l.Variant = nullString(variant)
	l.Zone = nullString(zone)
	l.Goal = nullString(goal)
	l.Comment = nullString(comment)
	l.VehicleBrand = nullString(brand)
	l.VehicleModel = nullString(model)
	if year.Valid {
		l.VehicleYear = domain.Ptr(int(year.Int64))
	}
	l.VehicleSkipped = nullBool(skipped)
	l.ScheduledWhen = nullString(when)
	l.Phone = nullString(phone)
	l.IsUrgent = nullBool(urgent)
	l.IsRedFlag = nullBool(redFlag)
	l.SubmittedAt = fromDBNull(submitted)
	l.CompletedAt = fromDBNull(completed)
	l.CreatedAt = fromDB(created)
	l.UpdatedAt = fromDB(updated)
	return &l, nil
}

func mustAffect(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("sqlite: lead %d: %w", id, domain.ErrLeadNotFound)
	}
	return nil
}

// arg turns an absent field into NULL so COALESCE keeps the stored value.
func arg[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

func boolArg(p *bool) any {
	if p == nil {
		return nil
	}
	if *p {
		return 1
	}
	return 0
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return domain.Ptr(s.String)
}

func nullBool(n sql.NullInt64) *bool {
	if !n.Valid {
		return nil
	}
	return domain.Ptr(n.Int64 != 0)
}

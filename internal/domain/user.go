package domain

import (
	"context"
	"time"
)

type User struct {
	ChatID    int64
	Username  string
	FirstName string
	LastName  string

	// Режим диалога с админом
	InAdminDialog     bool
	AdminDialogLeadID *int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DisplayName returns the name used when addressing the user.
func (u User) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	if u.Username != "" {
		return u.Username
	}
	return "друг"
}

type UserRepository interface {
	// UpsertUser creates the user or refreshes its name fields.
	UpsertUser(ctx context.Context, u User) error
	// FindUser returns nil when the user is unknown.
	FindUser(ctx context.Context, chatID int64) (*User, error)
	// SetAdminDialog opens (leadID != nil) or clears the admin dialog flag.
	SetAdminDialog(ctx context.Context, chatID int64, leadID *int64) error
}

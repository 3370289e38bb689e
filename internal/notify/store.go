package notify

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// User is the subset of an account the notifier needs
type User struct {
	ID                   string         `db:"id"`
	Email                string         `db:"email"`
	NotificationsEnabled bool           `db:"email_notifications_enabled"`
	Keywords             pq.StringArray `db:"keywords"`
}

// UserStore loads notification recipients
type UserStore interface {
	GetUser(ctx context.Context, userID string) (*User, error)
}

// PostgresUserStore implements UserStore over the users table
type PostgresUserStore struct {
	db *sqlx.DB
}

// NewPostgresUserStore creates a PostgresUserStore
func NewPostgresUserStore(db *sqlx.DB) *PostgresUserStore {
	return &PostgresUserStore{db: db}
}

// GetUser fetches one user by id
func (s *PostgresUserStore) GetUser(ctx context.Context, userID string) (*User, error) {
	query := `
		SELECT id, email, email_notifications_enabled, keywords
		FROM users
		WHERE id = $1
	`

	var user User
	if err := s.db.GetContext(ctx, &user, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user %s: %w", userID, err)
	}

	return &user, nil
}

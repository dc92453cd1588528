package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-claimform/internal/storage"
)

const userColumns = `id, email, password_hash, state, created_at, updated_at`

// PutUser inserts a new account. Emails are compared case-insensitively.
func (s *Store) PutUser(ctx context.Context, u storage.User) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(u.ID) == "" {
		return fmt.Errorf("user id is required")
	}
	if strings.TrimSpace(u.Email) == "" {
		return fmt.Errorf("email is required")
	}
	if u.State == "" {
		u.State = storage.UserActive
	}

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, normalizeEmail(u.Email), u.PasswordHash, string(u.State), toMillis(u.CreatedAt), toMillis(u.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return storage.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("put user: %w", err)
	}
	return nil
}

// GetUser loads an account by id.
func (s *Store) GetUser(ctx context.Context, id string) (storage.User, error) {
	if err := s.ready(ctx); err != nil {
		return storage.User{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err != nil {
		return storage.User{}, notFound(err)
	}
	return u, nil
}

// FindActiveUserByEmail loads the active account registered with email.
func (s *Store) FindActiveUserByEmail(ctx context.Context, email string) (storage.User, error) {
	if err := s.ready(ctx); err != nil {
		return storage.User{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ? AND state = ?`,
		normalizeEmail(email), string(storage.UserActive),
	)
	u, err := scanUser(row)
	if err != nil {
		return storage.User{}, notFound(err)
	}
	return u, nil
}

// UpdatePassword replaces the stored password hash.
func (s *Store) UpdatePassword(ctx context.Context, id, passwordHash string, at time.Time) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash, toMillis(at), id,
	)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return requireRow(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (storage.User, error) {
	var (
		u         storage.User
		state     string
		createdAt int64
		updatedAt int64
	)
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &state, &createdAt, &updatedAt); err != nil {
		return storage.User{}, err
	}
	u.State = storage.UserState(state)
	u.CreatedAt = fromMillis(createdAt)
	u.UpdatedAt = fromMillis(updatedAt)
	return u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

package db

import (
	"context"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"eatlog/internal/model"
)

var userColumns = []string{"id", "email", "display_name", "password_hash", "created_at", "updated_at"}

// CreateUser inserts a user. Emails are stored lower-cased; a duplicate
// email yields ErrAlreadyExists.
func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	ts := now()
	u.CreatedAt, u.UpdatedAt = ts, ts

	if _, err := s.exec(ctx, builder.Insert("users").
		Columns(userColumns...).
		Values(u.ID, u.Email, u.DisplayName, u.PasswordHash, formatTime(ts), formatTime(ts))); err != nil {
		return mapError(err, "user", u.Email)
	}
	return nil
}

// GetUserByID retrieves a user by ID.
func (s *Store) GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return s.getUser(ctx, squirrel.Eq{"id": id}, id)
}

// GetUserByEmail retrieves a user by email, case-insensitively.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return s.getUser(ctx, squirrel.Eq{"email": email}, email)
}

func (s *Store) getUser(ctx context.Context, where squirrel.Eq, key any) (*model.User, error) {
	row, err := s.queryRow(ctx, builder.Select(userColumns...).From("users").Where(where))
	if err != nil {
		return nil, err
	}

	var (
		u                    model.User
		createdAt, updatedAt string
	)
	if err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.PasswordHash, &createdAt, &updatedAt); err != nil {
		return nil, mapError(err, "user", key)
	}
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if u.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdatePasswordHash replaces the stored password hash.
func (s *Store) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	res, err := s.exec(ctx, builder.Update("users").
		Set("password_hash", hash).
		Set("updated_at", formatTime(now())).
		Where(squirrel.Eq{"id": id}))
	if err != nil {
		return mapError(err, "user", id)
	}
	return requireAffected(res, "user", id)
}

// UpdateDisplayName replaces the display name used for attribution.
func (s *Store) UpdateDisplayName(ctx context.Context, id uuid.UUID, name string) error {
	res, err := s.exec(ctx, builder.Update("users").
		Set("display_name", name).
		Set("updated_at", formatTime(now())).
		Where(squirrel.Eq{"id": id}))
	if err != nil {
		return mapError(err, "user", id)
	}
	return requireAffected(res, "user", id)
}

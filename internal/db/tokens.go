package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"eatlog/internal/model"
)

// CreateResetToken stores a password reset token hash.
func (s *Store) CreateResetToken(ctx context.Context, t *model.PasswordResetToken) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	t.CreatedAt = now()

	if _, err := s.exec(ctx, builder.Insert("password_reset_tokens").
		Columns("id", "user_id", "token_hash", "expires_at", "created_at").
		Values(t.ID, t.UserID, t.TokenHash, formatTime(t.ExpiresAt), formatTime(t.CreatedAt))); err != nil {
		return mapError(err, "reset token", t.ID)
	}
	return nil
}

// GetResetTokenByHash retrieves a reset token by its hash.
func (s *Store) GetResetTokenByHash(ctx context.Context, hash string) (*model.PasswordResetToken, error) {
	row, err := s.queryRow(ctx, builder.Select("id", "user_id", "token_hash", "expires_at", "used_at", "created_at").
		From("password_reset_tokens").
		Where(squirrel.Eq{"token_hash": hash}))
	if err != nil {
		return nil, err
	}

	var (
		t                    model.PasswordResetToken
		expiresAt, createdAt string
		usedAt               sql.NullString
	)
	if err := row.Scan(&t.ID, &t.UserID, &t.TokenHash, &expiresAt, &usedAt, &createdAt); err != nil {
		return nil, mapError(err, "reset token", "hash")
	}
	if t.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return nil, err
	}
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if usedAt.Valid {
		used, err := parseTime(usedAt.String)
		if err != nil {
			return nil, err
		}
		t.UsedAt = &used
	}
	return &t, nil
}

// MarkResetTokenUsed consumes a token. A token that is already used yields
// ErrNotFound so the same token can never be exchanged twice.
func (s *Store) MarkResetTokenUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	res, err := s.exec(ctx, builder.Update("password_reset_tokens").
		Set("used_at", formatTime(at)).
		Where(squirrel.Eq{"id": id, "used_at": nil}))
	if err != nil {
		return mapError(err, "reset token", id)
	}
	if err := requireAffected(res, "reset token", id); err != nil {
		return fmt.Errorf("consume: %w", err)
	}
	return nil
}

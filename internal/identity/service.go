// Package identity is the local identity provider: accounts, password
// sessions, reset tokens and the display name used for attribution.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"eatlog/internal/config"
	"eatlog/internal/model"
)

type userRepo interface {
	CreateUser(ctx context.Context, u *model.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
	UpdateDisplayName(ctx context.Context, id uuid.UUID, name string) error
}

type tokenRepo interface {
	CreateResetToken(ctx context.Context, t *model.PasswordResetToken) error
	GetResetTokenByHash(ctx context.Context, hash string) (*model.PasswordResetToken, error)
	MarkResetTokenUsed(ctx context.Context, id uuid.UUID, at time.Time) error
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type sessionSigner interface {
	GenerateSessionToken(userID uuid.UUID) (string, time.Time, error)
	ValidateSessionToken(token string) (uuid.UUID, error)
}

// Session is a signed-in user with the token proving it.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *model.User
}

// Service implements identity operations.
type Service struct {
	log    *slog.Logger
	users  userRepo
	tokens tokenRepo
	tx     txManager
	jwt    sessionSigner
	cfg    config.AuthConfig
}

// NewService creates a new identity service.
func NewService(logger *slog.Logger, users userRepo, tokens tokenRepo, tx txManager, jwt sessionSigner, cfg config.AuthConfig) *Service {
	return &Service{
		log:    logger.With("service", "identity"),
		users:  users,
		tokens: tokens,
		tx:     tx,
		jwt:    jwt,
		cfg:    cfg,
	}
}

// SignUp creates an account and signs it in.
// Returns ErrAlreadyExists if the email is taken.
func (s *Service) SignUp(ctx context.Context, input SignUpInput) (*Session, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.DisplayName = strings.TrimSpace(input.DisplayName)

	if err := input.Validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("identity.SignUp hash password: %w", err)
	}

	user := &model.User{Email: input.Email, DisplayName: input.DisplayName, PasswordHash: string(hash)}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, model.ErrAlreadyExists) {
			return nil, fmt.Errorf("identity.SignUp: %w", model.ErrAlreadyExists)
		}
		return nil, fmt.Errorf("identity.SignUp: %w", err)
	}

	s.log.InfoContext(ctx, "user signed up", slog.String("user_id", user.ID.String()))

	return s.issue(user)
}

// SignIn authenticates with email and password.
// Returns ErrUnauthorized if the email is unknown or the password is wrong.
func (s *Service) SignIn(ctx context.Context, input SignInInput) (*Session, error) {
	input.Email = strings.TrimSpace(input.Email)

	if err := input.Validate(); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.ErrUnauthorized
		}
		return nil, fmt.Errorf("identity.SignIn get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, model.ErrUnauthorized
	}

	s.log.InfoContext(ctx, "user signed in", slog.String("user_id", user.ID.String()))

	return s.issue(user)
}

// Session resolves a session token to its user.
// Returns ErrUnauthorized for invalid or expired tokens and deleted users.
func (s *Service) Session(ctx context.Context, token string) (*model.User, error) {
	userID, err := s.jwt.ValidateSessionToken(token)
	if err != nil {
		s.log.DebugContext(ctx, "session rejected", slog.String("error", err.Error()))
		return nil, model.ErrUnauthorized
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.ErrUnauthorized
		}
		return nil, fmt.Errorf("identity.Session get user: %w", err)
	}
	return user, nil
}

// RequestPasswordReset issues a one-time reset token for the account.
// Unknown emails succeed with an empty token so callers cannot probe for
// accounts; delivery of the token is the caller's concern.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if errs := validateEmail(email); len(errs) > 0 {
		return "", &model.ValidationError{Errors: errs}
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			s.log.InfoContext(ctx, "password reset requested for unknown email")
			return "", nil
		}
		return "", fmt.Errorf("identity.RequestPasswordReset get user: %w", err)
	}

	raw, hash, err := GenerateResetToken()
	if err != nil {
		return "", fmt.Errorf("identity.RequestPasswordReset: %w", err)
	}

	token := &model.PasswordResetToken{
		UserID:    user.ID,
		TokenHash: hash,
		ExpiresAt: time.Now().Add(s.cfg.ResetTokenTTL),
	}
	if err := s.tokens.CreateResetToken(ctx, token); err != nil {
		return "", fmt.Errorf("identity.RequestPasswordReset store token: %w", err)
	}

	s.log.InfoContext(ctx, "password reset requested", slog.String("user_id", user.ID.String()))
	return raw, nil
}

// ResetPassword exchanges a reset token for a new password and signs the
// user in. Used, expired and unknown tokens yield ErrUnauthorized.
func (s *Service) ResetPassword(ctx context.Context, input ResetPasswordInput) (*Session, error) {
	input.Token = strings.TrimSpace(input.Token)

	if err := input.Validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("identity.ResetPassword hash password: %w", err)
	}

	var user *model.User
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		token, err := s.tokens.GetResetTokenByHash(ctx, HashToken(input.Token))
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.ErrUnauthorized
			}
			return fmt.Errorf("get token: %w", err)
		}

		now := time.Now()
		if token.UsedAt != nil || now.After(token.ExpiresAt) {
			return model.ErrUnauthorized
		}

		if err := s.tokens.MarkResetTokenUsed(ctx, token.ID, now); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.ErrUnauthorized
			}
			return fmt.Errorf("consume token: %w", err)
		}

		if err := s.users.UpdatePasswordHash(ctx, token.UserID, string(hash)); err != nil {
			return fmt.Errorf("update password: %w", err)
		}

		user, err = s.users.GetUserByID(ctx, token.UserID)
		if err != nil {
			return fmt.Errorf("get user: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, model.ErrUnauthorized) {
			return nil, model.ErrUnauthorized
		}
		return nil, fmt.Errorf("identity.ResetPassword: %w", err)
	}

	s.log.InfoContext(ctx, "password reset", slog.String("user_id", user.ID.String()))

	return s.issue(user)
}

// UpdatePassword replaces the password of userID after checking the current one.
// A wrong current password yields ErrUnauthorized.
func (s *Service) UpdatePassword(ctx context.Context, userID uuid.UUID, input UpdatePasswordInput) error {
	if err := input.Validate(); err != nil {
		return err
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.ErrUnauthorized
		}
		return fmt.Errorf("identity.UpdatePassword get user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.CurrentPassword)); err != nil {
		return model.ErrUnauthorized
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), s.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("identity.UpdatePassword hash password: %w", err)
	}
	if err := s.users.UpdatePasswordHash(ctx, userID, string(hash)); err != nil {
		return fmt.Errorf("identity.UpdatePassword: %w", err)
	}

	s.log.InfoContext(ctx, "password updated", slog.String("user_id", userID.String()))
	return nil
}

// UpdateDisplayName changes the name used to attribute new experiences.
func (s *Service) UpdateDisplayName(ctx context.Context, userID uuid.UUID, name string) (*model.User, error) {
	name = strings.TrimSpace(name)
	if len(name) > 100 {
		return nil, model.NewValidationError("display_name", "too long")
	}

	if err := s.users.UpdateDisplayName(ctx, userID, name); err != nil {
		return nil, fmt.Errorf("identity.UpdateDisplayName: %w", err)
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("identity.UpdateDisplayName get user: %w", err)
	}
	return user, nil
}

func (s *Service) issue(user *model.User) (*Session, error) {
	token, expiresAt, err := s.jwt.GenerateSessionToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}
	return &Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

package identity

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eatlog/internal/config"
	"eatlog/internal/db"
	"eatlog/internal/model"
)

const testSecret = "this-is-a-very-long-jwt-secret-for-testing-32+"

func testCfg() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:     testSecret,
		Issuer:        "eatlog-test",
		SessionTTL:    time.Hour,
		ResetTokenTTL: time.Hour,
		BcryptCost:    4, // minimum cost for fast tests
	}
}

func newTestService(t *testing.T) (*Service, *db.Store) {
	t.Helper()

	conn, err := db.Open(context.Background(), filepath.Join(t.TempDir(), "eatlog.db"), 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	cfg := testCfg()
	store := db.NewStore(conn)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(logger, store, store, db.NewTxManager(conn), NewJWTManager(cfg.JWTSecret, cfg.Issuer, cfg.SessionTTL), cfg)
	return svc, store
}

func TestService_SignUpAndSignIn(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	sess, err := svc.SignUp(ctx, SignUpInput{Email: " Brett@Example.com ", Password: "secret123", DisplayName: "Brett"})
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
	assert.Equal(t, "brett@example.com", sess.User.Email)
	assert.NotEqual(t, "secret123", sess.User.PasswordHash)

	_, err = svc.SignUp(ctx, SignUpInput{Email: "brett@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, model.ErrAlreadyExists)

	signedIn, err := svc.SignIn(ctx, SignInInput{Email: "BRETT@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, signedIn.User.ID)

	user, err := svc.Session(ctx, signedIn.Token)
	require.NoError(t, err)
	assert.Equal(t, "Brett", user.DisplayName)
}

func TestService_SignInFailures(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, SignUpInput{Email: "jean@example.com", Password: "secret123"})
	require.NoError(t, err)

	_, err = svc.SignIn(ctx, SignInInput{Email: "jean@example.com", Password: "wrong-pass"})
	assert.ErrorIs(t, err, model.ErrUnauthorized)

	_, err = svc.SignIn(ctx, SignInInput{Email: "nobody@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, model.ErrUnauthorized)

	_, err = svc.SignIn(ctx, SignInInput{})
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestService_SignUpValidation(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.SignUp(context.Background(), SignUpInput{Email: "not-an-email", Password: "123"})
	require.ErrorIs(t, err, model.ErrValidation)

	var ve *model.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.True(t, ve.HasField("email"))
	assert.True(t, ve.HasField("password"))
}

func TestService_SessionRejectsBadTokens(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Session(ctx, "")
	assert.ErrorIs(t, err, model.ErrUnauthorized)

	_, err = svc.Session(ctx, "garbage.token.value")
	assert.ErrorIs(t, err, model.ErrUnauthorized)

	other := NewJWTManager("another-secret-that-is-long-enough-123456", "eatlog-test", time.Hour)
	forged, _, err := other.GenerateSessionToken(uuid.New())
	require.NoError(t, err)
	_, err = svc.Session(ctx, forged)
	assert.ErrorIs(t, err, model.ErrUnauthorized)

	orphan, _, err := NewJWTManager(testSecret, "eatlog-test", time.Hour).GenerateSessionToken(uuid.New())
	require.NoError(t, err)
	_, err = svc.Session(ctx, orphan)
	assert.ErrorIs(t, err, model.ErrUnauthorized)
}

func TestService_PasswordResetFlow(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.SignUp(ctx, SignUpInput{Email: "jean@example.com", Password: "old-password"})
	require.NoError(t, err)

	raw, err := svc.RequestPasswordReset(ctx, "jean@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	sess, err := svc.ResetPassword(ctx, ResetPasswordInput{Token: raw, NewPassword: "new-password"})
	require.NoError(t, err)
	assert.Equal(t, "jean@example.com", sess.User.Email)

	_, err = svc.SignIn(ctx, SignInInput{Email: "jean@example.com", Password: "old-password"})
	assert.ErrorIs(t, err, model.ErrUnauthorized)
	_, err = svc.SignIn(ctx, SignInInput{Email: "jean@example.com", Password: "new-password"})
	require.NoError(t, err)

	_, err = svc.ResetPassword(ctx, ResetPasswordInput{Token: raw, NewPassword: "third-password"})
	assert.ErrorIs(t, err, model.ErrUnauthorized, "a token can be used once")

	_, err = svc.ResetPassword(ctx, ResetPasswordInput{Token: "unknown", NewPassword: "third-password"})
	assert.ErrorIs(t, err, model.ErrUnauthorized)
}

func TestService_PasswordResetExpired(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	sess, err := svc.SignUp(ctx, SignUpInput{Email: "jean@example.com", Password: "old-password"})
	require.NoError(t, err)

	raw, hash, err := GenerateResetToken()
	require.NoError(t, err)
	require.NoError(t, store.CreateResetToken(ctx, &model.PasswordResetToken{
		UserID:    sess.User.ID,
		TokenHash: hash,
		ExpiresAt: time.Now().Add(-time.Minute),
	}))

	_, err = svc.ResetPassword(ctx, ResetPasswordInput{Token: raw, NewPassword: "new-password"})
	assert.ErrorIs(t, err, model.ErrUnauthorized)
}

func TestService_PasswordResetUnknownEmail(t *testing.T) {
	svc, _ := newTestService(t)

	raw, err := svc.RequestPasswordReset(context.Background(), "ghost@example.com")
	require.NoError(t, err)
	assert.Empty(t, raw)

	_, err = svc.RequestPasswordReset(context.Background(), "ghost")
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestService_UpdatePassword(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	sess, err := svc.SignUp(ctx, SignUpInput{Email: "jean@example.com", Password: "old-password"})
	require.NoError(t, err)

	err = svc.UpdatePassword(ctx, sess.User.ID, UpdatePasswordInput{CurrentPassword: "wrong-password", NewPassword: "new-password"})
	assert.ErrorIs(t, err, model.ErrUnauthorized)

	err = svc.UpdatePassword(ctx, sess.User.ID, UpdatePasswordInput{CurrentPassword: "old-password", NewPassword: "abc"})
	assert.ErrorIs(t, err, model.ErrValidation)

	require.NoError(t, svc.UpdatePassword(ctx, sess.User.ID, UpdatePasswordInput{CurrentPassword: "old-password", NewPassword: "new-password"}))
	_, err = svc.SignIn(ctx, SignInInput{Email: "jean@example.com", Password: "new-password"})
	require.NoError(t, err)
	_, err = svc.SignIn(ctx, SignInInput{Email: "jean@example.com", Password: "old-password"})
	assert.ErrorIs(t, err, model.ErrUnauthorized)
}

func TestService_UpdateDisplayName(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	sess, err := svc.SignUp(ctx, SignUpInput{Email: "jean@example.com", Password: "secret123"})
	require.NoError(t, err)

	user, err := svc.UpdateDisplayName(ctx, sess.User.ID, "  Jean ")
	require.NoError(t, err)
	assert.Equal(t, "Jean", user.DisplayName)

	_, err = svc.UpdateDisplayName(ctx, uuid.New(), "Nobody")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestJWTManager_ExpiredToken(t *testing.T) {
	m := NewJWTManager(testSecret, "eatlog-test", -time.Minute)
	token, _, err := m.GenerateSessionToken(uuid.New())
	require.NoError(t, err)

	_, err = m.ValidateSessionToken(token)
	assert.Error(t, err)
}

func TestHashToken(t *testing.T) {
	assert.Equal(t, HashToken("abc"), HashToken("abc"))
	assert.NotEqual(t, HashToken("abc"), HashToken("abd"))
	assert.Len(t, HashToken("abc"), 64)
}

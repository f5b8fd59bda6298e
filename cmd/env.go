package cmd

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"eatlog/internal/app"
	"eatlog/internal/blob"
	"eatlog/internal/config"
	"eatlog/internal/db"
	"eatlog/internal/identity"
	"eatlog/internal/journal"
	"eatlog/internal/model"
	"eatlog/internal/notify"
)

var errNotSignedIn = fmt.Errorf("not signed in; run `eatlog login` or `eatlog signup` (%w)", model.ErrUnauthorized)

// env is everything a command needs, wired from the configuration.
type env struct {
	cfg      *config.Config
	logger   *slog.Logger
	logFile  *os.File
	conn     *sql.DB
	store    *db.Store
	blobs    *blob.FS
	notices  *notify.Bus
	identity *identity.Service
	journal  *journal.Service

	// Notices received while a command runs; nil for the TUI, which
	// subscribes on its own.
	received    <-chan notify.Notice
	unsubscribe func()
}

func openEnv(ctx context.Context, opts *rootOptions, tui bool) (*env, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.dataDir != "" {
		if err := cfg.MoveDataDir(opts.dataDir); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
	}
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	e := &env{cfg: cfg}
	if err := e.openLogger(opts.verbose); err != nil {
		return nil, err
	}

	if cfg.Auth.JWTSecret == "" {
		secret, err := loadOrCreateSecret(cfg.DataDir)
		if err != nil {
			e.Close()
			return nil, err
		}
		cfg.Auth.JWTSecret = secret
	}

	conn, err := db.Open(ctx, cfg.Database.Path, cfg.Database.BusyTimeout)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.conn = conn

	blobs, err := blob.New(cfg.Storage.Dir, cfg.Storage.PublicBaseURL)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.blobs = blobs

	e.store = db.NewStore(conn)
	tx := db.NewTxManager(conn)
	e.notices = notify.NewBus(32)
	e.identity = identity.NewService(e.logger, e.store, e.store, tx,
		identity.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.SessionTTL), cfg.Auth)
	e.journal = journal.NewService(e.logger, journal.Deps{
		Places:      e.store,
		Experiences: e.store,
		Details:     e.store,
		Photos:      e.store,
		Blobs:       blobs,
		Tx:          tx,
		Notices:     e.notices,
	}, *cfg)

	if !tui {
		e.received, e.unsubscribe = e.notices.Subscribe()
	}

	e.logger.Debug("environment ready",
		slog.String("data_dir", cfg.DataDir),
		slog.String("database", cfg.Database.Path),
		slog.String("storage", cfg.Storage.Dir),
	)
	return e, nil
}

// openLogger logs to stderr when verbose, otherwise to the configured log
// file so command output and the TUI stay clean.
func (e *env) openLogger(verbose bool) error {
	if verbose {
		e.logger = app.NewLogger(e.cfg.Log, os.Stderr)
		return nil
	}

	path := e.cfg.Log.File
	if path == "" {
		path = filepath.Join(e.cfg.DataDir, "eatlog.log")
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	e.logFile = f
	e.logger = app.NewLogger(e.cfg.Log, f)
	return nil
}

func (e *env) Close() {
	if e.unsubscribe != nil {
		e.unsubscribe()
	}
	if e.conn != nil {
		if err := e.conn.Close(); err != nil {
			e.logger.Warn("failed to close database", "error", err)
		}
	}
	if e.logFile != nil {
		_ = e.logFile.Close()
	}
}

// currentUser resolves the saved session. ErrUnauthorized means there is
// no session or it is no longer valid.
func (e *env) currentUser(ctx context.Context) (*model.User, error) {
	token, err := loadSession(e.cfg.DataDir)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, errNotSignedIn
	}
	user, err := e.identity.Session(ctx, token)
	if errors.Is(err, model.ErrUnauthorized) {
		return nil, errNotSignedIn
	}
	return user, err
}

// actor returns the journal actor of the signed-in user.
func (e *env) actor(ctx context.Context) (journal.Actor, error) {
	user, err := e.currentUser(ctx)
	if err != nil {
		return journal.Actor{}, err
	}
	return e.journal.ActorFor(user), nil
}

// flushNotices prints the notices published so far. Errors go to errw.
func (e *env) flushNotices(w, errw io.Writer) {
	if e.received == nil {
		return
	}
	for {
		select {
		case n, ok := <-e.received:
			if !ok {
				return
			}
			if n.Level == notify.Error {
				fmt.Fprintln(errw, "warning:", n.Message)
			} else {
				fmt.Fprintln(w, n.Message)
			}
		default:
			return
		}
	}
}

func secretPath(dataDir string) string {
	return filepath.Join(dataDir, "jwt_secret")
}

// loadOrCreateSecret returns the per-installation session signing secret,
// generating it on first use. The file is readable by the owner only.
func loadOrCreateSecret(dataDir string) (string, error) {
	data, err := os.ReadFile(secretPath(dataDir))
	if err == nil {
		if secret := strings.TrimSpace(string(data)); len(secret) >= 32 {
			return secret, nil
		}
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to read session secret: %w", err)
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session secret: %w", err)
	}
	secret := hex.EncodeToString(buf)
	if err := os.WriteFile(secretPath(dataDir), []byte(secret+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("failed to save session secret: %w", err)
	}
	return secret, nil
}

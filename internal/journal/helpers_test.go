package journal

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"eatlog/internal/blob"
	"eatlog/internal/config"
	"eatlog/internal/db"
	"eatlog/internal/model"
	"eatlog/internal/notify"
)

var fixedNow = time.Date(2024, 6, 10, 18, 30, 0, 0, time.UTC)

type fixture struct {
	svc   *Service
	store *db.Store
	blobs *blob.FS
	bus   *notify.Bus
	actor Actor
}

func testConfig() config.Config {
	return config.Config{
		Storage: config.StorageConfig{MaxImageEdge: 2048, JPEGQuality: 85},
		Diners:  config.DinersConfig{First: "Brett", Second: "Jean"},
		Journal: config.JournalConfig{OperationTimeout: 10 * time.Second, MaxPhotos: 5, TimeZone: "UTC"},
	}
}

// newFixture wires the service to a real SQLite store and a temp blob
// directory. wrap, when given, replaces the experience repository.
func newFixture(t *testing.T, wrap ...func(*db.Store) experienceRepo) *fixture {
	t.Helper()

	conn, err := db.Open(context.Background(), filepath.Join(t.TempDir(), "eatlog.db"), 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	store := db.NewStore(conn)
	user := &model.User{Email: "brett@example.com", DisplayName: "Brett", PasswordHash: "x"}
	require.NoError(t, store.CreateUser(context.Background(), user))

	fs, err := blob.New(filepath.Join(t.TempDir(), "photos"), "")
	require.NoError(t, err)

	var experiences experienceRepo = store
	if len(wrap) > 0 {
		experiences = wrap[0](store)
	}

	bus := notify.NewBus(32)
	svc := NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), Deps{
		Places:      store,
		Experiences: experiences,
		Details:     store,
		Photos:      store,
		Blobs:       fs,
		Tx:          db.NewTxManager(conn),
		Notices:     bus,
	}, testConfig())
	svc.now = func() time.Time { return fixedNow }

	return &fixture{svc: svc, store: store, blobs: fs, bus: bus, actor: svc.ActorFor(user)}
}

func pngData(t *testing.T, shade uint8) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 12))
	for x := 0; x < 16; x++ {
		for y := 0; y < 12; y++ {
			img.Set(x, y, color.RGBA{R: shade, G: uint8(x * 10), B: uint8(y * 10), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func uploads(t *testing.T, n int) []PhotoUpload {
	t.Helper()
	out := make([]PhotoUpload, n)
	for i := range out {
		out[i] = PhotoUpload{Data: pngData(t, uint8(40*i))}
	}
	return out
}

func date(y int, m time.Month, d int) *time.Time {
	v := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &v
}

func rating(v float64) *float64 { return &v }

func (f *fixture) create(t *testing.T, in CreateInput) *model.Experience {
	t.Helper()
	res, err := f.svc.Create(context.Background(), f.actor, in)
	require.NoError(t, err)
	require.Zero(t, res.FailedPhotos)
	return res.Experience
}

func (f *fixture) requireDenseOrder(t *testing.T, experienceID uuid.UUID) []model.Photo {
	t.Helper()
	photos, err := f.store.ListPhotos(context.Background(), experienceID)
	require.NoError(t, err)
	featured := 0
	for n, p := range photos {
		require.Equal(t, n, p.SortOrder, "photo %d out of place", n)
		if p.Featured {
			featured++
		}
	}
	require.LessOrEqual(t, featured, 1)
	return photos
}

func (f *fixture) blobExists(t *testing.T, path string) bool {
	t.Helper()
	_, err := f.blobs.Download(context.Background(), path)
	if errors.Is(err, model.ErrNotFound) {
		return false
	}
	require.NoError(t, err)
	return true
}

func featuredID(photos []model.Photo) uuid.UUID {
	for _, p := range photos {
		if p.Featured {
			return p.ID
		}
	}
	return uuid.Nil
}

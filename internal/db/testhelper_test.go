package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"eatlog/internal/model"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "eatlog.db"), 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func setupStore(t *testing.T) (*Store, *TxManager, *model.User) {
	t.Helper()

	db := setupDB(t)
	store := NewStore(db)
	user := &model.User{Email: "diner@example.com", DisplayName: "Brett", PasswordHash: "x"}
	require.NoError(t, store.CreateUser(context.Background(), user))
	return store, NewTxManager(db), user
}

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func rating(v float64) *float64 { return &v }

func seedExperience(t *testing.T, s *Store, userID uuid.UUID, typ model.ExperienceType, name string) *model.Experience {
	t.Helper()
	ctx := context.Background()

	e := &model.Experience{UserID: userID, Type: typ, Name: name, CreatedBy: model.DinerFirst}
	if typ != model.TypeWishlist {
		e.Date = day(2024, 5, 1)
	}
	require.NoError(t, s.InsertExperience(ctx, e))
	require.NoError(t, s.InsertDetails(ctx, e.ID, model.EmptyDetails(typ)))
	return e
}

func seedPhotos(t *testing.T, s *Store, e *model.Experience, n int) []model.Photo {
	t.Helper()
	var photos []model.Photo
	for i := 0; i < n; i++ {
		p := model.Photo{
			ID:           uuid.New(),
			ExperienceID: e.ID,
			Featured:     i == 0,
			SortOrder:    i,
		}
		p.StoragePath = e.UserID.String() + "/" + e.ID.String() + "/" + p.ID.String() + ".jpg"
		require.NoError(t, s.InsertPhoto(context.Background(), &p))
		photos = append(photos, p)
	}
	return photos
}

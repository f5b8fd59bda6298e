package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eatlog/internal/model"
)

func TestOpen_MigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "eatlog.db")

	db, err := Open(context.Background(), path, time.Second)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(context.Background(), path, time.Second)
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

func TestExperience_InsertAndGet(t *testing.T) {
	s, _, user := setupStore(t)
	ctx := context.Background()

	place := &model.Place{UserID: user.ID, Name: "Lotus Garden", Cuisine: "Thai", PriceRange: "$$"}
	require.NoError(t, s.CreatePlace(ctx, place))

	e := &model.Experience{
		UserID:    user.ID,
		PlaceID:   &place.ID,
		Type:      model.TypeRestaurant,
		Name:      "Lotus Garden",
		Date:      day(2024, 3, 9),
		MealTime:  model.MealDinner,
		Notes:     "Great curry",
		Tags:      []string{"spicy", "date night"},
		CreatedBy: model.DinerSecond,
	}
	require.NoError(t, s.InsertExperience(ctx, e))
	require.NoError(t, s.InsertDetails(ctx, e.ID, &model.RestaurantDetails{
		Ratings:       model.Ratings{First: rating(4.5)},
		DishesOrdered: "Green curry",
		Cost:          rating(42),
	}))

	got, err := s.GetExperience(ctx, user.ID, e.ID)
	require.NoError(t, err)

	assert.Equal(t, model.TypeRestaurant, got.Type)
	assert.Equal(t, "2024-03-09", got.DateString())
	assert.Equal(t, model.MealDinner, got.MealTime)
	assert.Equal(t, []string{"date night", "spicy"}, got.Tags)
	assert.Equal(t, model.DinerSecond, got.CreatedBy)
	assert.Equal(t, 1, got.Version)
	require.NotNil(t, got.Place)
	assert.Equal(t, "Lotus Garden", got.Place.Name)
	assert.Equal(t, model.PriceRange("$$"), got.Place.PriceRange)

	d, ok := got.Details.(*model.RestaurantDetails)
	require.True(t, ok)
	assert.Equal(t, 4.5, *d.Ratings.First)
	assert.Nil(t, d.Ratings.Second)
	assert.Equal(t, "Green curry", d.DishesOrdered)
	assert.Equal(t, 42.0, *d.Cost)
}

func TestExperience_GetOtherUsersRowIsNotFound(t *testing.T) {
	s, _, user := setupStore(t)
	e := seedExperience(t, s, user.ID, model.TypeHomeMeal, "Pasta")

	_, err := s.GetExperience(context.Background(), uuid.New(), e.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestExperience_WishlistDateCheck(t *testing.T) {
	s, _, user := setupStore(t)
	ctx := context.Background()

	withDate := &model.Experience{UserID: user.ID, Type: model.TypeWishlist, Name: "Noma", Date: day(2024, 1, 1)}
	assert.ErrorIs(t, s.InsertExperience(ctx, withDate), model.ErrValidation)

	noDate := &model.Experience{UserID: user.ID, Type: model.TypeRestaurant, Name: "Noma"}
	assert.ErrorIs(t, s.InsertExperience(ctx, noDate), model.ErrValidation)
}

func TestDetails_SecondRowRejected(t *testing.T) {
	s, _, user := setupStore(t)
	e := seedExperience(t, s, user.ID, model.TypeRestaurant, "Diner")

	err := s.InsertDetails(context.Background(), e.ID, &model.RestaurantDetails{})
	assert.ErrorIs(t, err, model.ErrAlreadyExists)

	n, err := s.CountDetails(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDetails_UpsertRepairsMissingRow(t *testing.T) {
	s, _, user := setupStore(t)
	ctx := context.Background()

	e := &model.Experience{UserID: user.ID, Type: model.TypeHomeMeal, Name: "Ramen", Date: day(2024, 2, 2)}
	require.NoError(t, s.InsertExperience(ctx, e))

	got, err := s.GetExperience(ctx, user.ID, e.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Details)

	cook := 40
	require.NoError(t, s.UpsertDetails(ctx, e.ID, &model.HomeMealDetails{
		Cuisine:         "Japanese",
		Ingredients:     []string{"noodles", "broth"},
		CookTimeMinutes: &cook,
		Difficulty:      model.DifficultyHard,
	}))
	require.NoError(t, s.UpsertDetails(ctx, e.ID, &model.HomeMealDetails{
		Cuisine:     "Japanese",
		Ingredients: []string{"noodles", "broth", "egg"},
	}))

	got, err = s.GetExperience(ctx, user.ID, e.ID)
	require.NoError(t, err)
	d, ok := got.Details.(*model.HomeMealDetails)
	require.True(t, ok)
	assert.Equal(t, []string{"noodles", "broth", "egg"}, d.Ingredients)
	assert.Nil(t, d.CookTimeMinutes)
}

func TestDetails_WishlistDefaults(t *testing.T) {
	s, _, user := setupStore(t)
	ctx := context.Background()

	e := &model.Experience{UserID: user.ID, Type: model.TypeWishlist, Name: "Tacos"}
	require.NoError(t, s.InsertExperience(ctx, e))
	require.NoError(t, s.InsertDetails(ctx, e.ID, &model.WishlistDetails{}))

	got, err := s.GetExperience(ctx, user.ID, e.ID)
	require.NoError(t, err)
	d := got.Details.(*model.WishlistDetails)
	assert.Equal(t, model.PriorityMedium, d.Priority)
	assert.Equal(t, model.WishlistRestaurant, d.WishlistType)
	assert.Nil(t, got.Date)
}

func TestUpdateExperience_VersionGuard(t *testing.T) {
	s, _, user := setupStore(t)
	ctx := context.Background()
	e := seedExperience(t, s, user.ID, model.TypeRestaurant, "Bistro")

	e.Name = "Bistro Paul"
	e.Tags = []string{"french"}
	require.NoError(t, s.UpdateExperience(ctx, e, 1))
	assert.Equal(t, 2, e.Version)

	stale := *e
	stale.Name = "Overwritten"
	err := s.UpdateExperience(ctx, &stale, 1)
	assert.ErrorIs(t, err, model.ErrConflict)

	got, err := s.GetExperience(ctx, user.ID, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bistro Paul", got.Name)
	assert.Equal(t, []string{"french"}, got.Tags)

	missing := &model.Experience{ID: uuid.New(), UserID: user.ID, Type: model.TypeRestaurant, Name: "x", Date: day(2024, 1, 1)}
	assert.ErrorIs(t, s.UpdateExperience(ctx, missing, 1), model.ErrNotFound)
}

func TestDeleteExperience_Cascades(t *testing.T) {
	s, _, user := setupStore(t)
	ctx := context.Background()

	e := seedExperience(t, s, user.ID, model.TypeRestaurant, "Cascade Cafe")
	require.NoError(t, s.ReplaceTags(ctx, e.ID, []string{"brunch"}))
	seedPhotos(t, s, e, 3)

	require.NoError(t, s.DeleteExperience(ctx, user.ID, e.ID))

	n, err := s.CountDetails(ctx, e.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	photos, err := s.ListPhotos(ctx, e.ID)
	require.NoError(t, err)
	assert.Empty(t, photos)

	var tags int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM experience_tags WHERE experience_id = ?", e.ID.String()).Scan(&tags))
	assert.Zero(t, tags)

	assert.ErrorIs(t, s.DeleteExperience(ctx, user.ID, e.ID), model.ErrNotFound)
}

func TestPhotos_AtMostOneFeatured(t *testing.T) {
	s, tx, user := setupStore(t)
	ctx := context.Background()

	e := seedExperience(t, s, user.ID, model.TypeHomeMeal, "Soup")
	photos := seedPhotos(t, s, e, 3)

	dup := model.Photo{ExperienceID: e.ID, StoragePath: "dup.jpg", Featured: true, SortOrder: 3}
	assert.ErrorIs(t, s.InsertPhoto(ctx, &dup), model.ErrAlreadyExists)

	for _, target := range []int{2, 1, 1, 0, 2} {
		require.NoError(t, tx.RunInTx(ctx, func(ctx context.Context) error {
			return s.SetFeaturedPhoto(ctx, e.ID, photos[target].ID)
		}))

		got, err := s.ListPhotos(ctx, e.ID)
		require.NoError(t, err)
		featured := 0
		for _, p := range got {
			if p.Featured {
				featured++
				assert.Equal(t, photos[target].ID, p.ID)
			}
		}
		assert.Equal(t, 1, featured)
	}

	err := s.SetFeaturedPhoto(ctx, e.ID, uuid.New())
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestPhotos_SortOrderAndListing(t *testing.T) {
	s, _, user := setupStore(t)
	ctx := context.Background()

	e := seedExperience(t, s, user.ID, model.TypeRestaurant, "Gallery")
	photos := seedPhotos(t, s, e, 3)

	require.NoError(t, s.SetPhotoSortOrder(ctx, photos[0].ID, 2))
	require.NoError(t, s.SetPhotoSortOrder(ctx, photos[2].ID, 0))

	got, err := s.ListPhotos(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, photos[2].ID, got[0].ID)
	assert.Equal(t, photos[1].ID, got[1].ID)
	assert.Equal(t, photos[0].ID, got[2].ID)

	require.NoError(t, s.DeletePhoto(ctx, photos[1].ID))
	assert.ErrorIs(t, s.DeletePhoto(ctx, photos[1].ID), model.ErrNotFound)
}

func TestListExperiences_Composed(t *testing.T) {
	s, _, user := setupStore(t)
	ctx := context.Background()

	a := seedExperience(t, s, user.ID, model.TypeRestaurant, "A")
	b := seedExperience(t, s, user.ID, model.TypeWishlist, "B")
	seedPhotos(t, s, a, 2)
	require.NoError(t, s.ReplaceTags(ctx, b.ID, []string{"someday"}))

	other, err := s.GetUserByEmail(ctx, "DINER@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, other.ID)

	list, err := s.ListExperiences(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)

	byName := map[string]*model.Experience{}
	for _, e := range list {
		byName[e.Name] = e
		require.NotNil(t, e.Details)
		assert.Equal(t, e.Type, e.Details.Kind())
	}
	assert.Len(t, byName["A"].Photos, 2)
	assert.Equal(t, []string{"someday"}, byName["B"].Tags)
}

func TestTxManager_RollbackOnError(t *testing.T) {
	s, tx, user := setupStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	var id uuid.UUID
	err := tx.RunInTx(ctx, func(ctx context.Context) error {
		e := &model.Experience{UserID: user.ID, Type: model.TypeRestaurant, Name: "Ghost", Date: day(2024, 1, 1)}
		if err := s.InsertExperience(ctx, e); err != nil {
			return err
		}
		id = e.ID
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.GetExperience(ctx, user.ID, id)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestTxManager_RollbackOnPanic(t *testing.T) {
	s, tx, user := setupStore(t)
	ctx := context.Background()

	var id uuid.UUID
	assert.Panics(t, func() {
		_ = tx.RunInTx(ctx, func(ctx context.Context) error {
			e := &model.Experience{UserID: user.ID, Type: model.TypeWishlist, Name: "Ghost"}
			if err := s.InsertExperience(ctx, e); err != nil {
				return err
			}
			id = e.ID
			panic("boom")
		})
	})

	_, err := s.GetExperience(ctx, user.ID, id)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestPlaces_UpdateAndSearch(t *testing.T) {
	s, _, user := setupStore(t)
	ctx := context.Background()

	for _, name := range []string{"Thai Basil", "pizza place", "Basil & Co"} {
		require.NoError(t, s.CreatePlace(ctx, &model.Place{UserID: user.ID, Name: name}))
	}

	got, err := s.ListPlaces(ctx, user.ID, "BASIL")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Basil & Co", got[0].Name)

	p := got[1]
	p.Website = "https://thaibasil.example"
	require.NoError(t, s.UpdatePlace(ctx, &p))

	reloaded, err := s.GetPlace(ctx, user.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://thaibasil.example", reloaded.Website)

	bad := &model.Place{UserID: user.ID, Name: "Bad", PriceRange: "$$$$$"}
	assert.ErrorIs(t, s.CreatePlace(ctx, bad), model.ErrValidation)
}

func TestUsersAndResetTokens(t *testing.T) {
	s, _, user := setupStore(t)
	ctx := context.Background()

	dup := &model.User{Email: " Diner@Example.com ", PasswordHash: "y"}
	assert.ErrorIs(t, s.CreateUser(ctx, dup), model.ErrAlreadyExists)

	require.NoError(t, s.UpdateDisplayName(ctx, user.ID, "Jean"))
	require.NoError(t, s.UpdatePasswordHash(ctx, user.ID, "new-hash"))
	got, err := s.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jean", got.DisplayName)
	assert.Equal(t, "new-hash", got.PasswordHash)

	token := &model.PasswordResetToken{UserID: user.ID, TokenHash: "abc", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, s.CreateResetToken(ctx, token))

	stored, err := s.GetResetTokenByHash(ctx, "abc")
	require.NoError(t, err)
	assert.Nil(t, stored.UsedAt)

	require.NoError(t, s.MarkResetTokenUsed(ctx, stored.ID, time.Now()))
	assert.ErrorIs(t, s.MarkResetTokenUsed(ctx, stored.ID, time.Now()), model.ErrNotFound)

	_, err = s.GetResetTokenByHash(ctx, "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestMapError(t *testing.T) {
	id := uuid.New()

	assert.NoError(t, mapError(nil, "x", id))
	assert.ErrorIs(t, mapError(context.DeadlineExceeded, "x", id), context.DeadlineExceeded)

	other := errors.New("disk full")
	err := mapError(other, "x", id)
	assert.ErrorIs(t, err, other)
	assert.Contains(t, err.Error(), id.String())
}

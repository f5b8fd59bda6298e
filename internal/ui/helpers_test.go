package ui

import (
	"context"
	"fmt"
	"slices"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"eatlog/internal/config"
	"eatlog/internal/journal"
	"eatlog/internal/model"
)

var (
	testNow    = time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	testDiners = config.DinersConfig{First: "Brett", Second: "Jean"}
	testActor  = journal.Actor{UserID: uuid.New(), Diner: model.DinerFirst}
)

// fakeJournal keeps experiences in memory and records every write.
type fakeJournal struct {
	items     map[uuid.UUID]*model.Experience
	created   []journal.CreateInput
	updated   []journal.UpdateInput
	deleted   []uuid.UUID
	converted []journal.ConvertInput
	favorites []bool
	updateErr error
}

func newFakeJournal(list ...*model.Experience) *fakeJournal {
	f := &fakeJournal{items: make(map[uuid.UUID]*model.Experience)}
	for _, e := range list {
		f.items[e.ID] = e
	}
	return f
}

func (f *fakeJournal) List(ctx context.Context, actor journal.Actor) ([]*model.Experience, error) {
	var out []*model.Experience
	for _, e := range f.items {
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeJournal) Get(ctx context.Context, actor journal.Actor, id uuid.UUID) (*model.Experience, error) {
	e, ok := f.items[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return e, nil
}

func (f *fakeJournal) Create(ctx context.Context, actor journal.Actor, in journal.CreateInput) (*journal.CreateResult, error) {
	f.created = append(f.created, in)
	e := &model.Experience{ID: uuid.New(), Type: in.Type, Name: in.Name, Date: in.Date, Details: in.Details, Version: 1}
	f.items[e.ID] = e
	return &journal.CreateResult{Experience: e}, nil
}

func (f *fakeJournal) Update(ctx context.Context, actor journal.Actor, in journal.UpdateInput) (*journal.UpdateResult, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.updated = append(f.updated, in)
	cur, ok := f.items[in.ID]
	if !ok {
		return nil, model.ErrNotFound
	}
	next := *cur
	next.Name = in.Name
	next.Version = cur.Version + 1
	if in.Details != nil {
		next.Details = in.Details
	}
	f.items[in.ID] = &next
	return &journal.UpdateResult{Experience: &next}, nil
}

func (f *fakeJournal) Delete(ctx context.Context, actor journal.Actor, id uuid.UUID) (*journal.DeleteResult, error) {
	e, ok := f.items[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	f.deleted = append(f.deleted, id)
	delete(f.items, id)
	return &journal.DeleteResult{Name: e.Name}, nil
}

func (f *fakeJournal) Convert(ctx context.Context, actor journal.Actor, in journal.ConvertInput) (*journal.ConvertResult, error) {
	src, ok := f.items[in.ID]
	if !ok {
		return nil, model.ErrNotFound
	}
	f.converted = append(f.converted, in)
	date := testNow
	e := &model.Experience{ID: uuid.New(), Type: in.Target, Name: src.Name, Date: &date, Details: model.EmptyDetails(in.Target), Version: 1}
	delete(f.items, in.ID)
	f.items[e.ID] = e
	return &journal.ConvertResult{Experience: e}, nil
}

func (f *fakeJournal) SetFavorite(ctx context.Context, actor journal.Actor, id uuid.UUID, favorite bool) error {
	e, ok := f.items[id]
	if !ok {
		return model.ErrNotFound
	}
	e.Favorite = favorite
	f.favorites = append(f.favorites, favorite)
	return nil
}

func (f *fakeJournal) ToggleFavorite(ctx context.Context, actor journal.Actor, id uuid.UUID) (bool, error) {
	e, ok := f.items[id]
	if !ok {
		return false, model.ErrNotFound
	}
	next := !e.Favorite
	if err := f.SetFavorite(ctx, actor, id, next); err != nil {
		return false, err
	}
	return next, nil
}

func (f *fakeJournal) MaxPhotos() int { return 5 }

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func rating(v float64) *float64 { return &v }

func restaurant(name string, date *time.Time, first float64) *model.Experience {
	return &model.Experience{
		ID: uuid.New(), Type: model.TypeRestaurant, Name: name, Date: date, Version: 1,
		CreatedBy: model.DinerFirst, CreatedAt: testNow,
		Place:   &model.Place{ID: uuid.New(), Name: name, Cuisine: "Thai", PriceRange: "$$"},
		Details: &model.RestaurantDetails{Ratings: model.Ratings{First: rating(first)}},
	}
}

func homeMeal(name string, date *time.Time) *model.Experience {
	return &model.Experience{
		ID: uuid.New(), Type: model.TypeHomeMeal, Name: name, Date: date, Version: 1,
		CreatedBy: model.DinerSecond, CreatedAt: testNow,
		Details: &model.HomeMealDetails{Cuisine: "Italian"},
	}
}

func wishlist(name string) *model.Experience {
	return &model.Experience{
		ID: uuid.New(), Type: model.TypeWishlist, Name: name, Version: 1,
		CreatedBy: model.DinerFirst, CreatedAt: testNow,
		Details: model.EmptyDetails(model.TypeWishlist),
	}
}

// newTestModel builds a sized model with the fake's experiences loaded.
func newTestModel(t *testing.T, f *fakeJournal) Model {
	t.Helper()
	m := New(Options{
		Journal:     f,
		Actor:       testActor,
		Diners:      testDiners,
		Placeholder: "https://example.com/placeholder.png",
		PrefsPath:   t.TempDir() + "/ui_prefs.json",
		Now:         func() time.Time { return testNow },
	})
	list, err := f.List(context.Background(), testActor)
	require.NoError(t, err)
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	return update(t, m, model.ExperiencesLoadedMsg{Experiences: list})
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

// press sends keys in order and returns the model with the last command.
func press(t *testing.T, m Model, keys ...tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(k)
		m = next.(Model)
	}
	return m, cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func typed(s string) []tea.KeyMsg {
	var keys []tea.KeyMsg
	for _, r := range s {
		keys = append(keys, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return keys
}

var (
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keyTab   = tea.KeyMsg{Type: tea.KeyTab}
	keyCtrlS = tea.KeyMsg{Type: tea.KeyCtrlS}
)

func names(list []*model.Experience) []string {
	out := make([]string, 0, len(list))
	for _, e := range list {
		out = append(out, e.Name)
	}
	return out
}

func sortedNames(list []*model.Experience) []string {
	out := names(list)
	slices.Sort(out)
	return out
}

// testPhotos returns n photos of experience id; the first is featured.
func testPhotos(id uuid.UUID, n int) []model.Photo {
	photos := make([]model.Photo, n)
	for i := range photos {
		photos[i] = model.Photo{
			ID:           uuid.New(),
			ExperienceID: id,
			StoragePath:  fmt.Sprintf("%s/photo-%d.jpg", id, i),
			Featured:     i == 0,
			SortOrder:    i,
			UploadedAt:   testNow,
		}
	}
	return photos
}

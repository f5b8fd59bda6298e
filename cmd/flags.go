package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"eatlog/internal/config"
	"eatlog/internal/journal"
	"eatlog/internal/model"
	"eatlog/internal/util"
)

// experienceFlags are the fields shared by add and edit. Parsing collects
// every problem into one ValidationError, the same shape the journal
// returns.
type experienceFlags struct {
	name         string
	date         string
	meal         string
	notes        string
	tags         []string
	by           string
	favorite     bool
	placeID      string
	cuisine      string
	price        string
	address      string
	website      string
	dishes       string
	cost         string
	first        string
	second       string
	difficulty   string
	cookTime     string
	servings     string
	ingredients  []string
	instructions string
	source       string
	kind         string
	priority     string
	url          string
	photos       []string

	errs []model.FieldError
}

func (f *experienceFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.name, "name", "", "Name of the place, dish or idea")
	fs.StringVar(&f.date, "date", "", "Visit date, YYYY-MM-DD (defaults to today; never for wishlist)")
	fs.StringVar(&f.meal, "meal", "", "Meal time: breakfast, lunch, dinner or snack")
	fs.StringVar(&f.notes, "notes", "", "Free-form notes")
	fs.StringSliceVar(&f.tags, "tag", nil, "Tag; repeat or separate with commas")
	fs.StringVar(&f.by, "by", "", "Diner who logged it (defaults to you)")
	fs.BoolVar(&f.favorite, "favorite", false, "Mark as favorite")

	fs.StringVar(&f.placeID, "place-id", "", "Attach a saved place (restaurant)")
	fs.StringVar(&f.cuisine, "cuisine", "", "Cuisine")
	fs.StringVar(&f.price, "price", "", "Price range, $ to $$$$ (restaurant)")
	fs.StringVar(&f.address, "address", "", "Address (restaurant)")
	fs.StringVar(&f.website, "website", "", "Website (restaurant)")
	fs.StringVar(&f.dishes, "dishes", "", "Dishes ordered (restaurant)")
	fs.StringVar(&f.cost, "cost", "", "Total cost (restaurant)")
	fs.StringVar(&f.first, "first", "", "Rating of the first diner, 1 to 5 in halves")
	fs.StringVar(&f.second, "second", "", "Rating of the second diner, 1 to 5 in halves")

	fs.StringVar(&f.difficulty, "difficulty", "", "easy, medium or hard (home meal)")
	fs.StringVar(&f.cookTime, "cook-time", "", "Cook time in minutes (home meal)")
	fs.StringVar(&f.servings, "servings", "", "Servings (home meal)")
	fs.StringArrayVar(&f.ingredients, "ingredient", nil, "Ingredient; repeat for each (home meal)")
	fs.StringVar(&f.instructions, "instructions", "", "Instructions (home meal)")
	fs.StringVar(&f.source, "source", "", "Recipe or recommendation source")

	fs.StringVar(&f.kind, "kind", "", "restaurant or recipe (wishlist)")
	fs.StringVar(&f.priority, "priority", "", "low, medium or high (wishlist)")
	fs.StringVar(&f.url, "url", "", "Link (wishlist)")
}

func (f *experienceFlags) registerPhotos(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&f.photos, "photo", nil, "Image file to attach; repeat for more")
}

func (f *experienceFlags) fail(field, msg string) {
	f.errs = append(f.errs, model.FieldError{Field: field, Message: msg})
}

func (f *experienceFlags) err() error {
	if len(f.errs) == 0 {
		return nil
	}
	return &model.ValidationError{Errors: f.errs}
}

func (f *experienceFlags) parseDate() *time.Time {
	d, err := util.ParseDateInput(f.date)
	if err != nil {
		f.fail("date", "use YYYY-MM-DD")
	}
	return d
}

func (f *experienceFlags) parseDiner(diners config.DinersConfig) model.Diner {
	name := strings.TrimSpace(f.by)
	if name == "" {
		return ""
	}
	if d := model.Diner(strings.ToLower(name)); d.Valid() {
		return d
	}
	d, ok := diners.SlotFor(name)
	if !ok {
		f.fail("created_by", fmt.Sprintf("must be %s or %s", diners.First, diners.Second))
	}
	return d
}

func (f *experienceFlags) rating(s, field string) *float64 {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	v := util.ParseOptionalFloat(s)
	if v == nil {
		f.fail(field, "must be a number")
	}
	return v
}

func (f *experienceFlags) parsePlaceID() *uuid.UUID {
	if f.placeID == "" {
		return nil
	}
	id, err := uuid.Parse(f.placeID)
	if err != nil {
		f.fail("place_id", "must be a place id from `eatlog places`")
		return nil
	}
	return &id
}

// placeInput returns the new-place fields, or nil when none were given.
func (f *experienceFlags) placeInput(name string) *journal.PlaceInput {
	if f.cuisine == "" && f.price == "" && f.address == "" && f.website == "" {
		return nil
	}
	return &journal.PlaceInput{
		Name:       name,
		Cuisine:    f.cuisine,
		PriceRange: model.PriceRange(f.price),
		Address:    f.address,
		Website:    f.website,
	}
}

// details builds a complete detail record of type t from the flags.
func (f *experienceFlags) details(t model.ExperienceType) model.Details {
	switch t {
	case model.TypeRestaurant:
		return &model.RestaurantDetails{
			Ratings:       model.Ratings{First: f.rating(f.first, "first_rating"), Second: f.rating(f.second, "second_rating")},
			DishesOrdered: f.dishes,
			Cost:          util.ParseOptionalFloat(f.cost),
		}
	case model.TypeHomeMeal:
		return &model.HomeMealDetails{
			Cuisine:         f.cuisine,
			Ingredients:     trimmed(f.ingredients),
			Instructions:    f.instructions,
			CookTimeMinutes: util.ParseOptionalInt(f.cookTime),
			Difficulty:      model.Difficulty(strings.ToLower(f.difficulty)),
			Servings:        util.ParseOptionalInt(f.servings),
			Ratings:         model.Ratings{First: f.rating(f.first, "first_rating"), Second: f.rating(f.second, "second_rating")},
			Source:          f.source,
		}
	case model.TypeWishlist:
		return &model.WishlistDetails{
			WishlistType: model.WishlistType(strings.ToLower(f.kind)),
			Cuisine:      f.cuisine,
			Priority:     model.Priority(strings.ToLower(f.priority)),
			Source:       f.source,
			URL:          f.url,
		}
	}
	return nil
}

// editDetails copies the current detail record and overwrites the fields
// whose flags were set. It returns nil when no detail flag changed.
func (f *experienceFlags) editDetails(cmd *cobra.Command, current model.Details) model.Details {
	changed := cmd.Flags().Changed
	switch d := current.(type) {
	case *model.RestaurantDetails:
		c := *d
		touched := false
		if changed("first") {
			c.Ratings.First, touched = f.rating(f.first, "first_rating"), true
		}
		if changed("second") {
			c.Ratings.Second, touched = f.rating(f.second, "second_rating"), true
		}
		if changed("dishes") {
			c.DishesOrdered, touched = f.dishes, true
		}
		if changed("cost") {
			c.Cost, touched = util.ParseOptionalFloat(f.cost), true
		}
		if touched {
			return &c
		}
	case *model.HomeMealDetails:
		c := *d
		touched := false
		if changed("first") {
			c.Ratings.First, touched = f.rating(f.first, "first_rating"), true
		}
		if changed("second") {
			c.Ratings.Second, touched = f.rating(f.second, "second_rating"), true
		}
		if changed("cuisine") {
			c.Cuisine, touched = f.cuisine, true
		}
		if changed("ingredient") {
			c.Ingredients, touched = trimmed(f.ingredients), true
		}
		if changed("instructions") {
			c.Instructions, touched = f.instructions, true
		}
		if changed("cook-time") {
			c.CookTimeMinutes, touched = util.ParseOptionalInt(f.cookTime), true
		}
		if changed("difficulty") {
			c.Difficulty, touched = model.Difficulty(strings.ToLower(f.difficulty)), true
		}
		if changed("servings") {
			c.Servings, touched = util.ParseOptionalInt(f.servings), true
		}
		if changed("source") {
			c.Source, touched = f.source, true
		}
		if touched {
			return &c
		}
	case *model.WishlistDetails:
		c := *d
		touched := false
		if changed("kind") {
			c.WishlistType, touched = model.WishlistType(strings.ToLower(f.kind)), true
		}
		if changed("cuisine") {
			c.Cuisine, touched = f.cuisine, true
		}
		if changed("priority") {
			c.Priority, touched = model.Priority(strings.ToLower(f.priority)), true
		}
		if changed("source") {
			c.Source, touched = f.source, true
		}
		if changed("url") {
			c.URL, touched = f.url, true
		}
		if touched {
			return &c
		}
	}
	return nil
}

// uploads reads the --photo files. The first is featured when featureFirst.
func (f *experienceFlags) uploads(featureFirst bool) []journal.PhotoUpload {
	var out []journal.PhotoUpload
	for _, path := range f.photos {
		data, err := readImage(path)
		if err != nil {
			f.fail("photos", err.Error())
			continue
		}
		out = append(out, journal.PhotoUpload{Data: data, Featured: featureFirst && len(out) == 0})
	}
	return out
}

func readImage(path string) ([]byte, error) {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: no such file", filepath.Base(path))
		}
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return data, nil
}

func trimmed(values []string) []string {
	var out []string
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}

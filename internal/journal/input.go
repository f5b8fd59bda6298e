package journal

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"eatlog/internal/model"
)

// PlaceInput holds the place fields of a restaurant experience.
type PlaceInput struct {
	Name       string
	Cuisine    string
	PriceRange model.PriceRange
	Address    string
	Website    string
}

func (p *PlaceInput) normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.Cuisine = model.NormalizeCuisine(p.Cuisine)
	p.Address = strings.TrimSpace(p.Address)
	p.Website = strings.TrimSpace(p.Website)
}

func (p *PlaceInput) validate() []model.FieldError {
	var errs []model.FieldError
	if p.PriceRange != "" && !p.PriceRange.Valid() {
		errs = append(errs, model.FieldError{Field: "place.price_range", Message: "must be $ to $$$$"})
	}
	return errs
}

// PhotoUpload is one image to attach.
type PhotoUpload struct {
	Data     []byte
	Caption  string
	Featured bool
}

// CreateInput holds parameters for creating an experience.
type CreateInput struct {
	Type      model.ExperienceType
	Name      string
	Date      *time.Time
	MealTime  model.MealTime
	Notes     string
	Tags      []string
	CreatedBy model.Diner // defaults to the actor's diner
	Favorite  bool

	// Restaurant only: attach an existing place, or create one from Place.
	// When both are nil a place named after the experience is created.
	PlaceID *uuid.UUID
	Place   *PlaceInput

	Details model.Details // nil means empty details of Type
	Photos  []PhotoUpload
}

func (i *CreateInput) normalize(actor Actor) {
	i.Name = strings.TrimSpace(i.Name)
	i.Date = dateOnly(i.Date)
	i.Notes = strings.TrimSpace(i.Notes)
	i.Tags = model.NormalizeTags(i.Tags)
	if i.CreatedBy == "" {
		i.CreatedBy = actor.Diner
	}
	if i.Place != nil {
		i.Place.normalize()
	}
	if i.Details == nil {
		i.Details = model.EmptyDetails(i.Type)
	}
	normalizeDetails(i.Details)
}

// Validate validates the create input.
func (i CreateInput) Validate(maxPhotos int) error {
	var errs []model.FieldError

	if !i.Type.Valid() {
		errs = append(errs, model.FieldError{Field: "type", Message: "must be restaurant, home_meal or wishlist"})
	}
	errs = append(errs, validateCommon(i.Type, i.Name, i.Date, i.MealTime, i.CreatedBy)...)

	if i.Type != model.TypeRestaurant && (i.PlaceID != nil || i.Place != nil) {
		errs = append(errs, model.FieldError{Field: "place", Message: "only restaurants have a place"})
	}
	if i.PlaceID != nil && i.Place != nil {
		errs = append(errs, model.FieldError{Field: "place", Message: "give an existing place or new place fields, not both"})
	}
	if i.Place != nil {
		errs = append(errs, i.Place.validate()...)
	}

	if i.Type.Valid() {
		errs = append(errs, validateDetails(i.Type, i.Details)...)
	}
	errs = append(errs, validateUploads(i.Photos, 0, maxPhotos)...)

	if len(errs) > 0 {
		return &model.ValidationError{Errors: errs}
	}
	return nil
}

// UpdateInput holds parameters for editing an experience. The type of an
// experience never changes here; see Convert.
type UpdateInput struct {
	ID        uuid.UUID
	Version   int // version the edit was based on
	Name      string
	Date      *time.Time
	MealTime  model.MealTime
	Notes     string
	Tags      []string
	CreatedBy model.Diner
	Favorite  bool

	Place   *PlaceInput   // restaurant only; nil leaves the place untouched
	Details model.Details // nil leaves the details untouched

	DeletePhotos  []uuid.UUID
	PhotoOrder    []uuid.UUID // nil keeps the order; else all surviving photos
	FeaturedPhoto *uuid.UUID
	AddPhotos     []PhotoUpload
}

func (i *UpdateInput) normalize() {
	i.Name = strings.TrimSpace(i.Name)
	i.Date = dateOnly(i.Date)
	i.Notes = strings.TrimSpace(i.Notes)
	i.Tags = model.NormalizeTags(i.Tags)
	if i.Place != nil {
		i.Place.normalize()
	}
	if i.Details != nil {
		normalizeDetails(i.Details)
	}
}

// Validate validates the update against the current state of the experience.
func (i UpdateInput) Validate(current *model.Experience, maxPhotos int) error {
	var errs []model.FieldError

	errs = append(errs, validateCommon(current.Type, i.Name, i.Date, i.MealTime, i.CreatedBy)...)

	if i.Place != nil {
		if current.Type != model.TypeRestaurant {
			errs = append(errs, model.FieldError{Field: "place", Message: "only restaurants have a place"})
		}
		errs = append(errs, i.Place.validate()...)
	}
	if i.Details != nil {
		errs = append(errs, validateDetails(current.Type, i.Details)...)
	}

	existing := make(map[uuid.UUID]bool, len(current.Photos))
	for _, p := range current.Photos {
		existing[p.ID] = true
	}
	deleted := make(map[uuid.UUID]bool, len(i.DeletePhotos))
	for _, id := range i.DeletePhotos {
		if !existing[id] {
			errs = append(errs, model.FieldError{Field: "delete_photos", Message: fmt.Sprintf("photo %s does not belong to this experience", id)})
			continue
		}
		deleted[id] = true
	}
	survivors := len(current.Photos) - len(deleted)

	if i.PhotoOrder != nil {
		if fe := validatePermutation(i.PhotoOrder, existing, deleted, survivors); fe != nil {
			errs = append(errs, *fe)
		}
	}
	if i.FeaturedPhoto != nil && (!existing[*i.FeaturedPhoto] || deleted[*i.FeaturedPhoto]) {
		errs = append(errs, model.FieldError{Field: "featured_photo", Message: "must be a surviving photo of this experience"})
	}
	if i.FeaturedPhoto != nil && anyFeatured(i.AddPhotos) {
		errs = append(errs, model.FieldError{Field: "featured_photo", Message: "only one photo can be featured"})
	}

	errs = append(errs, validateUploads(i.AddPhotos, survivors, maxPhotos)...)

	if len(errs) > 0 {
		return &model.ValidationError{Errors: errs}
	}
	return nil
}

// ConvertInput turns a wishlist item into a visit.
type ConvertInput struct {
	ID     uuid.UUID
	Target model.ExperienceType // restaurant or home_meal
}

// Validate validates the convert input.
func (i ConvertInput) Validate() error {
	if i.Target != model.TypeRestaurant && i.Target != model.TypeHomeMeal {
		return model.NewValidationError("target", "must be restaurant or home_meal")
	}
	return nil
}

func validateCommon(t model.ExperienceType, name string, date *time.Time, meal model.MealTime, by model.Diner) []model.FieldError {
	var errs []model.FieldError

	if name == "" {
		errs = append(errs, model.FieldError{Field: "name", Message: "required"})
	} else if len(name) > 200 {
		errs = append(errs, model.FieldError{Field: "name", Message: "too long"})
	}

	switch {
	case t == model.TypeWishlist && date != nil:
		errs = append(errs, model.FieldError{Field: "date", Message: "must be empty for wishlist items"})
	case t != model.TypeWishlist && t.Valid() && date == nil:
		errs = append(errs, model.FieldError{Field: "date", Message: "required"})
	}

	if meal != "" && !meal.Valid() {
		errs = append(errs, model.FieldError{Field: "meal_time", Message: "must be breakfast, lunch, dinner or snack"})
	}
	if by != "" && !by.Valid() {
		errs = append(errs, model.FieldError{Field: "created_by", Message: "unknown diner"})
	}
	return errs
}

func normalizeDetails(d model.Details) {
	switch v := d.(type) {
	case *model.RestaurantDetails:
		v.DishesOrdered = strings.TrimSpace(v.DishesOrdered)
	case *model.HomeMealDetails:
		v.Cuisine = model.NormalizeCuisine(v.Cuisine)
		v.Instructions = strings.TrimSpace(v.Instructions)
		v.Source = strings.TrimSpace(v.Source)
	case *model.WishlistDetails:
		v.Cuisine = model.NormalizeCuisine(v.Cuisine)
		v.Source = strings.TrimSpace(v.Source)
		v.URL = strings.TrimSpace(v.URL)
		if v.Priority == "" {
			v.Priority = model.PriorityMedium
		}
		if v.WishlistType == "" {
			v.WishlistType = model.WishlistRestaurant
		}
	}
}

func validateDetails(t model.ExperienceType, d model.Details) []model.FieldError {
	if d == nil || d.Kind() != t {
		return []model.FieldError{{Field: "details", Message: fmt.Sprintf("must be %s details", t.Label())}}
	}

	var errs []model.FieldError
	switch v := d.(type) {
	case *model.RestaurantDetails:
		errs = append(errs, validateRatings(v.Ratings)...)
		if v.Cost != nil && *v.Cost < 0 {
			errs = append(errs, model.FieldError{Field: "cost", Message: "must not be negative"})
		}
	case *model.HomeMealDetails:
		errs = append(errs, validateRatings(v.Ratings)...)
		if v.CookTimeMinutes != nil && *v.CookTimeMinutes < 0 {
			errs = append(errs, model.FieldError{Field: "cook_time_minutes", Message: "must not be negative"})
		}
		if v.Servings != nil && *v.Servings < 0 {
			errs = append(errs, model.FieldError{Field: "servings", Message: "must not be negative"})
		}
		if v.Difficulty != "" && !v.Difficulty.Valid() {
			errs = append(errs, model.FieldError{Field: "difficulty", Message: "must be easy, medium or hard"})
		}
	case *model.WishlistDetails:
		if !v.Priority.Valid() {
			errs = append(errs, model.FieldError{Field: "priority", Message: "must be low, medium or high"})
		}
		if !v.WishlistType.Valid() {
			errs = append(errs, model.FieldError{Field: "wishlist_type", Message: "must be restaurant or recipe"})
		}
	}
	return errs
}

func validateRatings(r model.Ratings) []model.FieldError {
	var errs []model.FieldError
	if r.First != nil && !model.ValidRating(*r.First) {
		errs = append(errs, model.FieldError{Field: "first_rating", Message: "must be 1 to 5 in steps of 0.5"})
	}
	if r.Second != nil && !model.ValidRating(*r.Second) {
		errs = append(errs, model.FieldError{Field: "second_rating", Message: "must be 1 to 5 in steps of 0.5"})
	}
	return errs
}

func validateUploads(uploads []PhotoUpload, existing, maxPhotos int) []model.FieldError {
	var errs []model.FieldError
	if existing+len(uploads) > maxPhotos {
		errs = append(errs, model.FieldError{Field: "photos", Message: fmt.Sprintf("at most %d photos per experience", maxPhotos)})
	}
	featured := 0
	for n, u := range uploads {
		if len(u.Data) == 0 {
			errs = append(errs, model.FieldError{Field: "photos", Message: fmt.Sprintf("photo %d is empty", n+1)})
		}
		if u.Featured {
			featured++
		}
	}
	if featured > 1 {
		errs = append(errs, model.FieldError{Field: "photos", Message: "only one photo can be featured"})
	}
	return errs
}

func validatePermutation(order []uuid.UUID, existing, deleted map[uuid.UUID]bool, survivors int) *model.FieldError {
	seen := make(map[uuid.UUID]bool, len(order))
	for _, id := range order {
		if !existing[id] || deleted[id] || seen[id] {
			return &model.FieldError{Field: "photo_order", Message: "must list every surviving photo exactly once"}
		}
		seen[id] = true
	}
	if len(order) != survivors {
		return &model.FieldError{Field: "photo_order", Message: "must list every surviving photo exactly once"}
	}
	return nil
}

func anyFeatured(uploads []PhotoUpload) bool {
	for _, u := range uploads {
		if u.Featured {
			return true
		}
	}
	return false
}

func dateOnly(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}

package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"eatlog/internal/model"
)

type detailsTable struct {
	name    string
	columns []string
}

var (
	restaurantDetailsTable = detailsTable{"restaurant_details", []string{
		"experience_id", "first_rating", "second_rating", "dishes_ordered", "cost",
	}}
	homeMealDetailsTable = detailsTable{"home_meal_details", []string{
		"experience_id", "cuisine", "ingredients", "instructions", "cook_time_minutes",
		"difficulty", "servings", "first_rating", "second_rating", "source",
	}}
	wishlistDetailsTable = detailsTable{"wishlist_details", []string{
		"experience_id", "wishlist_type", "cuisine", "priority", "source", "url",
	}}
)

// InsertDetails inserts the detail row of an experience. A second detail row
// for the same experience is rejected with ErrAlreadyExists.
func (s *Store) InsertDetails(ctx context.Context, experienceID uuid.UUID, d model.Details) error {
	return s.writeDetails(ctx, experienceID, d, false)
}

// UpsertDetails writes the detail row, creating it when it is missing.
func (s *Store) UpsertDetails(ctx context.Context, experienceID uuid.UUID, d model.Details) error {
	return s.writeDetails(ctx, experienceID, d, true)
}

func (s *Store) writeDetails(ctx context.Context, experienceID uuid.UUID, d model.Details, upsert bool) error {
	table, values, err := detailValues(experienceID, d)
	if err != nil {
		return err
	}

	insert := builder.Insert(table.name).Columns(table.columns...).Values(values...)
	if upsert {
		sets := make([]string, 0, len(table.columns)-1)
		for _, c := range table.columns[1:] {
			sets = append(sets, c+" = excluded."+c)
		}
		insert = insert.Suffix("ON CONFLICT(experience_id) DO UPDATE SET " + strings.Join(sets, ", "))
	}

	if _, err := s.exec(ctx, insert); err != nil {
		return mapError(err, table.name, experienceID)
	}
	return nil
}

func detailValues(experienceID uuid.UUID, d model.Details) (detailsTable, []any, error) {
	switch v := d.(type) {
	case *model.RestaurantDetails:
		return restaurantDetailsTable, []any{
			experienceID, nullFloat(v.Ratings.First), nullFloat(v.Ratings.Second),
			nullString(v.DishesOrdered), nullFloat(v.Cost),
		}, nil
	case *model.HomeMealDetails:
		ingredients := v.Ingredients
		if ingredients == nil {
			ingredients = []string{}
		}
		raw, err := json.Marshal(ingredients)
		if err != nil {
			return detailsTable{}, nil, fmt.Errorf("encode ingredients: %w", err)
		}
		return homeMealDetailsTable, []any{
			experienceID, nullString(v.Cuisine), string(raw), nullString(v.Instructions),
			nullInt(v.CookTimeMinutes), nullString(string(v.Difficulty)), nullInt(v.Servings),
			nullFloat(v.Ratings.First), nullFloat(v.Ratings.Second), nullString(v.Source),
		}, nil
	case *model.WishlistDetails:
		priority := v.Priority
		if priority == "" {
			priority = model.PriorityMedium
		}
		wtype := v.WishlistType
		if wtype == "" {
			wtype = model.WishlistRestaurant
		}
		return wishlistDetailsTable, []any{
			experienceID, string(wtype), nullString(v.Cuisine), string(priority),
			nullString(v.Source), nullString(v.URL),
		}, nil
	case nil:
		return detailsTable{}, nil, fmt.Errorf("details for %s: %w", experienceID, model.ErrValidation)
	default:
		return detailsTable{}, nil, fmt.Errorf("unknown details type %T", d)
	}
}

// CountDetails returns how many detail rows of any type exist for an experience.
func (s *Store) CountDetails(ctx context.Context, experienceID uuid.UUID) (int, error) {
	total := 0
	for _, t := range []detailsTable{restaurantDetailsTable, homeMealDetailsTable, wishlistDetailsTable} {
		row, err := s.queryRow(ctx, builder.Select("COUNT(*)").
			From(t.name).
			Where(squirrel.Eq{"experience_id": experienceID}))
		if err != nil {
			return 0, err
		}
		var n int
		if err := row.Scan(&n); err != nil {
			return 0, fmt.Errorf("count %s: %w", t.name, err)
		}
		total += n
	}
	return total, nil
}

// loadDetails reads the detail row matching each experience's type.
// Rows of a non-matching type are ignored.
func (s *Store) loadDetails(ctx context.Context, ids []string, byID map[uuid.UUID]*model.Experience) error {
	attach := func(id uuid.UUID, d model.Details) {
		if e, ok := byID[id]; ok && e.Type == d.Kind() {
			e.Details = d
		}
	}

	if err := s.eachDetailRow(ctx, restaurantDetailsTable, ids, func(row scanner) error {
		var (
			id            uuid.UUID
			first, second sql.NullFloat64
			dishes        sql.NullString
			cost          sql.NullFloat64
		)
		if err := row.Scan(&id, &first, &second, &dishes, &cost); err != nil {
			return err
		}
		attach(id, &model.RestaurantDetails{
			Ratings:       model.Ratings{First: floatPtr(first), Second: floatPtr(second)},
			DishesOrdered: dishes.String,
			Cost:          floatPtr(cost),
		})
		return nil
	}); err != nil {
		return err
	}

	if err := s.eachDetailRow(ctx, homeMealDetailsTable, ids, func(row scanner) error {
		var (
			id                                     uuid.UUID
			cuisine, instructions, difficulty, src sql.NullString
			ingredients                            string
			cookTime, servings                     sql.NullInt64
			first, second                          sql.NullFloat64
		)
		if err := row.Scan(&id, &cuisine, &ingredients, &instructions, &cookTime, &difficulty,
			&servings, &first, &second, &src); err != nil {
			return err
		}
		d := &model.HomeMealDetails{
			Cuisine:         cuisine.String,
			Instructions:    instructions.String,
			CookTimeMinutes: intPtr(cookTime),
			Difficulty:      model.Difficulty(difficulty.String),
			Servings:        intPtr(servings),
			Ratings:         model.Ratings{First: floatPtr(first), Second: floatPtr(second)},
			Source:          src.String,
		}
		if err := json.Unmarshal([]byte(ingredients), &d.Ingredients); err != nil {
			return fmt.Errorf("decode ingredients: %w", err)
		}
		attach(id, d)
		return nil
	}); err != nil {
		return err
	}

	return s.eachDetailRow(ctx, wishlistDetailsTable, ids, func(row scanner) error {
		var (
			id                   uuid.UUID
			wtype, priority      string
			cuisine, source, url sql.NullString
		)
		if err := row.Scan(&id, &wtype, &cuisine, &priority, &source, &url); err != nil {
			return err
		}
		attach(id, &model.WishlistDetails{
			WishlistType: model.WishlistType(wtype),
			Cuisine:      cuisine.String,
			Priority:     model.Priority(priority),
			Source:       source.String,
			URL:          url.String,
		})
		return nil
	})
}

func (s *Store) eachDetailRow(ctx context.Context, t detailsTable, ids []string, fn func(scanner) error) error {
	rows, err := s.query(ctx, builder.Select(t.columns...).
		From(t.name).
		Where(squirrel.Eq{"experience_id": ids}))
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", t.name, err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := fn(rows); err != nil {
			return fmt.Errorf("failed to scan %s row: %w", t.name, err)
		}
	}
	return rows.Err()
}

package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"eatlog/internal/model"
)

var experienceColumns = []string{
	"e.id", "e.user_id", "e.place_id", "e.type", "e.name", "e.date", "e.meal_time", "e.notes",
	"e.created_by", "e.is_favorite", "e.version", "e.created_at", "e.updated_at",
	"p.id", "p.user_id", "p.name", "p.cuisine", "p.price_range", "p.address", "p.website",
	"p.created_at", "p.updated_at",
}

func selectExperiences() squirrel.SelectBuilder {
	return builder.Select(experienceColumns...).
		From("experiences e").
		LeftJoin("places p ON p.id = e.place_id")
}

// InsertExperience inserts the experience row and its tags. Details and
// photos are written separately. A nil ID is replaced with a fresh one.
func (s *Store) InsertExperience(ctx context.Context, e *model.Experience) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	ts := now()
	e.CreatedAt, e.UpdatedAt = ts, ts
	e.Version = 1

	insert := builder.Insert("experiences").
		Columns("id", "user_id", "place_id", "type", "name", "date", "meal_time", "notes",
			"created_by", "is_favorite", "version", "created_at", "updated_at").
		Values(e.ID, e.UserID, nullUUID(e.PlaceID), string(e.Type), e.Name, nullDate(e.Date),
			nullString(string(e.MealTime)), nullString(e.Notes), nullString(string(e.CreatedBy)),
			boolInt(e.Favorite), e.Version, formatTime(ts), formatTime(ts))

	if _, err := s.exec(ctx, insert); err != nil {
		return mapError(err, "experience", e.ID)
	}

	return s.ReplaceTags(ctx, e.ID, e.Tags)
}

// UpdateExperience overwrites the mutable experience fields and tags when the
// stored version still equals expectedVersion. A stale version yields
// ErrConflict and nothing is written.
func (s *Store) UpdateExperience(ctx context.Context, e *model.Experience, expectedVersion int) error {
	ts := now()

	res, err := s.exec(ctx, builder.Update("experiences").
		Set("place_id", nullUUID(e.PlaceID)).
		Set("name", e.Name).
		Set("date", nullDate(e.Date)).
		Set("meal_time", nullString(string(e.MealTime))).
		Set("notes", nullString(e.Notes)).
		Set("created_by", nullString(string(e.CreatedBy))).
		Set("is_favorite", boolInt(e.Favorite)).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", formatTime(ts)).
		Where(squirrel.Eq{"id": e.ID, "user_id": e.UserID, "version": expectedVersion}))
	if err != nil {
		return mapError(err, "experience", e.ID)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("experience %s: rows affected: %w", e.ID, err)
	}
	if n == 0 {
		if _, err := s.experienceVersion(ctx, e.UserID, e.ID); err != nil {
			return err
		}
		return fmt.Errorf("experience %s: version %d is stale: %w", e.ID, expectedVersion, model.ErrConflict)
	}

	e.Version = expectedVersion + 1
	e.UpdatedAt = ts

	return s.ReplaceTags(ctx, e.ID, e.Tags)
}

func (s *Store) experienceVersion(ctx context.Context, userID, id uuid.UUID) (int, error) {
	row, err := s.queryRow(ctx, builder.Select("version").
		From("experiences").
		Where(squirrel.Eq{"id": id, "user_id": userID}))
	if err != nil {
		return 0, err
	}
	var version int
	if err := row.Scan(&version); err != nil {
		return 0, mapError(err, "experience", id)
	}
	return version, nil
}

// SetFavorite flips the favorite flag without touching the version.
func (s *Store) SetFavorite(ctx context.Context, userID, id uuid.UUID, favorite bool) error {
	res, err := s.exec(ctx, builder.Update("experiences").
		Set("is_favorite", boolInt(favorite)).
		Set("updated_at", formatTime(now())).
		Where(squirrel.Eq{"id": id, "user_id": userID}))
	if err != nil {
		return mapError(err, "experience", id)
	}
	return requireAffected(res, "experience", id)
}

// DeleteExperience removes an experience. Details, tags and photo rows go
// with it through ON DELETE CASCADE; blobs are the caller's concern.
func (s *Store) DeleteExperience(ctx context.Context, userID, id uuid.UUID) error {
	res, err := s.exec(ctx, builder.Delete("experiences").
		Where(squirrel.Eq{"id": id, "user_id": userID}))
	if err != nil {
		return mapError(err, "experience", id)
	}
	return requireAffected(res, "experience", id)
}

// GetExperience loads one experience with its place, details, tags and
// photos ordered by sort order.
func (s *Store) GetExperience(ctx context.Context, userID, id uuid.UUID) (*model.Experience, error) {
	row, err := s.queryRow(ctx, selectExperiences().
		Where(squirrel.Eq{"e.id": id, "e.user_id": userID}))
	if err != nil {
		return nil, err
	}

	e, err := scanExperience(row)
	if err != nil {
		return nil, mapError(err, "experience", id)
	}

	if err := s.hydrate(ctx, []*model.Experience{e}); err != nil {
		return nil, err
	}
	return e, nil
}

// ListExperiences loads every experience of the user, fully composed,
// newest first.
func (s *Store) ListExperiences(ctx context.Context, userID uuid.UUID) ([]*model.Experience, error) {
	rows, err := s.query(ctx, selectExperiences().
		Where(squirrel.Eq{"e.user_id": userID}).
		OrderBy("COALESCE(e.date, substr(e.created_at, 1, 10)) DESC", "e.created_at DESC"))
	if err != nil {
		return nil, fmt.Errorf("failed to list experiences: %w", err)
	}
	defer rows.Close()

	var list []*model.Experience
	for rows.Next() {
		e, err := scanExperience(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan experience row: %w", err)
		}
		list = append(list, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating experience rows: %w", err)
	}

	if err := s.hydrate(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

// ReplaceTags sets the tag set of an experience.
func (s *Store) ReplaceTags(ctx context.Context, experienceID uuid.UUID, tags []string) error {
	if _, err := s.exec(ctx, builder.Delete("experience_tags").
		Where(squirrel.Eq{"experience_id": experienceID})); err != nil {
		return mapError(err, "experience tags", experienceID)
	}
	if len(tags) == 0 {
		return nil
	}

	insert := builder.Insert("experience_tags").
		Columns("experience_id", "tag").
		Options("OR IGNORE")
	for _, tag := range tags {
		insert = insert.Values(experienceID, tag)
	}
	if _, err := s.exec(ctx, insert); err != nil {
		return mapError(err, "experience tags", experienceID)
	}
	return nil
}

// hydrate attaches tags, details and photos to already scanned experiences.
func (s *Store) hydrate(ctx context.Context, list []*model.Experience) error {
	if len(list) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*model.Experience, len(list))
	ids := make([]string, 0, len(list))
	for _, e := range list {
		byID[e.ID] = e
		ids = append(ids, e.ID.String())
	}

	if err := s.loadTags(ctx, ids, byID); err != nil {
		return err
	}
	if err := s.loadDetails(ctx, ids, byID); err != nil {
		return err
	}

	photos, err := s.photosFor(ctx, squirrel.Eq{"experience_id": ids})
	if err != nil {
		return err
	}
	for _, p := range photos {
		if e, ok := byID[p.ExperienceID]; ok {
			e.Photos = append(e.Photos, p)
		}
	}
	return nil
}

func (s *Store) loadTags(ctx context.Context, ids []string, byID map[uuid.UUID]*model.Experience) error {
	rows, err := s.query(ctx, builder.Select("experience_id", "tag").
		From("experience_tags").
		Where(squirrel.Eq{"experience_id": ids}).
		OrderBy("tag"))
	if err != nil {
		return fmt.Errorf("failed to load tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		var tag string
		if err := rows.Scan(&id, &tag); err != nil {
			return fmt.Errorf("failed to scan tag row: %w", err)
		}
		if e, ok := byID[id]; ok {
			e.Tags = append(e.Tags, tag)
		}
	}
	return rows.Err()
}

func scanExperience(row scanner) (*model.Experience, error) {
	var (
		e                                model.Experience
		placeID                          uuid.NullUUID
		typ                              string
		date, mealTime, notes, createdBy sql.NullString
		favorite                         int
		createdAt, updatedAt             string
		pID, pUserID, pName, pCuisine    sql.NullString
		pPrice, pAddress, pWebsite       sql.NullString
		pCreatedAt, pUpdatedAt           sql.NullString
	)

	if err := row.Scan(&e.ID, &e.UserID, &placeID, &typ, &e.Name, &date, &mealTime, &notes,
		&createdBy, &favorite, &e.Version, &createdAt, &updatedAt,
		&pID, &pUserID, &pName, &pCuisine, &pPrice, &pAddress, &pWebsite, &pCreatedAt, &pUpdatedAt); err != nil {
		return nil, err
	}

	e.Type = model.ExperienceType(typ)
	e.MealTime = model.MealTime(mealTime.String)
	e.Notes = notes.String
	e.CreatedBy = model.Diner(createdBy.String)
	e.Favorite = favorite == 1
	if placeID.Valid {
		id := placeID.UUID
		e.PlaceID = &id
	}

	var err error
	if e.Date, err = parseDate(date); err != nil {
		return nil, err
	}
	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if e.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	if pID.Valid {
		p := &model.Place{
			Name:       pName.String,
			Cuisine:    pCuisine.String,
			PriceRange: model.PriceRange(pPrice.String),
			Address:    pAddress.String,
			Website:    pWebsite.String,
		}
		if p.ID, err = uuid.Parse(pID.String); err != nil {
			return nil, fmt.Errorf("parse place id: %w", err)
		}
		if p.UserID, err = uuid.Parse(pUserID.String); err != nil {
			return nil, fmt.Errorf("parse place owner: %w", err)
		}
		if p.CreatedAt, err = parseTime(pCreatedAt.String); err != nil {
			return nil, err
		}
		if p.UpdatedAt, err = parseTime(pUpdatedAt.String); err != nil {
			return nil, err
		}
		e.Place = p
	}

	return &e, nil
}

package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"eatlog/internal/model"
)

var placeColumns = []string{
	"id", "user_id", "name", "cuisine", "price_range", "address", "website", "created_at", "updated_at",
}

// CreatePlace inserts a place. A nil ID is replaced with a fresh one.
func (s *Store) CreatePlace(ctx context.Context, p *model.Place) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	ts := now()
	p.CreatedAt, p.UpdatedAt = ts, ts

	insert := builder.Insert("places").
		Columns(placeColumns...).
		Values(p.ID, p.UserID, p.Name, nullString(p.Cuisine), nullString(string(p.PriceRange)),
			nullString(p.Address), nullString(p.Website), formatTime(ts), formatTime(ts))

	if _, err := s.exec(ctx, insert); err != nil {
		return mapError(err, "place", p.ID)
	}
	return nil
}

// GetPlace retrieves a place owned by userID.
func (s *Store) GetPlace(ctx context.Context, userID, id uuid.UUID) (*model.Place, error) {
	row, err := s.queryRow(ctx, builder.Select(placeColumns...).
		From("places").
		Where(squirrel.Eq{"id": id, "user_id": userID}))
	if err != nil {
		return nil, err
	}

	p, err := scanPlace(row)
	if err != nil {
		return nil, mapError(err, "place", id)
	}
	return p, nil
}

// UpdatePlace overwrites the mutable fields of a place.
func (s *Store) UpdatePlace(ctx context.Context, p *model.Place) error {
	p.UpdatedAt = now()

	res, err := s.exec(ctx, builder.Update("places").
		Set("name", p.Name).
		Set("cuisine", nullString(p.Cuisine)).
		Set("price_range", nullString(string(p.PriceRange))).
		Set("address", nullString(p.Address)).
		Set("website", nullString(p.Website)).
		Set("updated_at", formatTime(p.UpdatedAt)).
		Where(squirrel.Eq{"id": p.ID, "user_id": p.UserID}))
	if err != nil {
		return mapError(err, "place", p.ID)
	}
	return requireAffected(res, "place", p.ID)
}

// ListPlaces returns the user's places ordered by name, optionally filtered
// by a case-insensitive substring of the name.
func (s *Store) ListPlaces(ctx context.Context, userID uuid.UUID, search string) ([]model.Place, error) {
	sel := builder.Select(placeColumns...).
		From("places").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("name COLLATE NOCASE ASC")

	if search = strings.TrimSpace(search); search != "" {
		sel = sel.Where(squirrel.Like{"lower(name)": "%" + strings.ToLower(search) + "%"})
	}

	rows, err := s.query(ctx, sel)
	if err != nil {
		return nil, fmt.Errorf("failed to list places: %w", err)
	}
	defer rows.Close()

	var places []model.Place
	for rows.Next() {
		p, err := scanPlace(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan place row: %w", err)
		}
		places = append(places, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating place rows: %w", err)
	}
	return places, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPlace(row scanner) (*model.Place, error) {
	var (
		p                                     model.Place
		cuisine, priceRange, address, website sql.NullString
		createdAt, updatedAt                  string
	)
	if err := row.Scan(&p.ID, &p.UserID, &p.Name, &cuisine, &priceRange, &address, &website, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	p.Cuisine = cuisine.String
	p.PriceRange = model.PriceRange(priceRange.String)
	p.Address = address.String
	p.Website = website.String

	var err error
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

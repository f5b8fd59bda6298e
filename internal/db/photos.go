package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"eatlog/internal/model"
)

var photoColumns = []string{
	"id", "experience_id", "storage_path", "caption", "is_featured", "sort_order", "uploaded_at",
}

// InsertPhoto inserts photo metadata. A nil ID is replaced with a fresh one
// and a zero UploadedAt with the current time.
func (s *Store) InsertPhoto(ctx context.Context, p *model.Photo) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.UploadedAt.IsZero() {
		p.UploadedAt = now()
	}

	if _, err := s.exec(ctx, builder.Insert("photos").
		Columns(photoColumns...).
		Values(p.ID, p.ExperienceID, p.StoragePath, nullString(p.Caption), boolInt(p.Featured),
			p.SortOrder, formatTime(p.UploadedAt))); err != nil {
		return mapError(err, "photo", p.ID)
	}
	return nil
}

// ListPhotos returns the photos of an experience ordered by sort order.
func (s *Store) ListPhotos(ctx context.Context, experienceID uuid.UUID) ([]model.Photo, error) {
	return s.photosFor(ctx, squirrel.Eq{"experience_id": experienceID})
}

// DeletePhoto removes one photo row.
func (s *Store) DeletePhoto(ctx context.Context, id uuid.UUID) error {
	res, err := s.exec(ctx, builder.Delete("photos").Where(squirrel.Eq{"id": id}))
	if err != nil {
		return mapError(err, "photo", id)
	}
	return requireAffected(res, "photo", id)
}

// SetPhotoSortOrder moves one photo to a new position.
func (s *Store) SetPhotoSortOrder(ctx context.Context, id uuid.UUID, order int) error {
	res, err := s.exec(ctx, builder.Update("photos").
		Set("sort_order", order).
		Where(squirrel.Eq{"id": id}))
	if err != nil {
		return mapError(err, "photo", id)
	}
	return requireAffected(res, "photo", id)
}

// SetFeaturedPhoto marks photoID as the only featured photo of the experience.
// The flag is cleared on every photo first so the partial unique index never
// sees two featured rows. Must run inside a transaction to be atomic.
func (s *Store) SetFeaturedPhoto(ctx context.Context, experienceID, photoID uuid.UUID) error {
	if err := s.ClearFeaturedPhoto(ctx, experienceID); err != nil {
		return err
	}

	res, err := s.exec(ctx, builder.Update("photos").
		Set("is_featured", 1).
		Where(squirrel.Eq{"id": photoID, "experience_id": experienceID}))
	if err != nil {
		return mapError(err, "photo", photoID)
	}
	return requireAffected(res, "photo", photoID)
}

// ClearFeaturedPhoto unsets the featured flag on every photo of the experience.
func (s *Store) ClearFeaturedPhoto(ctx context.Context, experienceID uuid.UUID) error {
	if _, err := s.exec(ctx, builder.Update("photos").
		Set("is_featured", 0).
		Where(squirrel.Eq{"experience_id": experienceID, "is_featured": 1})); err != nil {
		return mapError(err, "photos of experience", experienceID)
	}
	return nil
}

func (s *Store) photosFor(ctx context.Context, where squirrel.Sqlizer) ([]model.Photo, error) {
	rows, err := s.query(ctx, builder.Select(photoColumns...).
		From("photos").
		Where(where).
		OrderBy("experience_id", "sort_order", "uploaded_at"))
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	defer rows.Close()

	var photos []model.Photo
	for rows.Next() {
		var (
			p          model.Photo
			caption    sql.NullString
			featured   int
			uploadedAt string
		)
		if err := rows.Scan(&p.ID, &p.ExperienceID, &p.StoragePath, &caption, &featured, &p.SortOrder, &uploadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan photo row: %w", err)
		}
		p.Caption = caption.String
		p.Featured = featured == 1
		if p.UploadedAt, err = parseTime(uploadedAt); err != nil {
			return nil, err
		}
		photos = append(photos, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating photo rows: %w", err)
	}
	return photos, nil
}

package journal

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/google/uuid"

	"eatlog/internal/blob"
	"eatlog/internal/model"
	"eatlog/internal/notify"
)

// ConvertResult is the outcome of Convert.
type ConvertResult struct {
	Experience   *model.Experience
	CopiedPhotos int
	FailedPhotos int
	LeakedBlobs  int
}

// Convert turns a wishlist item into a restaurant visit or home meal dated
// today. Photo blobs are copied under the new experience first; the new
// records and the removal of the wishlist item then commit together, so
// either the wishlist item survives untouched or the new visit exists
// complete. The wishlist item's own blobs are removed afterwards.
func (s *Service) Convert(ctx context.Context, actor Actor, in ConvertInput) (*ConvertResult, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := in.Validate(); err != nil {
		return nil, err
	}

	src, err := s.experiences.GetExperience(ctx, actor.UserID, in.ID)
	if err != nil {
		return nil, fmt.Errorf("journal.Convert: %w", err)
	}
	if src.Type != model.TypeWishlist {
		return nil, model.NewValidationError("id", "only wishlist items can be converted")
	}

	wish, _ := src.Details.(*model.WishlistDetails)
	if wish == nil {
		wish = model.EmptyDetails(model.TypeWishlist).(*model.WishlistDetails)
	}

	date := s.today()
	dst := &model.Experience{
		ID:        uuid.New(),
		UserID:    src.UserID,
		Type:      in.Target,
		Name:      src.Name,
		Date:      &date,
		MealTime:  src.MealTime,
		Notes:     src.Notes,
		Tags:      src.Tags,
		CreatedBy: src.CreatedBy,
		Favorite:  src.Favorite,
	}

	copies, failed := s.copyPhotos(ctx, src, dst)

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var details model.Details
		switch in.Target {
		case model.TypeRestaurant:
			place := &model.Place{UserID: dst.UserID, Name: src.Name, Cuisine: wish.Cuisine}
			if err := s.places.CreatePlace(ctx, place); err != nil {
				return err
			}
			dst.PlaceID = &place.ID
			details = &model.RestaurantDetails{}
		case model.TypeHomeMeal:
			details = &model.HomeMealDetails{Cuisine: wish.Cuisine, Source: firstNonEmpty(wish.Source, wish.URL)}
		}

		if err := s.experiences.InsertExperience(ctx, dst); err != nil {
			return err
		}
		if err := s.details.InsertDetails(ctx, dst.ID, details); err != nil {
			return err
		}

		featured := uuid.Nil
		for n := range copies {
			copies[n].SortOrder = n
			if copies[n].Featured {
				featured = copies[n].ID
				copies[n].Featured = false
			}
			if err := s.photos.InsertPhoto(ctx, &copies[n]); err != nil {
				return err
			}
		}
		if len(copies) > 0 {
			if err := s.ensureFeatured(ctx, dst.ID, featured); err != nil {
				return err
			}
		}

		return s.experiences.DeleteExperience(ctx, src.UserID, src.ID)
	})
	if err != nil {
		for _, p := range copies {
			s.deleteBlobQuietly(ctx, p.StoragePath)
		}
		s.notify(notify.Error, "Could not convert %q", src.Name)
		return nil, fmt.Errorf("journal.Convert: %w", err)
	}

	leaked := s.purgeBlobs(ctx, src.Photos)

	converted, err := s.experiences.GetExperience(ctx, actor.UserID, dst.ID)
	if err != nil {
		return nil, fmt.Errorf("journal.Convert reload: %w", err)
	}

	s.log.InfoContext(ctx, "wishlist item converted",
		slog.String("from", src.ID.String()),
		slog.String("to", dst.ID.String()),
		slog.String("type", string(dst.Type)),
		slog.Int("photos", len(copies)),
		slog.Int("failed_photos", failed))
	s.notify(notify.Success, "%s moved to %s", converted.Name, strings.ToLower(converted.Type.Label()))
	s.reportPhotoFailures(failed)

	return &ConvertResult{
		Experience:   converted,
		CopiedPhotos: len(copies),
		FailedPhotos: failed,
		LeakedBlobs:  leaked,
	}, nil
}

// copyPhotos copies every blob of src under dst's namespace. The returned
// photos are not yet inserted; Featured is carried over from the source.
func (s *Service) copyPhotos(ctx context.Context, src, dst *model.Experience) ([]model.Photo, int) {
	var copies []model.Photo
	failed := 0

	for _, p := range src.Photos {
		data, err := s.blobs.Download(ctx, p.StoragePath)
		if err != nil {
			failed++
			s.log.WarnContext(ctx, "photo copy: download failed",
				slog.String("path", p.StoragePath),
				slog.String("error", err.Error()))
			continue
		}

		cp := model.Photo{
			ID:           uuid.New(),
			ExperienceID: dst.ID,
			Caption:      p.Caption,
			Featured:     p.Featured,
		}
		ext := strings.TrimPrefix(path.Ext(p.StoragePath), ".")
		cp.StoragePath = blob.ObjectPath(dst.UserID, dst.ID, cp.ID, ext)

		if err := s.blobs.Upload(ctx, cp.StoragePath, data); err != nil {
			failed++
			s.log.WarnContext(ctx, "photo copy: upload failed",
				slog.String("path", cp.StoragePath),
				slog.String("error", err.Error()))
			continue
		}
		copies = append(copies, cp)
	}
	return copies, failed
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

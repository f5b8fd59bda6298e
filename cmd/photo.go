package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"eatlog/internal/journal"
	"eatlog/internal/model"
	"eatlog/internal/view"
)

func newPhotoCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "photo",
		Short: "Add, remove, reorder and feature photos of an experience",
		Long:  "Photos are named by the short ids `eatlog show` prints.",
	}
	cmd.AddCommand(
		newPhotoAddCmd(opts),
		newPhotoRemoveCmd(opts),
		newPhotoMoveCmd(opts),
		newPhotoFeatureCmd(opts),
	)
	return cmd
}

func newPhotoAddCmd(opts *rootOptions) *cobra.Command {
	var caption string
	var featured bool
	cmd := &cobra.Command{
		Use:   "add <id> <file>...",
		Short: "Attach image files after the existing photos",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return journalCmd(cmd, opts, func(ctx context.Context, e *env, actor journal.Actor) error {
				x, err := resolveExperience(ctx, e, actor, args[0])
				if err != nil {
					return err
				}

				var uploads []journal.PhotoUpload
				var errs []model.FieldError
				for _, path := range args[1:] {
					data, err := readImage(path)
					if err != nil {
						errs = append(errs, model.FieldError{Field: "photos", Message: err.Error()})
						continue
					}
					uploads = append(uploads, journal.PhotoUpload{Data: data, Caption: caption, Featured: featured && len(uploads) == 0})
				}
				if len(errs) > 0 {
					return &model.ValidationError{Errors: errs}
				}

				res, err := e.journal.AddPhotos(ctx, actor, x.ID, uploads)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %d of %d photos to %s (%d/%d)\n",
					res.Added, len(uploads), view.DisplayName(res.Experience), len(res.Experience.Photos), e.journal.MaxPhotos())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&caption, "caption", "", "Caption for the added photos")
	cmd.Flags().BoolVar(&featured, "featured", false, "Feature the first added photo")
	return cmd
}

func newPhotoRemoveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id> <photo>",
		Aliases: []string{"remove"},
		Short:   "Remove a photo",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return journalCmd(cmd, opts, func(ctx context.Context, e *env, actor journal.Actor) error {
				x, p, err := resolvePhoto(ctx, e, actor, args[0], args[1])
				if err != nil {
					return err
				}
				if err := e.journal.DeletePhoto(ctx, actor, x.ID, p.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed photo %s from %s\n", shortID(p.ID), view.DisplayName(x))
				return nil
			})
		},
	}
}

func newPhotoMoveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> <photo> <position>",
		Short: "Move a photo to a 1-based position",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := strconv.Atoi(args[2])
			if err != nil {
				return model.NewValidationError("position", "must be a whole number")
			}
			return journalCmd(cmd, opts, func(ctx context.Context, e *env, actor journal.Actor) error {
				x, p, err := resolvePhoto(ctx, e, actor, args[0], args[1])
				if err != nil {
					return err
				}
				if err := e.journal.MovePhoto(ctx, actor, x.ID, p.ID, pos-1); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Moved photo %s to position %d\n", shortID(p.ID), pos)
				return nil
			})
		},
	}
}

func newPhotoFeatureCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "feature <id> <photo>",
		Short: "Make a photo the cover of its experience",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return journalCmd(cmd, opts, func(ctx context.Context, e *env, actor journal.Actor) error {
				x, p, err := resolvePhoto(ctx, e, actor, args[0], args[1])
				if err != nil {
					return err
				}
				if err := e.journal.SetFeaturedPhoto(ctx, actor, x.ID, p.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Featured photo %s of %s\n", shortID(p.ID), view.DisplayName(x))
				return nil
			})
		},
	}
}

func resolvePhoto(ctx context.Context, e *env, actor journal.Actor, expRef, photoRef string) (*model.Experience, model.Photo, error) {
	x, err := resolveExperience(ctx, e, actor, expRef)
	if err != nil {
		return nil, model.Photo{}, err
	}
	p, err := matchPhoto(x.Photos, photoRef)
	if err != nil {
		return nil, model.Photo{}, err
	}
	return x, p, nil
}

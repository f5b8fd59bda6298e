package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"eatlog/internal/journal"
	"eatlog/internal/model"
	"eatlog/internal/ui"
	"eatlog/internal/util"
	"eatlog/internal/view"
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(ui.ColorAccent).Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(ui.ColorMuted)
)

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}

// matchExperience finds the experience whose id is ref or starts with ref.
func matchExperience(list []*model.Experience, ref string) (*model.Experience, error) {
	ref = strings.ToLower(strings.TrimSpace(ref))
	if ref == "" {
		return nil, model.NewValidationError("id", "required")
	}
	var found []*model.Experience
	for _, e := range list {
		if strings.HasPrefix(e.ID.String(), ref) {
			found = append(found, e)
		}
	}
	switch len(found) {
	case 0:
		return nil, fmt.Errorf("no experience matches %q: %w", ref, model.ErrNotFound)
	case 1:
		return found[0], nil
	default:
		return nil, fmt.Errorf("%q matches %d experiences; use more of the id", ref, len(found))
	}
}

// matchPhoto finds the photo whose id is ref or starts with ref.
func matchPhoto(photos []model.Photo, ref string) (model.Photo, error) {
	ref = strings.ToLower(strings.TrimSpace(ref))
	var found []model.Photo
	for _, p := range photos {
		if ref != "" && strings.HasPrefix(p.ID.String(), ref) {
			found = append(found, p)
		}
	}
	switch len(found) {
	case 0:
		return model.Photo{}, fmt.Errorf("no photo matches %q: %w", ref, model.ErrNotFound)
	case 1:
		return found[0], nil
	default:
		return model.Photo{}, fmt.Errorf("%q matches %d photos; use more of the id", ref, len(found))
	}
}

// resolveExperience loads the experience named by a full id or an id prefix.
func resolveExperience(ctx context.Context, e *env, actor journal.Actor, ref string) (*model.Experience, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return e.journal.Get(ctx, actor, id)
	}
	list, err := e.journal.List(ctx, actor)
	if err != nil {
		return nil, err
	}
	return matchExperience(list, ref)
}

// journalCmd opens the environment for a signed-in command and flushes
// journal notices once run returns.
func journalCmd(cmd *cobra.Command, opts *rootOptions, run func(ctx context.Context, e *env, actor journal.Actor) error) error {
	e, err := openEnv(cmd.Context(), opts, false)
	if err != nil {
		return err
	}
	defer e.Close()

	actor, err := e.actor(cmd.Context())
	if err != nil {
		return err
	}
	err = run(cmd.Context(), e, actor)
	e.flushNotices(cmd.OutOrStdout(), cmd.ErrOrStderr())
	return err
}

func newAddCmd(opts *rootOptions) *cobra.Command {
	var f experienceFlags
	cmd := &cobra.Command{
		Use:   "add <restaurant|home-meal|wishlist> [name]",
		Short: "Log a restaurant visit or home meal, or add to the wishlist",
		Example: `  eatlog add restaurant "Som Tam House" --first 4.5 --second 4 --cost 48.50 --tag thai
  eatlog add home-meal Lasagna --ingredient pasta --ingredient ricotta --cook-time 90
  eatlog add wishlist Noma --priority high --url https://noma.dk`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, err := model.ParseExperienceType(args[0])
			if err != nil {
				return err
			}
			if len(args) == 2 {
				if cmd.Flags().Changed("name") {
					return fmt.Errorf("give the name as an argument or with --name, not both")
				}
				f.name = args[1]
			}

			return journalCmd(cmd, opts, func(ctx context.Context, e *env, actor journal.Actor) error {
				in := journal.CreateInput{
					Type:      typ,
					Name:      f.name,
					Date:      f.parseDate(),
					MealTime:  model.MealTime(strings.ToLower(f.meal)),
					Notes:     f.notes,
					Tags:      f.tags,
					CreatedBy: f.parseDiner(e.cfg.Diners),
					Favorite:  f.favorite,
					Details:   f.details(typ),
					Photos:    f.uploads(true),
				}
				if in.Date == nil && typ != model.TypeWishlist && !cmd.Flags().Changed("date") {
					today := util.Today(e.cfg.Journal.Location())
					in.Date = &today
				}
				if typ == model.TypeRestaurant {
					in.PlaceID = f.parsePlaceID()
					if in.PlaceID == nil {
						in.Place = f.placeInput(f.name)
					}
				}
				if err := f.err(); err != nil {
					return err
				}

				res, err := e.journal.Create(ctx, actor, in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", shortID(res.Experience.ID), view.DisplayName(res.Experience))
				return nil
			})
		},
	}
	f.register(cmd)
	f.registerPhotos(cmd)
	return cmd
}

func newEditCmd(opts *rootOptions) *cobra.Command {
	var f experienceFlags
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of an experience; only the given flags are touched",
		Example: `  eatlog edit 3f2a --second 4.5
  eatlog edit 3f2a --tag date-night --notes "Ask for the corner table"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			changed := cmd.Flags().Changed
			return journalCmd(cmd, opts, func(ctx context.Context, e *env, actor journal.Actor) error {
				current, err := resolveExperience(ctx, e, actor, args[0])
				if err != nil {
					return err
				}

				in := journal.EditFrom(current)
				if changed("name") {
					in.Name = f.name
				}
				if changed("date") {
					in.Date = f.parseDate()
				}
				if changed("meal") {
					in.MealTime = model.MealTime(strings.ToLower(f.meal))
				}
				if changed("notes") {
					in.Notes = f.notes
				}
				if changed("tag") {
					in.Tags = f.tags
				}
				if changed("by") {
					in.CreatedBy = f.parseDiner(e.cfg.Diners)
				}
				if changed("favorite") {
					in.Favorite = f.favorite
				}
				if current.Type == model.TypeRestaurant {
					in.Place = editPlace(cmd, &f, current)
				} else if changed("price") || changed("address") || changed("website") || changed("place-id") {
					f.fail("place", "only restaurants have a place")
				}
				in.Details = f.editDetails(cmd, current.Details)
				in.AddPhotos = f.uploads(len(current.Photos) == 0)
				if err := f.err(); err != nil {
					return err
				}

				res, err := e.journal.Update(ctx, actor, in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s (version %d)\n",
					shortID(res.Experience.ID), view.DisplayName(res.Experience), res.Experience.Version)
				return nil
			})
		},
	}
	f.register(cmd)
	f.registerPhotos(cmd)
	return cmd
}

// editPlace returns the place fields to save for a restaurant edit, or nil
// when no place flag changed. Renaming the visit renames its place.
func editPlace(cmd *cobra.Command, f *experienceFlags, current *model.Experience) *journal.PlaceInput {
	changed := cmd.Flags().Changed
	if changed("place-id") {
		f.fail("place_id", "cannot move an experience to another place")
	}
	if !changed("name") && !changed("cuisine") && !changed("price") && !changed("address") && !changed("website") {
		return nil
	}

	p := &journal.PlaceInput{Name: current.Name}
	if current.Place != nil {
		p.Name = current.Place.Name
		p.Cuisine = current.Place.Cuisine
		p.PriceRange = current.Place.PriceRange
		p.Address = current.Place.Address
		p.Website = current.Place.Website
	}
	if changed("name") {
		p.Name = f.name
	}
	if changed("cuisine") {
		p.Cuisine = f.cuisine
	}
	if changed("price") {
		p.PriceRange = model.PriceRange(f.price)
	}
	if changed("address") {
		p.Address = f.address
	}
	if changed("website") {
		p.Website = f.website
	}
	return p
}

func newShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one experience with its details and photos",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return journalCmd(cmd, opts, func(ctx context.Context, e *env, actor journal.Actor) error {
				x, err := resolveExperience(ctx, e, actor, args[0])
				if err != nil {
					return err
				}
				writeExperience(cmd.OutOrStdout(), e, x)
				return nil
			})
		},
	}
}

func writeExperience(w io.Writer, e *env, x *model.Experience) {
	title := view.DisplayName(x)
	if x.Favorite {
		title += " ♥"
	}
	fmt.Fprintln(w, titleStyle.Render(title))

	row := func(label, value string) {
		if value == "" {
			return
		}
		fmt.Fprintf(w, "%s %s\n", labelStyle.Render(fmt.Sprintf("%-12s", label+":")), value)
	}

	row("ID", x.ID.String())
	row("Type", x.Type.Label())
	row("Date", util.FormatDate(x.Date))
	row("Meal", string(x.MealTime))
	row("Logged by", view.CreatedByName(x, e.cfg.Diners))
	if x.Place != nil {
		row("Cuisine", x.Place.Cuisine)
		row("Price", string(x.Place.PriceRange))
		row("Address", x.Place.Address)
		row("Website", x.Place.Website)
	}

	if x.Type != model.TypeWishlist {
		for _, r := range view.RatingRows(x, e.cfg.Diners) {
			row(r.Label, util.FormatRatingWithStar(r.Value))
		}
		row("Average", util.FormatAverage(x.Ratings()))
	}

	switch d := x.Details.(type) {
	case *model.RestaurantDetails:
		row("Dishes", d.DishesOrdered)
		row("Cost", util.FormatCost(d.Cost))
	case *model.HomeMealDetails:
		row("Cuisine", d.Cuisine)
		row("Difficulty", string(d.Difficulty))
		row("Cook time", util.FormatMinutes(d.CookTimeMinutes))
		if d.Servings != nil {
			row("Servings", fmt.Sprint(*d.Servings))
		}
		row("Ingredients", strings.Join(d.Ingredients, "; "))
		row("Instructions", d.Instructions)
		row("Source", d.Source)
	case *model.WishlistDetails:
		row("Kind", string(d.WishlistType))
		row("Cuisine", d.Cuisine)
		row("Priority", string(d.Priority))
		row("Source", d.Source)
		row("URL", d.URL)
	}

	row("Tags", strings.Join(x.Tags, ", "))
	row("Notes", x.Notes)

	if len(x.Photos) == 0 {
		return
	}
	fmt.Fprintln(w, labelStyle.Render("Photos:"))
	for i, p := range x.Photos {
		mark := " "
		if p.Featured {
			mark = "*"
		}
		line := fmt.Sprintf("  %d %s %s  %s", i+1, mark, shortID(p.ID), e.blobs.PublicURL(p.StoragePath))
		if p.Caption != "" {
			line += "  " + p.Caption
		}
		fmt.Fprintln(w, line)
	}
}

func newConvertCmd(opts *rootOptions) *cobra.Command {
	var target string
	cmd := &cobra.Command{
		Use:   "convert <id>",
		Short: "Turn a wishlist item into a visit dated today",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := model.ParseExperienceType(target)
			if err != nil {
				return err
			}
			return journalCmd(cmd, opts, func(ctx context.Context, e *env, actor journal.Actor) error {
				src, err := resolveExperience(ctx, e, actor, args[0])
				if err != nil {
					return err
				}
				if src.Type != model.TypeWishlist {
					return fmt.Errorf("%s is a %s, only wishlist items can be converted", view.DisplayName(src), strings.ToLower(src.Type.Label()))
				}

				res, err := e.journal.Convert(ctx, actor, journal.ConvertInput{ID: src.ID, Target: t})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", shortID(res.Experience.ID), view.DisplayName(res.Experience))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&target, "to", string(model.TypeRestaurant), "Target type: restaurant or home-meal")
	return cmd
}

func newDeleteCmd(opts *rootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete an experience and its photos",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return journalCmd(cmd, opts, func(ctx context.Context, e *env, actor journal.Actor) error {
				x, err := resolveExperience(ctx, e, actor, args[0])
				if err != nil {
					return err
				}
				if !yes {
					ok, err := confirm(cmd, fmt.Sprintf("Delete %q?", view.DisplayName(x)))
					if err != nil {
						return err
					}
					if !ok {
						fmt.Fprintln(cmd.OutOrStdout(), "Kept", view.DisplayName(x))
						return nil
					}
				}
				_, err = e.journal.Delete(ctx, actor, x.ID)
				return err
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func newFavoriteCmd(opts *rootOptions) *cobra.Command {
	var on, off bool
	cmd := &cobra.Command{
		Use:   "favorite <id>",
		Short: "Toggle the favorite mark, or set it with --on or --off",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return journalCmd(cmd, opts, func(ctx context.Context, e *env, actor journal.Actor) error {
				x, err := resolveExperience(ctx, e, actor, args[0])
				if err != nil {
					return err
				}
				switch {
				case on:
					return e.journal.SetFavorite(ctx, actor, x.ID, true)
				case off:
					return e.journal.SetFavorite(ctx, actor, x.ID, false)
				default:
					_, err := e.journal.ToggleFavorite(ctx, actor, x.ID)
					return err
				}
			})
		},
	}
	cmd.Flags().BoolVar(&on, "on", false, "Mark as favorite")
	cmd.Flags().BoolVar(&off, "off", false, "Remove the favorite mark")
	cmd.MarkFlagsMutuallyExclusive("on", "off")
	return cmd
}

func newPlacesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "places [search]",
		Short: "List saved restaurant places, for use with add --place-id",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var search string
			if len(args) == 1 {
				search = args[0]
			}
			return journalCmd(cmd, opts, func(ctx context.Context, e *env, actor journal.Actor) error {
				places, err := e.journal.Places(ctx, actor, search)
				if err != nil {
					return err
				}
				if len(places) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No places yet")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), placesTable(places))
				return nil
			})
		},
	}
}

package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"eatlog/internal/journal"
	"eatlog/internal/model"
	"eatlog/internal/ui"
	"eatlog/internal/util"
	"eatlog/internal/view"
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(ui.ColorAccent).Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ui.ColorMuted)).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func experienceTable(list []*model.Experience) string {
	t := newTable("ID", "Type", "Name", "Date", "Avg", "Tags", "")
	for _, e := range list {
		fav := ""
		if e.Favorite {
			fav = "♥"
		}
		date := util.FormatDate(e.Date)
		if e.Date == nil {
			date = "—"
		}
		t.Row(
			shortID(e.ID),
			e.Type.Label(),
			util.TruncateString(view.DisplayName(e), 32),
			date,
			util.FormatAverage(e.Ratings()),
			util.TruncateString(strings.Join(e.Tags, ", "), 24),
			fav,
		)
	}
	return t.Render()
}

func placesTable(places []model.Place) string {
	t := newTable("ID", "Name", "Cuisine", "Price", "Address")
	for _, p := range places {
		t.Row(p.ID.String(), p.Name, p.Cuisine, string(p.PriceRange), util.TruncateString(p.Address, 40))
	}
	return t.Render()
}

type listFlags struct {
	typ       string
	sort      string
	query     string
	favorites bool
	tags      []string
	from      string
	to        string
}

// filter turns the flags into a view filter and sort key.
func (f listFlags) filter() (view.Filter, view.SortKey, error) {
	var filter view.Filter
	var errs []model.FieldError

	if f.typ != "" {
		t, err := model.ParseExperienceType(f.typ)
		if err != nil {
			errs = append(errs, model.FieldError{Field: "type", Message: "must be restaurant, home-meal or wishlist"})
		}
		filter.Type = t
	}
	key, err := view.ParseSortKey(f.sort)
	if err != nil {
		errs = append(errs, model.FieldError{Field: "sort", Message: "must be date, name or rating"})
	}
	filter.Query = f.query
	filter.FavoritesOnly = f.favorites
	filter.Tags = model.NormalizeTags(f.tags)

	if filter.From, err = util.ParseDateInput(f.from); err != nil {
		errs = append(errs, model.FieldError{Field: "from", Message: "use YYYY-MM-DD"})
	}
	if filter.To, err = util.ParseDateInput(f.to); err != nil {
		errs = append(errs, model.FieldError{Field: "to", Message: "use YYYY-MM-DD"})
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		errs = append(errs, model.FieldError{Field: "from", Message: "must not be after --to"})
	}

	if len(errs) > 0 {
		return view.Filter{}, "", &model.ValidationError{Errors: errs}
	}
	return filter, key, nil
}

func newListCmd(opts *rootOptions) *cobra.Command {
	var f listFlags
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List experiences, newest first by default",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, key, err := f.filter()
			if err != nil {
				return err
			}
			return journalCmd(cmd, opts, func(ctx context.Context, e *env, actor journal.Actor) error {
				all, err := e.journal.List(ctx, actor)
				if err != nil {
					return err
				}
				list := view.Apply(all, filter, key)
				if len(list) == 0 {
					if filter.Active() {
						fmt.Fprintln(cmd.OutOrStdout(), "Nothing matches")
					} else {
						fmt.Fprintln(cmd.OutOrStdout(), "The journal is empty; try `eatlog add`")
					}
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), experienceTable(list))
				return nil
			})
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&f.typ, "type", "t", "", "Only this type: restaurant, home-meal or wishlist")
	fs.StringVarP(&f.sort, "sort", "s", "date", "Sort by date, name or rating")
	fs.StringVarP(&f.query, "query", "q", "", "Case-insensitive search over names, places, notes and tags")
	fs.BoolVar(&f.favorites, "favorites", false, "Only favorites")
	fs.StringSliceVar(&f.tags, "tag", nil, "Require this tag; repeat to require several")
	fs.StringVar(&f.from, "from", "", "Visited on or after this date")
	fs.StringVar(&f.to, "to", "", "Visited on or before this date")
	return cmd
}

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show visits grouped by day, optionally starting at --date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := util.ParseDateInput(date)
			if err != nil {
				return model.NewValidationError("date", "use YYYY-MM-DD")
			}
			return journalCmd(cmd, opts, func(ctx context.Context, e *env, actor journal.Actor) error {
				list, err := e.journal.List(ctx, actor)
				if err != nil {
					return err
				}
				groups := view.History(list)
				if start != nil {
					i := view.JumpTo(groups, *start)
					if i < 0 {
						fmt.Fprintf(cmd.OutOrStdout(), "Nothing on or before %s\n", start.Format(model.DateLayout))
						return nil
					}
					groups = groups[i:]
				}
				if len(groups) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No visits yet")
					return nil
				}
				writeHistory(cmd, groups)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Start at the newest day on or before this date")
	return cmd
}

func writeHistory(cmd *cobra.Command, groups []view.DayGroup) {
	w := cmd.OutOrStdout()
	for i, g := range groups {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, titleStyle.Render(g.Date.Format("Monday, January 2, 2006")))
		for _, e := range g.Items {
			line := fmt.Sprintf("  %s  %-10s %s", shortID(e.ID), e.Type.Label(), view.DisplayName(e))
			if e.MealTime != "" {
				line += labelStyle.Render(" · " + string(e.MealTime))
			}
			if avg := util.FormatAverage(e.Ratings()); avg != "unrated" {
				line += "  " + avg + " ★"
			}
			fmt.Fprintln(w, line)
		}
	}
}


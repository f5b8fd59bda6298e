package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"eatlog/internal/config"
	"eatlog/internal/model"
	"eatlog/internal/util"
	"eatlog/internal/view"
)

// DetailModel represents the experience detail screen.
type DetailModel struct {
	exp      *model.Experience
	diners   config.DinersConfig
	coverURL string
	art      string
}

// NewDetailModel creates a detail screen. coverURL is the featured photo
// URL or the placeholder when the experience has no photos.
func NewDetailModel(e *model.Experience, diners config.DinersConfig, coverURL string) *DetailModel {
	return &DetailModel{exp: e, diners: diners, coverURL: coverURL}
}

// View renders the experience detail.
func (m *DetailModel) View(width, height int, now time.Time) string {
	e := m.exp
	var sections []string

	title := LabelStyle.Render(view.DisplayName(e)) + "  " + typeBadge(e.Type)
	if e.Favorite {
		title += "  " + FavoriteStyle.Render("♥ favorite")
	}
	sections = append(sections, title)

	var fields []string
	if e.Date != nil {
		fields = append(fields, renderField("Date", util.FormatDate(e.Date)+"  ("+util.FormatDateHuman(e.Date, now)+")"))
	}
	if e.MealTime != "" {
		fields = append(fields, renderField("Meal", string(e.MealTime)))
	}
	fields = append(fields, renderField("Logged by", view.CreatedByName(e, m.diners)))
	if len(e.Tags) > 0 {
		fields = append(fields, renderField("Tags", strings.Join(e.Tags, ", ")))
	}
	fields = append(fields, m.typeFields()...)
	sections = append(sections, strings.Join(fields, "\n"))

	if e.Type != model.TypeWishlist {
		sections = append(sections, m.ratingsSection())
	}

	divider := lipgloss.NewStyle().
		Foreground(ColorMuted).
		Render(strings.Repeat("─", max(10, width-8)))
	sections = append(sections, divider)

	if e.Notes != "" {
		sections = append(sections, LabelStyle.Render("Notes:"), NormalRowStyle.Render(e.Notes))
	} else {
		sections = append(sections, HelpDescStyle.Render("No notes"))
	}
	if d, ok := e.Details.(*model.HomeMealDetails); ok {
		if len(d.Ingredients) > 0 {
			sections = append(sections, LabelStyle.Render("Ingredients:"), NormalRowStyle.Render("• "+strings.Join(d.Ingredients, "\n• ")))
		}
		if d.Instructions != "" {
			sections = append(sections, LabelStyle.Render("Instructions:"), NormalRowStyle.Render(d.Instructions))
		}
	}

	left := strings.Join(sections, "\n\n")
	right := m.photoPanel()

	var body string
	if width >= 100 {
		leftWidth := (width - 12) * 55 / 100
		body = lipgloss.JoinHorizontal(lipgloss.Top,
			lipgloss.NewStyle().Width(leftWidth).Render(left), "  ",
			lipgloss.NewStyle().Width(width-12-leftWidth).Render(right))
	} else {
		body = lipgloss.JoinVertical(lipgloss.Left, left, "", right)
	}

	return PanelStyle.Width(width - 4).MaxHeight(height).Render(body)
}

func (m *DetailModel) typeFields() []string {
	e := m.exp
	var fields []string
	switch d := e.Details.(type) {
	case *model.RestaurantDetails:
		if p := e.Place; p != nil {
			fields = append(fields, renderField("Place", p.Name))
			fields = append(fields, renderField("Cuisine", p.Cuisine))
			fields = append(fields, renderField("Price", string(p.PriceRange)))
			fields = append(fields, renderField("Address", p.Address))
			if p.Website != "" {
				fields = append(fields, renderField("Website", p.Website))
			}
		}
		fields = append(fields, renderField("Dishes", d.DishesOrdered))
		fields = append(fields, renderField("Cost", util.FormatCost(d.Cost)))
	case *model.HomeMealDetails:
		fields = append(fields, renderField("Cuisine", d.Cuisine))
		fields = append(fields, renderField("Difficulty", string(d.Difficulty)))
		fields = append(fields, renderField("Cook time", util.FormatMinutes(d.CookTimeMinutes)))
		servings := ""
		if d.Servings != nil {
			servings = strconv.Itoa(*d.Servings)
		}
		fields = append(fields, renderField("Servings", servings))
		fields = append(fields, renderField("Source", d.Source))
	case *model.WishlistDetails:
		fields = append(fields, renderField("Kind", string(d.WishlistType)))
		fields = append(fields, renderField("Priority", string(d.Priority)))
		fields = append(fields, renderField("Cuisine", d.Cuisine))
		fields = append(fields, renderField("Source", d.Source))
		fields = append(fields, renderField("Link", d.URL))
	case nil:
		fields = append(fields, ErrorStyle.Render("details missing"))
	}
	return fields
}

func (m *DetailModel) ratingsSection() string {
	var lines []string
	for _, row := range view.RatingRows(m.exp, m.diners) {
		value := HelpDescStyle.Render("not rated")
		if row.Value != nil {
			value = RatingStyle.Render(util.FormatRatingStars(row.Value)) + " " + util.FormatRating(row.Value)
		}
		lines = append(lines, LabelStyle.Render(row.Label+":")+" "+value)
	}
	lines = append(lines, LabelStyle.Render("Average:")+" "+util.FormatAverage(m.exp.Ratings()))
	return strings.Join(lines, "\n")
}

func (m *DetailModel) photoPanel() string {
	count := fmt.Sprintf("%d photo(s)", len(m.exp.Photos))
	if m.art != "" {
		return lipgloss.JoinVertical(lipgloss.Left, m.art, HelpDescStyle.Render(count+"  ·  "+m.coverURL))
	}
	if len(m.exp.Photos) == 0 {
		return HelpDescStyle.Render("No photos  ·  " + m.coverURL)
	}
	return HelpDescStyle.Render(count + "  ·  " + m.coverURL)
}

func renderField(label, value string) string {
	if value == "" {
		value = "—"
	}
	return LabelStyle.Render(label+":") + " " + NormalRowStyle.Render(value)
}

package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"eatlog/internal/model"
	"eatlog/internal/util"
	"eatlog/internal/view"
)

type typeTab struct {
	label string
	typ   model.ExperienceType
}

var typeTabs = []typeTab{
	{"All", ""},
	{"Restaurants", model.TypeRestaurant},
	{"Home meals", model.TypeHomeMeal},
	{"Wishlist", model.TypeWishlist},
}

// ListModel is the journal list screen: every loaded experience narrowed
// by the type tab, search and favorites filter.
type ListModel struct {
	all     []*model.Experience
	rows    []*model.Experience
	filter  view.Filter
	sortKey view.SortKey
	tab     int
	cursor  int
	offset  int
}

// NewListModel creates a list using persisted preferences.
func NewListModel(prefs ListPrefs) *ListModel {
	m := &ListModel{sortKey: prefs.SortKey}
	if m.sortKey == "" {
		m.sortKey = view.SortDate
	}
	for i, t := range typeTabs {
		if t.typ == prefs.Type {
			m.tab = i
		}
	}
	m.filter.Type = typeTabs[m.tab].typ
	m.filter.FavoritesOnly = prefs.FavoritesOnly
	return m
}

// SetExperiences replaces the loaded collection and keeps the cursor on the
// same experience when it is still visible.
func (m *ListModel) SetExperiences(list []*model.Experience) {
	var selected uuid.UUID
	if e := m.Selected(); e != nil {
		selected = e.ID
	}
	m.all = list
	m.rebuild()
	m.Select(selected)
}

// Select moves the cursor to id when it is visible.
func (m *ListModel) Select(id uuid.UUID) {
	for i, e := range m.rows {
		if e.ID == id {
			m.cursor = i
			return
		}
	}
}

func (m *ListModel) Prefs() ListPrefs {
	return ListPrefs{
		SortKey:       m.sortKey,
		Type:          m.filter.Type,
		FavoritesOnly: m.filter.FavoritesOnly,
	}
}

func (m *ListModel) rebuild() {
	m.rows = view.Apply(m.all, m.filter, m.sortKey)
	m.clampCursor()
}

func (m *ListModel) clampCursor() {
	if len(m.rows) == 0 {
		m.cursor = 0
		m.offset = 0
		return
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.offset > m.cursor {
		m.offset = m.cursor
	}
}

// Selected returns the experience under the cursor, or nil.
func (m *ListModel) Selected() *model.Experience {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return nil
	}
	return m.rows[m.cursor]
}

func (m *ListModel) NextTab() {
	m.setTab((m.tab + 1) % len(typeTabs))
}

func (m *ListModel) PrevTab() {
	m.setTab((m.tab - 1 + len(typeTabs)) % len(typeTabs))
}

func (m *ListModel) setTab(i int) {
	m.tab = i
	m.filter.Type = typeTabs[i].typ
	m.cursor = 0
	m.offset = 0
	m.rebuild()
}

// CycleSort advances to the next sort key and returns it.
func (m *ListModel) CycleSort() view.SortKey {
	m.sortKey = m.sortKey.Next()
	m.rebuild()
	return m.sortKey
}

// ToggleFavoritesOnly flips the favorites filter and returns its new state.
func (m *ListModel) ToggleFavoritesOnly() bool {
	m.filter.FavoritesOnly = !m.filter.FavoritesOnly
	m.rebuild()
	return m.filter.FavoritesOnly
}

func (m *ListModel) SetQuery(q string) {
	m.filter.Query = q
	m.cursor = 0
	m.offset = 0
	m.rebuild()
}

// ClearFilters drops the search and favorites filter. The type tab stays.
// It reports whether anything was cleared.
func (m *ListModel) ClearFilters() bool {
	if m.filter.Query == "" && !m.filter.FavoritesOnly && len(m.filter.Tags) == 0 {
		return false
	}
	m.filter = view.Filter{Type: m.filter.Type}
	m.rebuild()
	return true
}

// View renders the tab bar and the table.
func (m *ListModel) View(width, height int, now time.Time) string {
	tabs := renderTabs(m.tab, width)
	height -= lipgloss.Height(tabs)

	if len(m.rows) == 0 {
		msg := "    Nothing here yet.\n    Press  a  to log a meal or save a place for later."
		if m.filter.Active() && len(m.all) > 0 {
			msg = "    No experiences match.\n    Press  N  to clear filters."
		}
		return lipgloss.JoinVertical(lipgloss.Left, tabs, EmptyStateStyle.Width(width).Height(height).Render(msg))
	}

	headers := []string{"", "TYPE", "DATE", "NAME", "RATING", "DETAILS", "TAGS"}
	widths := []int{3, 6, 12, 28, 10, 22, 16}
	total := 0
	for _, w := range widths {
		total += w
	}
	if extra := width - total - 4; extra > 0 {
		widths[len(widths)-1] += extra
	}
	switch m.sortKey {
	case view.SortDate:
		headers[2] += " ↓"
	case view.SortName:
		headers[3] += " ↑"
	case view.SortRating:
		headers[4] += " ↓"
	}

	header := renderTableRow(headers, widths, TableHeaderStyle)

	visibleHeight := max(1, height-4)
	if m.cursor >= m.offset+visibleHeight {
		m.offset = m.cursor - visibleHeight + 1
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}

	var rows []string
	for i := m.offset; i < len(m.rows) && i < m.offset+visibleHeight; i++ {
		e := m.rows[i]
		style := NormalRowStyle
		if i%2 == 1 {
			style = style.Background(ColorStripe)
		}
		if i == m.cursor {
			style = SelectedRowStyle
		}

		fav := " "
		if e.Favorite {
			fav = FavoriteStyle.Render("♥")
		}
		rating := util.FormatAverage(e.Ratings())
		if _, ok := view.AverageRating(e); ok {
			rating = RatingStyle.Render(rating + " ★")
		}
		date := "—"
		if e.Date != nil {
			date = util.FormatDateHuman(e.Date, now)
		}
		cells := []string{
			fav,
			typeBadge(e.Type),
			date,
			util.TruncateString(view.DisplayName(e), widths[3]-2),
			rating,
			util.TruncateString(detailSummary(e), widths[5]-2),
			util.TruncateString(strings.Join(e.Tags, ", "), widths[6]-2),
		}
		rows = append(rows, renderTableRow(cells, widths, style))
	}

	status := StatusBarStyle.Render(m.statusLine())
	return lipgloss.JoinVertical(
		lipgloss.Left,
		tabs,
		header,
		strings.Join(rows, "\n"),
		"",
		status,
	)
}

func (m *ListModel) statusLine() string {
	parts := []string{fmt.Sprintf("%d of %d", len(m.rows), len(m.all)), "sort: " + string(m.sortKey)}
	if m.filter.FavoritesOnly {
		parts = append(parts, "favorites")
	}
	if q := strings.TrimSpace(m.filter.Query); q != "" {
		parts = append(parts, fmt.Sprintf("search: %q", q))
	}
	return strings.Join(parts, "  ·  ")
}

// detailSummary is the short type-specific column of the list.
func detailSummary(e *model.Experience) string {
	var parts []string
	switch d := e.Details.(type) {
	case *model.RestaurantDetails:
		if e.Place != nil {
			parts = append(parts, e.Place.Cuisine, string(e.Place.PriceRange))
		}
		if d.Cost != nil {
			parts = append(parts, util.FormatCost(d.Cost))
		}
	case *model.HomeMealDetails:
		parts = append(parts, d.Cuisine, string(d.Difficulty))
	case *model.WishlistDetails:
		parts = append(parts, string(d.Priority)+" priority", string(d.WishlistType))
	}
	var out []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " · ")
}

// MoveDown moves the cursor down.
func (m *ListModel) MoveDown() {
	if m.cursor < len(m.rows)-1 {
		m.cursor++
	}
}

// MoveUp moves the cursor up.
func (m *ListModel) MoveUp() {
	if m.cursor > 0 {
		m.cursor--
	}
}

func (m *ListModel) JumpToTop() {
	m.cursor = 0
	m.offset = 0
}

func (m *ListModel) JumpToBottom() {
	if len(m.rows) > 0 {
		m.cursor = len(m.rows) - 1
	}
}

// HalfPageDown moves down half a page.
func (m *ListModel) HalfPageDown(pageSize int) {
	m.cursor = min(m.cursor+pageSize/2, len(m.rows)-1)
	m.clampCursor()
}

// HalfPageUp moves up half a page.
func (m *ListModel) HalfPageUp(pageSize int) {
	m.cursor = max(m.cursor-pageSize/2, 0)
	m.clampCursor()
}

func renderTabs(active, width int) string {
	var tabStrings []string
	for i, tab := range typeTabs {
		tabStyle := lipgloss.NewStyle().
			Padding(0, 2).
			Foreground(ColorMuted)

		if i == active {
			tabStyle = tabStyle.
				Foreground(ColorText).
				Bold(true).
				Underline(true)
		}
		tabStrings = append(tabStrings, tabStyle.Render(tab.label))
	}

	tabBar := lipgloss.JoinHorizontal(lipgloss.Left, tabStrings...)
	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 2).
		BorderBottom(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ColorMuted).
		Render(tabBar)
}

func renderTableRow(cells []string, widths []int, style lipgloss.Style) string {
	var parts []string
	for i, cell := range cells {
		if i >= len(widths) {
			continue
		}
		parts = append(parts, style.Width(widths[i]).Render(cell))
	}
	return lipgloss.JoinHorizontal(lipgloss.Left, parts...)
}

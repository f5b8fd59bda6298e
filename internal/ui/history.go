package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"eatlog/internal/model"
	"eatlog/internal/util"
	"eatlog/internal/view"
)

// HistoryModel shows dated experiences grouped by day, newest first.
type HistoryModel struct {
	groups []view.DayGroup
	items  []historyItem
	cursor int
	offset int
}

type historyItem struct {
	group int
	exp   *model.Experience
}

func NewHistoryModel(list []*model.Experience) *HistoryModel {
	m := &HistoryModel{}
	m.SetExperiences(list)
	return m
}

func (m *HistoryModel) SetExperiences(list []*model.Experience) {
	m.groups = view.History(list)
	m.items = m.items[:0]
	for gi, g := range m.groups {
		for _, e := range g.Items {
			m.items = append(m.items, historyItem{group: gi, exp: e})
		}
	}
	if m.cursor >= len(m.items) {
		m.cursor = max(0, len(m.items)-1)
	}
}

// Selected returns the experience under the cursor, or nil.
func (m *HistoryModel) Selected() *model.Experience {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return nil
	}
	return m.items[m.cursor].exp
}

// JumpTo moves to the first experience on or before day and reports
// whether one exists.
func (m *HistoryModel) JumpTo(day time.Time) bool {
	gi := view.JumpTo(m.groups, day)
	if gi < 0 {
		return false
	}
	for i, it := range m.items {
		if it.group == gi {
			m.cursor = i
			return true
		}
	}
	return false
}

func (m *HistoryModel) MoveDown() {
	if m.cursor < len(m.items)-1 {
		m.cursor++
	}
}

func (m *HistoryModel) MoveUp() {
	if m.cursor > 0 {
		m.cursor--
	}
}

func (m *HistoryModel) JumpToTop()    { m.cursor = 0 }
func (m *HistoryModel) JumpToBottom() { m.cursor = max(0, len(m.items)-1) }

// View renders day headers with their experiences underneath.
func (m *HistoryModel) View(width, height int, now time.Time) string {
	if len(m.items) == 0 {
		return EmptyStateStyle.Width(width).Height(height).Render("    No visits logged yet.")
	}

	// Lines are built for the whole timeline, then windowed around the cursor.
	var lines []string
	cursorLine := 0
	lastGroup := -1
	for i, it := range m.items {
		if it.group != lastGroup {
			if lastGroup >= 0 {
				lines = append(lines, "")
			}
			g := m.groups[it.group]
			day := g.Date
			label := fmt.Sprintf("%s  (%s)", util.FormatDate(&day), util.FormatDateHuman(&day, now))
			lines = append(lines, LabelStyle.Render(label)+HelpDescStyle.Render(fmt.Sprintf("  %d", len(g.Items))))
			lastGroup = it.group
		}

		style := NormalRowStyle
		if i == m.cursor {
			style = SelectedRowStyle
			cursorLine = len(lines)
		}
		meal := ""
		if it.exp.MealTime != "" {
			meal = string(it.exp.MealTime)
		}
		cells := []string{
			"  " + typeBadge(it.exp.Type),
			util.TruncateString(view.DisplayName(it.exp), 30),
			meal,
			util.FormatAverage(it.exp.Ratings()),
		}
		lines = append(lines, renderTableRow(cells, []int{8, 32, 11, max(10, width-55)}, style))
	}

	visible := max(1, height-2)
	if cursorLine >= m.offset+visible {
		m.offset = cursorLine - visible + 1
	}
	if cursorLine < m.offset {
		m.offset = max(0, cursorLine-1)
	}
	end := min(len(lines), m.offset+visible)

	status := StatusBarStyle.Render(fmt.Sprintf("%d days  ·  %d visits", len(m.groups), len(m.items)))
	return lipgloss.JoinVertical(lipgloss.Left, strings.Join(lines[m.offset:end], "\n"), "", status)
}

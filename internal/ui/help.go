package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"eatlog/internal/model"
)

// RenderHelp renders context-sensitive help footer.
func (m Model) RenderHelp(width int) string {
	switch m.mode {
	case model.ModeInsert:
		if m.screen == model.ScreenPhotos {
			return renderHelpLine([]string{helpKey("enter", "add"), helpKey("esc", "cancel")}, width)
		}
		return renderFormHelp(m.formKeys, width)
	case model.ModeSearch:
		return renderHelpLine([]string{helpKey("enter", "apply"), helpKey("esc", "clear")}, width)
	case model.ModeConfirm:
		if m.prompt != nil {
			return renderHelpLine(m.prompt.help(), width)
		}
	}

	k := m.keys
	switch m.screen {
	case model.ScreenList:
		return renderHelpLine([]string{
			helpKey("j/k", "navigate"),
			helpBinding(k.NextTab),
			helpBinding(k.Search),
			helpBinding(k.Sort),
			helpKey("f/N", "favorites/clear"),
			helpBinding(k.Favorite),
			helpKey("a", "add"),
			helpBinding(k.History),
			helpKey("u/ctrl+r", "undo/redo"),
		}, width)
	case model.ScreenHistory:
		return renderHelpLine([]string{
			helpKey("j/k", "navigate"),
			helpKey("/", "jump to date"),
			helpBinding(k.Open),
			helpBinding(k.Back),
		}, width)
	case model.ScreenDetail:
		keys := []string{
			helpBinding(k.Back),
			helpBinding(k.Edit),
			helpBinding(k.Photos),
			helpBinding(k.Favorite),
			helpBinding(k.Delete),
		}
		if m.detail != nil && m.detail.exp.Type == model.TypeWishlist {
			keys = append(keys, helpBinding(k.Convert))
		}
		return renderHelpLine(keys, width)
	case model.ScreenPhotos:
		p := m.photoKeys
		return renderHelpLine([]string{
			helpKey("j/k", "select"),
			helpKey("J/K", "move"),
			helpBinding(p.Feature),
			helpBinding(p.Remove),
			helpBinding(p.Add),
			helpBinding(p.Save),
			helpKey("esc", "discard"),
		}, width)
	}
	return renderHelpLine([]string{helpKey("j/k", "navigate"), helpKey("q", "quit")}, width)
}

func renderFormHelp(k FormKeyMap, width int) string {
	keys := []string{
		helpBinding(k.NextField),
		helpBinding(k.PrevField),
		helpBinding(k.Save),
		helpBinding(k.Cancel),
	}
	return renderHelpLine(keys, width)
}

func helpBinding(b key.Binding) string {
	h := b.Help()
	return helpKey(h.Key, h.Desc)
}

func helpKey(key, desc string) string {
	return HelpKeyStyle.Render(key) + " " + HelpDescStyle.Render(desc)
}

func renderHelpLine(keys []string, width int) string {
	line := strings.Join(keys, "  ")
	return FooterStyle.Width(width).Render(line)
}

// RenderFullHelp renders the full help screen.
func RenderFullHelp(width, height int) string {
	content := lipgloss.NewStyle().
		Width(width-4).
		Height(height-6).
		Padding(1, 2)

	sections := []string{
		titleSection("Navigation"),
		helpSection([]helpItem{
			{"j / ↓", "Move down"},
			{"k / ↑", "Move up"},
			{"h / esc / b", "Go back"},
			{"l / enter", "Open"},
			{"gg", "Jump to top"},
			{"G", "Jump to bottom"},
			{"ctrl+d / ctrl+u", "Half page down / up"},
			{"u / ctrl+r", "Undo / redo edits and favorites"},
			{"q", "Quit (from the list)"},
			{"?", "Toggle help"},
		}),
		titleSection("Journal"),
		helpSection([]helpItem{
			{"← / → / tab", "Switch type tab"},
			{"/", "Search name, place, notes and tags"},
			{"s", "Cycle sort: date, name, rating"},
			{"f", "Favorites only"},
			{"N", "Clear filters"},
			{"*", "Toggle favorite"},
			{"a then r/h/w", "Add restaurant, home meal or wishlist item"},
			{"H", "History by day"},
		}),
		titleSection("Detail"),
		helpSection([]helpItem{
			{"e", "Edit"},
			{"p", "Manage photos"},
			{"d", "Delete (asks first)"},
			{"c then r/h", "Mark a wishlist item visited"},
		}),
		titleSection("Photos"),
		helpSection([]helpItem{
			{"J / K", "Move selected photo down / up"},
			{"f", "Feature selected photo"},
			{"x", "Mark or unmark for deletion"},
			{"a", "Add an image file"},
			{"ctrl+s", "Save changes"},
		}),
		titleSection("Forms"),
		helpSection([]helpItem{
			{"tab", "Next field"},
			{"shift+tab", "Previous field"},
			{"ctrl+s", "Save"},
			{"esc", "Cancel"},
		}),
	}

	helpText := content.Render(strings.Join(sections, "\n\n"))

	return lipgloss.JoinVertical(
		lipgloss.Left,
		TitleStyle.Width(width).Render("Help"),
		helpText,
		FooterStyle.Width(width).Render(HelpKeyStyle.Render("esc")+" "+HelpDescStyle.Render("close help")),
	)
}

type helpItem struct {
	key  string
	desc string
}

func titleSection(title string) string {
	return LabelStyle.Render(title)
}

func helpSection(items []helpItem) string {
	var lines []string
	for _, item := range items {
		lines = append(lines, "  "+HelpKeyStyle.Render(item.key)+" - "+HelpDescStyle.Render(item.desc))
	}
	return strings.Join(lines, "\n")
}

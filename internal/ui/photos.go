package ui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"eatlog/internal/journal"
	"eatlog/internal/model"
)

// PhotosModel stages photo edits for one experience. Nothing is written
// until the edits are saved as a single Update.
type PhotosModel struct {
	exp       *model.Experience
	maxPhotos int
	keys      PhotoKeyMap

	order    []model.Photo
	deleted  map[uuid.UUID]bool
	featured uuid.UUID
	adds     []string
	cursor   int

	adding bool
	saving bool
	input  textinput.Model
	error  string
}

func NewPhotosModel(e *model.Experience, maxPhotos int) *PhotosModel {
	in := textinput.New()
	in.Placeholder = "path/to/photo.jpg"
	in.CharLimit = 1000

	m := &PhotosModel{
		exp:       e,
		maxPhotos: maxPhotos,
		keys:      DefaultPhotoKeyMap(),
		order:     append([]model.Photo(nil), e.Photos...),
		deleted:   make(map[uuid.UUID]bool),
		input:     in,
	}
	for _, p := range e.Photos {
		if p.Featured {
			m.featured = p.ID
		}
	}
	return m
}

// Dirty reports whether there are unsaved edits.
func (m *PhotosModel) Dirty() bool {
	return len(m.deleted) > 0 || len(m.adds) > 0 || m.featuredChanged() || m.orderChanged()
}

func (m *PhotosModel) featuredChanged() bool {
	for _, p := range m.exp.Photos {
		if p.Featured {
			return p.ID != m.featured
		}
	}
	return m.featured != uuid.Nil
}

func (m *PhotosModel) orderChanged() bool {
	for i, p := range m.order {
		if m.exp.Photos[i].ID != p.ID {
			return true
		}
	}
	return false
}

func (m *PhotosModel) survivors() int {
	return len(m.order) - len(m.deleted) + len(m.adds)
}

// Update handles keys in nav mode and the path prompt while adding.
func (m PhotosModel) Update(msg tea.KeyMsg) (PhotosModel, tea.Cmd) {
	if m.adding {
		switch msg.String() {
		case "esc":
			m.adding = false
			m.input.Blur()
			m.input.SetValue("")
			return m, nil
		case "enter":
			path := strings.TrimSpace(m.input.Value())
			m.adding = false
			m.input.Blur()
			m.input.SetValue("")
			if path != "" {
				m.adds = append(m.adds, path)
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	m.error = ""
	switch {
	case msg.String() == "j" || msg.String() == "down":
		if m.cursor < len(m.order)-1 {
			m.cursor++
		}
	case msg.String() == "k" || msg.String() == "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.MoveDown):
		if m.cursor < len(m.order)-1 {
			m.order[m.cursor], m.order[m.cursor+1] = m.order[m.cursor+1], m.order[m.cursor]
			m.cursor++
		}
	case key.Matches(msg, m.keys.MoveUp):
		if m.cursor > 0 {
			m.order[m.cursor], m.order[m.cursor-1] = m.order[m.cursor-1], m.order[m.cursor]
			m.cursor--
		}
	case key.Matches(msg, m.keys.Feature):
		if p, ok := m.selected(); ok {
			if m.deleted[p.ID] {
				m.error = "Cannot feature a photo marked for deletion"
				return m, nil
			}
			m.featured = p.ID
		}
	case key.Matches(msg, m.keys.Remove):
		if p, ok := m.selected(); ok {
			if m.deleted[p.ID] {
				delete(m.deleted, p.ID)
			} else {
				m.deleted[p.ID] = true
			}
		}
	case key.Matches(msg, m.keys.Add):
		if m.survivors() >= m.maxPhotos {
			m.error = fmt.Sprintf("At most %d photos per experience", m.maxPhotos)
			return m, nil
		}
		m.adding = true
		cmd := m.input.Focus()
		return m, cmd
	}
	return m, nil
}

func (m *PhotosModel) selected() (model.Photo, bool) {
	if m.cursor < 0 || m.cursor >= len(m.order) {
		return model.Photo{}, false
	}
	return m.order[m.cursor], true
}

// Input converts the staged edits into an UpdateInput based on the
// experience as loaded.
func (m *PhotosModel) Input() (journal.UpdateInput, error) {
	in := journal.EditFrom(m.exp)

	order := make([]uuid.UUID, 0, len(m.order))
	for _, p := range m.order {
		if m.deleted[p.ID] {
			in.DeletePhotos = append(in.DeletePhotos, p.ID)
			continue
		}
		order = append(order, p.ID)
	}
	if m.orderChanged() {
		in.PhotoOrder = order
	}
	if m.featuredChanged() && m.featured != uuid.Nil && !m.deleted[m.featured] {
		id := m.featured
		in.FeaturedPhoto = &id
	}
	for _, path := range m.adds {
		data, err := readImageFile(path)
		if err != nil {
			return journal.UpdateInput{}, err
		}
		in.AddPhotos = append(in.AddPhotos, journal.PhotoUpload{Data: data})
	}
	return in, nil
}

func savePhotosCmd(svc journalService, actor journal.Actor, m *PhotosModel) tea.Cmd {
	in, err := m.Input()
	return func() tea.Msg {
		if err != nil {
			return model.ErrorMsg{Err: err}
		}
		res, err := svc.Update(context.Background(), actor, in)
		if err != nil {
			return model.ErrorMsg{Err: err}
		}
		return model.PhotosSavedMsg{Experience: res.Experience, FailedPhotos: res.FailedPhotos}
	}
}

// View renders the staged photo list.
func (m *PhotosModel) View(width, height int) string {
	var lines []string
	lines = append(lines, LabelStyle.Render(fmt.Sprintf("Photos of %s  (%d/%d)", m.exp.Name, m.survivors(), m.maxPhotos)), "")

	if len(m.order) == 0 && len(m.adds) == 0 {
		lines = append(lines, HelpDescStyle.Render("No photos yet. Press a to add one."))
	}
	for i, p := range m.order {
		style := NormalRowStyle
		if i == m.cursor {
			style = SelectedRowStyle
		}
		mark := "  "
		if p.ID == m.featured {
			mark = RatingStyle.Render("★ ")
		}
		label := fmt.Sprintf("%d. %s", i+1, filepath.Base(p.StoragePath))
		if p.Caption != "" {
			label += "  " + p.Caption
		}
		if m.deleted[p.ID] {
			label = lipgloss.NewStyle().Strikethrough(true).Render(label) + ErrorStyle.Render("delete")
		}
		lines = append(lines, mark+style.Render(label))
	}
	for _, path := range m.adds {
		lines = append(lines, SuccessStyle.Render("+ "+filepath.Base(path)))
	}

	if m.adding {
		lines = append(lines, "", renderFormField("Add photo", m.input, true))
	}
	switch {
	case m.saving:
		lines = append(lines, "", HelpDescStyle.Render("Saving..."))
	case m.Dirty():
		lines = append(lines, "", InfoStyle.Render("Unsaved changes. ctrl+s saves, esc discards."))
	}
	if m.error != "" {
		lines = append(lines, "", ErrorStyle.Render(m.error))
	}

	return PanelStyle.Width(width - 4).MaxHeight(height).Render(strings.Join(lines, "\n"))
}

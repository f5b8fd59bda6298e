package ui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"eatlog/internal/config"
	"eatlog/internal/journal"
	"eatlog/internal/model"
	"eatlog/internal/search"
	"eatlog/internal/util"
)

// Message types for autocomplete
type autocompleteResultMsg struct {
	seq     int
	results []search.Suggestion
	err     error
}

type debounceTick struct {
	seq int
}

const debounceDelay = 300 * time.Millisecond

// Form field keys.
const (
	fieldName         = "name"
	fieldDate         = "date"
	fieldMeal         = "meal"
	fieldCreatedBy    = "created_by"
	fieldTags         = "tags"
	fieldNotes        = "notes"
	fieldCuisine      = "cuisine"
	fieldPrice        = "price"
	fieldAddress      = "address"
	fieldWebsite      = "website"
	fieldDishes       = "dishes"
	fieldCost         = "cost"
	fieldFirst        = "first_rating"
	fieldSecond       = "second_rating"
	fieldDifficulty   = "difficulty"
	fieldCookTime     = "cook_time"
	fieldServings     = "servings"
	fieldSource       = "source"
	fieldIngredients  = "ingredients"
	fieldInstructions = "instructions"
	fieldKind         = "kind"
	fieldPriority     = "priority"
	fieldURL          = "url"
	fieldPhotos       = "photos"
)

type formField struct {
	key   string
	label string
	input textinput.Model
}

// FormModel adds or edits one experience. The field set depends on the type.
type FormModel struct {
	svc     journalService
	places  placeSearcher
	actor   journal.Actor
	diners  config.DinersConfig
	keys    FormKeyMap
	typ     model.ExperienceType
	editing *model.Experience // nil when adding

	fields  []formField
	focused int
	error   string
	saving  bool // a save is running; further saves are ignored until it resolves

	// Place picked from autocomplete; cleared when the name is edited away from it.
	placeID   *uuid.UUID
	placeName string

	// Autocomplete state
	searchSeq     int
	searchResults []search.Suggestion
	searchCursor  int
	showDropdown  bool
	searching     bool
	searchSpinner spinner.Model
}

// NewFormModel creates an empty form for typ.
func NewFormModel(svc journalService, places placeSearcher, actor journal.Actor, diners config.DinersConfig, typ model.ExperienceType) *FormModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &FormModel{
		svc:           svc,
		places:        places,
		actor:         actor,
		diners:        diners,
		keys:          DefaultFormKeyMap(),
		typ:           typ,
		searchSpinner: sp,
	}
	m.fields = m.buildFields()
	m.fields[0].input.Focus()
	if typ != model.TypeWishlist {
		m.setValue(fieldDate, time.Now().Format(model.DateLayout))
	}
	m.setValue(fieldCreatedBy, diners.Name(actor.Diner))
	return m
}

// NewEditFormModel creates a form prefilled from e.
func NewEditFormModel(svc journalService, actor journal.Actor, diners config.DinersConfig, e *model.Experience) *FormModel {
	m := NewFormModel(svc, nil, actor, diners, e.Type)
	m.editing = e
	m.fields = m.buildFields()
	m.fields[0].input.Focus()
	m.load(e)
	return m
}

func (m *FormModel) buildFields() []formField {
	first := m.diners.First
	second := m.diners.Second

	var fields []formField
	add := func(key, label, placeholder string, limit int) {
		in := textinput.New()
		in.Placeholder = placeholder
		in.CharLimit = limit
		fields = append(fields, formField{key: key, label: label, input: in})
	}

	switch m.typ {
	case model.TypeRestaurant:
		add(fieldName, "Restaurant *", "Search your places...", 200)
	case model.TypeHomeMeal:
		add(fieldName, "Dish *", "What did you cook?", 200)
	default:
		add(fieldName, "Name *", "Place or recipe to try", 200)
	}
	if m.typ != model.TypeWishlist {
		add(fieldDate, "Date *", "2024-06-10", 32)
		add(fieldMeal, "Meal", "breakfast, lunch, dinner or snack", 10)
	}

	switch m.typ {
	case model.TypeRestaurant:
		add(fieldCuisine, "Cuisine", "Thai", 60)
		add(fieldPrice, "Price", "$ to $$$$", 4)
		add(fieldAddress, "Address", "", 200)
		add(fieldWebsite, "Website", "https://", 300)
		add(fieldDishes, "Dishes ordered", "", 500)
		add(fieldCost, "Cost", "42.50", 12)
		add(fieldFirst, first+"'s rating", "1-5 in halves", 3)
		add(fieldSecond, second+"'s rating", "1-5 in halves", 3)
	case model.TypeHomeMeal:
		add(fieldCuisine, "Cuisine", "Italian", 60)
		add(fieldDifficulty, "Difficulty", "easy, medium or hard", 6)
		add(fieldCookTime, "Cook time (minutes)", "45", 5)
		add(fieldServings, "Servings", "4", 4)
		add(fieldIngredients, "Ingredients (; separated)", "2 eggs; 1 cup flour", 2000)
		add(fieldInstructions, "Instructions", "", 4000)
		add(fieldSource, "Recipe source", "book, site or person", 300)
		add(fieldFirst, first+"'s rating", "1-5 in halves", 3)
		add(fieldSecond, second+"'s rating", "1-5 in halves", 3)
	case model.TypeWishlist:
		add(fieldKind, "Kind", "restaurant or recipe", 10)
		add(fieldCuisine, "Cuisine", "", 60)
		add(fieldPriority, "Priority", "low, medium or high", 6)
		add(fieldSource, "Heard about it from", "", 300)
		add(fieldURL, "Link", "https://", 500)
	}

	add(fieldCreatedBy, "Logged by", first+" or "+second, 60)
	add(fieldTags, "Tags (comma separated)", "date night, spicy", 300)
	add(fieldNotes, "Notes", "", 2000)
	if m.editing == nil {
		add(fieldPhotos, "Photos (file paths, comma separated)", "~/Pictures/dinner.jpg", 2000)
	}
	return fields
}

func (m *FormModel) load(e *model.Experience) {
	m.setValue(fieldName, e.Name)
	if e.Date != nil {
		m.setValue(fieldDate, e.DateString())
	}
	m.setValue(fieldMeal, string(e.MealTime))
	m.setValue(fieldCreatedBy, m.diners.Name(e.CreatedBy))
	m.setValue(fieldTags, strings.Join(e.Tags, ", "))
	m.setValue(fieldNotes, e.Notes)

	switch d := e.Details.(type) {
	case *model.RestaurantDetails:
		if p := e.Place; p != nil {
			m.setValue(fieldName, p.Name)
			m.setValue(fieldCuisine, p.Cuisine)
			m.setValue(fieldPrice, string(p.PriceRange))
			m.setValue(fieldAddress, p.Address)
			m.setValue(fieldWebsite, p.Website)
		}
		m.setValue(fieldDishes, d.DishesOrdered)
		if d.Cost != nil {
			m.setValue(fieldCost, strconv.FormatFloat(*d.Cost, 'f', 2, 64))
		}
		m.loadRatings(d.Ratings)
	case *model.HomeMealDetails:
		m.setValue(fieldCuisine, d.Cuisine)
		m.setValue(fieldDifficulty, string(d.Difficulty))
		m.setValue(fieldCookTime, formatOptionalInt(d.CookTimeMinutes))
		m.setValue(fieldServings, formatOptionalInt(d.Servings))
		m.setValue(fieldIngredients, strings.Join(d.Ingredients, "; "))
		m.setValue(fieldInstructions, d.Instructions)
		m.setValue(fieldSource, d.Source)
		m.loadRatings(d.Ratings)
	case *model.WishlistDetails:
		m.setValue(fieldKind, string(d.WishlistType))
		m.setValue(fieldCuisine, d.Cuisine)
		m.setValue(fieldPriority, string(d.Priority))
		m.setValue(fieldSource, d.Source)
		m.setValue(fieldURL, d.URL)
	}
}

func (m *FormModel) loadRatings(r model.Ratings) {
	if r.First != nil {
		m.setValue(fieldFirst, strconv.FormatFloat(*r.First, 'f', -1, 64))
	}
	if r.Second != nil {
		m.setValue(fieldSecond, strconv.FormatFloat(*r.Second, 'f', -1, 64))
	}
}

func (m *FormModel) setValue(key, value string) {
	for i := range m.fields {
		if m.fields[i].key == key {
			m.fields[i].input.SetValue(value)
			return
		}
	}
}

func (m *FormModel) value(key string) string {
	for _, f := range m.fields {
		if f.key == key {
			return strings.TrimSpace(f.input.Value())
		}
	}
	return ""
}

func (m *FormModel) autocompletes() bool {
	return m.places != nil && m.editing == nil && m.typ == model.TypeRestaurant
}

// Update handles all messages.
func (m FormModel) Update(msg tea.Msg) (FormModel, tea.Cmd) {
	var cmds []tea.Cmd

	// Handle async messages first
	switch msg := msg.(type) {
	case debounceTick:
		if msg.seq == m.searchSeq && m.autocompletes() {
			return m, m.doSearch(m.value(fieldName), msg.seq)
		}
		return m, nil
	case autocompleteResultMsg:
		if msg.seq == m.searchSeq {
			m.searching = false
			if msg.err != nil {
				m.error = fmt.Sprintf("Search error: %v", msg.err)
				m.showDropdown = false
			} else {
				m.searchResults = msg.results
				m.searchCursor = 0
				m.showDropdown = len(msg.results) > 0
			}
		}
		return m, nil
	case spinner.TickMsg:
		if !m.searching {
			return m, nil
		}
		var cmd tea.Cmd
		m.searchSpinner, cmd = m.searchSpinner.Update(msg)
		return m, cmd
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	// Dropdown navigation when visible
	if m.showDropdown && m.focused == 0 {
		switch keyMsg.String() {
		case "esc":
			m.showDropdown = false
			return m, nil
		case "down", "ctrl+n":
			if m.searchCursor < len(m.searchResults)-1 {
				m.searchCursor++
			}
			return m, nil
		case "up", "ctrl+p":
			if m.searchCursor > 0 {
				m.searchCursor--
			}
			return m, nil
		case "enter", "tab":
			if m.searchCursor < len(m.searchResults) {
				m.selectSuggestion(m.searchResults[m.searchCursor])
				m.showDropdown = false
				m.nextField()
			}
			return m, nil
		}
	}

	switch {
	case key.Matches(keyMsg, m.keys.Cancel):
		return m, func() tea.Msg { return model.FormCancelledMsg{} }
	case key.Matches(keyMsg, m.keys.Save):
		if m.saving {
			return m, nil
		}
		m.error = ""
		m.saving = true
		return m, m.save()
	case key.Matches(keyMsg, m.keys.NextField), keyMsg.String() == "enter":
		m.nextField()
		return m, nil
	case key.Matches(keyMsg, m.keys.PrevField):
		m.prevField()
		return m, nil
	}

	var cmd tea.Cmd
	m.fields[m.focused].input, cmd = m.fields[m.focused].input.Update(keyMsg)
	cmds = append(cmds, cmd)

	if m.focused == 0 {
		// A typed name no longer refers to the picked place.
		if m.placeID != nil && m.value(fieldName) != m.placeName {
			m.placeID = nil
		}
		if m.autocompletes() {
			cmds = append(cmds, m.queueSearch())
		}
	}

	return m, tea.Batch(cmds...)
}

func (m *FormModel) queueSearch() tea.Cmd {
	query := m.value(fieldName)
	if len(query) < 2 {
		m.showDropdown = false
		m.searchResults = nil
		m.searching = false
		return nil
	}
	m.searchSeq++
	seq := m.searchSeq
	m.searching = true
	m.showDropdown = false
	return tea.Batch(
		m.searchSpinner.Tick,
		tea.Tick(debounceDelay, func(time.Time) tea.Msg { return debounceTick{seq: seq} }),
	)
}

func (m *FormModel) doSearch(query string, seq int) tea.Cmd {
	places := m.places
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		results, err := places.Autocomplete(ctx, query)
		return autocompleteResultMsg{seq: seq, results: results, err: err}
	}
}

func (m *FormModel) selectSuggestion(s search.Suggestion) {
	id := s.PlaceID
	m.placeID = &id
	m.placeName = s.Name
	m.setValue(fieldName, s.Name)
	m.setValue(fieldCuisine, s.Cuisine)
	m.setValue(fieldPrice, string(s.PriceRange))
	m.setValue(fieldAddress, s.Address)
}

func (m *FormModel) nextField() {
	m.fields[m.focused].input.Blur()
	m.focused = (m.focused + 1) % len(m.fields)
	m.fields[m.focused].input.Focus()
	m.showDropdown = false
}

func (m *FormModel) prevField() {
	m.fields[m.focused].input.Blur()
	m.focused--
	if m.focused < 0 {
		m.focused = len(m.fields) - 1
	}
	m.fields[m.focused].input.Focus()
	m.showDropdown = false
}

// save parses the fields and runs Create or Update. Parse problems are
// reported as a ValidationError like the ones the journal returns.
func (m *FormModel) save() tea.Cmd {
	svc, actor, editing := m.svc, m.actor, m.editing
	values := make(map[string]string, len(m.fields))
	for _, f := range m.fields {
		values[f.key] = strings.TrimSpace(f.input.Value())
	}
	p := formParser{values: values, diners: m.diners}
	typ := m.typ
	var placeID *uuid.UUID
	if m.placeID != nil {
		id := *m.placeID
		placeID = &id
	}

	return func() tea.Msg {
		ctx := context.Background()

		date := p.date()
		meal := model.MealTime(strings.ToLower(values[fieldMeal]))
		createdBy := p.diner()
		tags := util.ParseTags(values[fieldTags])
		details := p.details(typ)

		var place *journal.PlaceInput
		if typ == model.TypeRestaurant {
			place = &journal.PlaceInput{
				Name:       values[fieldName],
				Cuisine:    values[fieldCuisine],
				PriceRange: model.PriceRange(values[fieldPrice]),
				Address:    values[fieldAddress],
				Website:    values[fieldWebsite],
			}
		}

		if editing != nil {
			if err := p.err(); err != nil {
				return model.ErrorMsg{Err: err}
			}
			in := journal.EditFrom(editing)
			in.Name = values[fieldName]
			in.Date = date
			in.MealTime = meal
			in.Notes = values[fieldNotes]
			in.Tags = tags
			if createdBy != "" {
				in.CreatedBy = createdBy
			}
			in.Place = place
			in.Details = details
			res, err := svc.Update(ctx, actor, in)
			if err != nil {
				return model.ErrorMsg{Err: err}
			}
			return model.ExperienceSavedMsg{Operation: "update", Before: editing, After: res.Experience, FailedPhotos: res.FailedPhotos}
		}

		uploads := p.photos()
		if err := p.err(); err != nil {
			return model.ErrorMsg{Err: err}
		}
		in := journal.CreateInput{
			Type:      typ,
			Name:      values[fieldName],
			Date:      date,
			MealTime:  meal,
			Notes:     values[fieldNotes],
			Tags:      tags,
			CreatedBy: createdBy,
			Details:   details,
			Photos:    uploads,
		}
		if placeID != nil {
			in.PlaceID = placeID
		} else {
			in.Place = place
		}
		res, err := svc.Create(ctx, actor, in)
		if err != nil {
			return model.ErrorMsg{Err: err}
		}
		return model.ExperienceSavedMsg{Operation: "insert", After: res.Experience, FailedPhotos: res.FailedPhotos}
	}
}

// formParser turns field text into typed values, collecting field errors.
type formParser struct {
	values map[string]string
	diners config.DinersConfig
	errs   []model.FieldError
}

func (p *formParser) fail(field, msg string) {
	p.errs = append(p.errs, model.FieldError{Field: field, Message: msg})
}

func (p *formParser) err() error {
	if len(p.errs) == 0 {
		return nil
	}
	return &model.ValidationError{Errors: p.errs}
}

func (p *formParser) date() *time.Time {
	d, err := util.ParseDateInput(p.values[fieldDate])
	if err != nil {
		p.fail("date", "use YYYY-MM-DD")
		return nil
	}
	return d
}

func (p *formParser) diner() model.Diner {
	name := p.values[fieldCreatedBy]
	if name == "" {
		return ""
	}
	if d := model.Diner(strings.ToLower(name)); d.Valid() {
		return d
	}
	d, ok := p.diners.SlotFor(name)
	if !ok {
		p.fail("created_by", fmt.Sprintf("must be %s or %s", p.diners.First, p.diners.Second))
	}
	return d
}

func (p *formParser) rating(key, field string) *float64 {
	s := p.values[key]
	if s == "" {
		return nil
	}
	v := util.ParseOptionalFloat(s)
	if v == nil {
		p.fail(field, "must be a number")
	}
	return v
}

func (p *formParser) ratings() model.Ratings {
	return model.Ratings{
		First:  p.rating(fieldFirst, "first_rating"),
		Second: p.rating(fieldSecond, "second_rating"),
	}
}

func (p *formParser) details(t model.ExperienceType) model.Details {
	v := p.values
	switch t {
	case model.TypeRestaurant:
		return &model.RestaurantDetails{
			Ratings:       p.ratings(),
			DishesOrdered: v[fieldDishes],
			Cost:          util.ParseOptionalFloat(v[fieldCost]),
		}
	case model.TypeHomeMeal:
		return &model.HomeMealDetails{
			Cuisine:         v[fieldCuisine],
			Ingredients:     util.ParseLines(v[fieldIngredients]),
			Instructions:    v[fieldInstructions],
			CookTimeMinutes: util.ParseOptionalInt(v[fieldCookTime]),
			Difficulty:      model.Difficulty(strings.ToLower(v[fieldDifficulty])),
			Servings:        util.ParseOptionalInt(v[fieldServings]),
			Ratings:         p.ratings(),
			Source:          v[fieldSource],
		}
	case model.TypeWishlist:
		return &model.WishlistDetails{
			WishlistType: model.WishlistType(strings.ToLower(v[fieldKind])),
			Cuisine:      v[fieldCuisine],
			Priority:     model.Priority(strings.ToLower(v[fieldPriority])),
			Source:       v[fieldSource],
			URL:          v[fieldURL],
		}
	}
	return nil
}

// photos reads every listed image file. The first one is featured.
func (p *formParser) photos() []journal.PhotoUpload {
	var uploads []journal.PhotoUpload
	for _, path := range util.ParseTags(p.values[fieldPhotos]) {
		data, err := readImageFile(path)
		if err != nil {
			p.fail("photos", err.Error())
			continue
		}
		uploads = append(uploads, journal.PhotoUpload{Data: data, Featured: len(uploads) == 0})
	}
	return uploads
}

func readImageFile(path string) ([]byte, error) {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return data, nil
}

func formatOptionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

// View renders the form.
func (m *FormModel) View(width, height int) string {
	var rendered []string

	for i, f := range m.fields {
		field := renderFormField(f.label, f.input, i == m.focused)
		if i == 0 && m.focused == 0 {
			switch {
			case m.showDropdown && len(m.searchResults) > 0:
				field = lipgloss.JoinVertical(lipgloss.Left, field, m.renderDropdown(width-8))
			case m.searching:
				field = lipgloss.JoinVertical(lipgloss.Left, field, HelpDescStyle.Render(m.searchSpinner.View()+" Searching..."))
			}
		}
		if i == 0 && m.placeID != nil {
			field = lipgloss.JoinVertical(lipgloss.Left, field, HelpDescStyle.Render("  using saved place"))
		}
		rendered = append(rendered, field)
	}

	// Keep the focused field on screen; each field takes about four lines.
	perField := 4
	visible := max(1, (height-6)/perField)
	start := 0
	if m.focused >= visible {
		start = m.focused - visible + 1
	}
	end := min(len(rendered), start+visible)

	title := "Add " + m.typ.Label()
	if m.editing != nil {
		title = "Edit " + m.typ.Label()
	}
	parts := []string{LabelStyle.Render(title), ""}
	parts = append(parts, rendered[start:end]...)
	if m.saving {
		parts = append(parts, "", HelpDescStyle.Render("Saving..."))
	}
	if m.error != "" {
		parts = append(parts, "", ErrorStyle.Render(m.error))
	}

	return PanelStyle.
		Width(width - 4).
		Height(height - 2).
		Render(strings.Join(parts, "\n"))
}

func (m *FormModel) renderDropdown(width int) string {
	var items []string

	for i, result := range m.searchResults {
		style := NormalRowStyle
		if i == m.searchCursor {
			style = SelectedRowStyle
		}

		left := util.TruncateString(result.Name, 40)
		if result.Address != "" {
			left += "  ·  " + util.TruncateString(result.Address, 30)
		}

		right := ""
		if result.Cuisine != "" {
			right = HelpDescStyle.Render(result.Cuisine)
		}

		availableWidth := width - 4
		padding := max(0, availableWidth-lipgloss.Width(left)-lipgloss.Width(right))
		items = append(items, style.Width(availableWidth).Render(left+strings.Repeat(" ", padding)+right))
	}

	return BorderStyle.
		Width(width).
		Render(strings.Join(items, "\n"))
}

func renderFormField(label string, input textinput.Model, focused bool) string {
	style := BorderStyle
	if focused {
		style = ActiveBorderStyle
	}

	field := lipgloss.JoinVertical(
		lipgloss.Left,
		LabelStyle.Render(label),
		input.View(),
	)

	return style.Render(field)
}

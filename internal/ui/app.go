package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"eatlog/internal/config"
	"eatlog/internal/journal"
	"eatlog/internal/model"
	"eatlog/internal/notify"
	"eatlog/internal/search"
	"eatlog/internal/util"
	"eatlog/internal/view"
)

const toastDuration = 4 * time.Second

type journalService interface {
	List(ctx context.Context, actor journal.Actor) ([]*model.Experience, error)
	Get(ctx context.Context, actor journal.Actor, id uuid.UUID) (*model.Experience, error)
	Create(ctx context.Context, actor journal.Actor, in journal.CreateInput) (*journal.CreateResult, error)
	Update(ctx context.Context, actor journal.Actor, in journal.UpdateInput) (*journal.UpdateResult, error)
	Delete(ctx context.Context, actor journal.Actor, id uuid.UUID) (*journal.DeleteResult, error)
	Convert(ctx context.Context, actor journal.Actor, in journal.ConvertInput) (*journal.ConvertResult, error)
	SetFavorite(ctx context.Context, actor journal.Actor, id uuid.UUID, favorite bool) error
	ToggleFavorite(ctx context.Context, actor journal.Actor, id uuid.UUID) (bool, error)
	MaxPhotos() int
}

type photoStore interface {
	Download(ctx context.Context, path string) ([]byte, error)
	PublicURL(path string) string
}

type placeSearcher interface {
	Autocomplete(ctx context.Context, query string) ([]search.Suggestion, error)
}

// Options wires the UI to the journal.
type Options struct {
	Journal     journalService
	Photos      photoStore    // optional; without it the detail screen shows no preview
	Places      placeSearcher // optional; without it the form does not autocomplete
	Notices     *notify.Bus   // optional
	Actor       journal.Actor
	User        *model.User
	Diners      config.DinersConfig
	Placeholder string
	PrefsPath   string
	Logger      *slog.Logger
	Now         func() time.Time
}

type noticeMsg notify.Notice

type clearToastMsg struct {
	seq int
}

// Model is the root Bubble Tea model.
type Model struct {
	journal     journalService
	photos      photoStore
	places      placeSearcher
	notices     <-chan notify.Notice
	unsubscribe func()
	actor       journal.Actor
	user        *model.User
	diners      config.DinersConfig
	placeholder string
	prefsPath   string
	logger      *slog.Logger
	now         func() time.Time

	screen model.Screen
	mode   model.Mode
	gState GState

	width  int
	height int

	error       string
	info        string
	toastSeq    int
	showingHelp bool

	// Screen models
	experiences []*model.Experience
	list        *ListModel
	history     *HistoryModel
	detail      *DetailModel
	form        *FormModel
	photoEditor *PhotosModel
	prompt      *prompt
	searchInput textinput.Model

	detailReturn model.Screen
	formReturn   model.Screen

	keys      KeyMap
	formKeys  FormKeyMap
	photoKeys PhotoKeyMap
	prefs     UIPreferences
	undoStack []undoAction
	redoStack []undoAction
}

// New creates a new root model.
func New(opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	searchInput := textinput.New()
	searchInput.Prompt = "/ "
	searchInput.CharLimit = 100

	prefs := loadUIPreferences(opts.PrefsPath)
	m := Model{
		journal:      opts.Journal,
		photos:       opts.Photos,
		places:       opts.Places,
		actor:        opts.Actor,
		user:         opts.User,
		diners:       opts.Diners,
		placeholder:  opts.Placeholder,
		prefsPath:    opts.PrefsPath,
		logger:       logger.With("component", "ui"),
		now:          now,
		screen:       model.ScreenList,
		mode:         model.ModeNav,
		gState:       GStateIdle,
		list:         NewListModel(prefs.List),
		searchInput:  searchInput,
		detailReturn: model.ScreenList,
		formReturn:   model.ScreenList,
		keys:         DefaultKeyMap(),
		formKeys:     DefaultFormKeyMap(),
		photoKeys:    DefaultPhotoKeyMap(),
		prefs:        prefs,
	}
	if opts.Notices != nil {
		m.notices, m.unsubscribe = opts.Notices.Subscribe()
	}
	return m
}

// Close ends the notice subscription.
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(loadExperiencesCmd(m.journal, m.actor), waitForNotice(m.notices))
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		// Handle ctrl+c globally
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		if m.mode == model.ModeNav && key.Matches(msg, m.keys.Help) {
			m.showingHelp = !m.showingHelp
			return m, nil
		}
		if m.showingHelp {
			if msg.String() == "esc" || msg.String() == "?" {
				m.showingHelp = false
			}
			return m, nil
		}

		switch m.mode {
		case model.ModeInsert:
			return m.handleInsertMode(msg)
		case model.ModeSearch:
			return m.handleSearchMode(msg)
		case model.ModeConfirm:
			return m.handleConfirmMode(msg)
		default:
			return m.handleNavMode(msg)
		}

	case model.ErrorMsg:
		m.logger.Debug("operation failed", "error", msg.Err)
		if m.form != nil {
			m.form.saving = false
		}
		if m.photoEditor != nil {
			m.photoEditor.saving = false
		}
		if m.mode == model.ModeInsert && m.form != nil {
			m.form.error = describeError(msg.Err)
			return m, nil
		}
		m.error = describeError(msg.Err)
		if errors.Is(msg.Err, model.ErrConflict) {
			return m, m.reloadCmd()
		}
		return m, nil

	case model.ExperiencesLoadedMsg:
		m.experiences = msg.Experiences
		m.list.SetExperiences(msg.Experiences)
		if m.history != nil {
			m.history.SetExperiences(msg.Experiences)
		}
		return m, nil

	case model.ExperienceLoadedMsg:
		if m.screen != model.ScreenDetail {
			m.detailReturn = m.screen
		}
		m.openDetail(msg.Experience)
		return m, m.previewCmd(msg.Experience)

	case model.ExperienceSavedMsg:
		if action := m.buildEditAction(msg); action != nil {
			m.pushUndoAction(*action)
		}
		m.mode = model.ModeNav
		m.form = nil
		if msg.Operation == "insert" {
			m.detailReturn = model.ScreenList
		}
		m.openDetail(msg.After)
		m.list.Select(msg.After.ID)
		return m, tea.Batch(m.reloadCmd(), m.previewCmd(msg.After))

	case model.PhotosSavedMsg:
		m.mode = model.ModeNav
		m.photoEditor = nil
		m.openDetail(msg.Experience)
		return m, tea.Batch(m.reloadCmd(), m.previewCmd(msg.Experience))

	case model.FavoriteToggledMsg:
		m.pushUndoAction(m.buildFavoriteAction(msg))
		if m.detail != nil && m.detail.exp.ID == msg.ID {
			return m, tea.Batch(m.reloadCmd(), loadDetailCmd(m.journal, m.actor, msg.ID))
		}
		return m, m.reloadCmd()

	case model.ExperienceDeletedMsg:
		m.screen = m.detailReturn
		m.detail = nil
		m.info = "Deleted " + msg.Name
		return m, m.reloadCmd()

	case model.ExperienceConvertedMsg:
		m.detailReturn = model.ScreenList
		m.openDetail(msg.Experience)
		m.list.Select(msg.Experience.ID)
		return m, tea.Batch(m.reloadCmd(), m.previewCmd(msg.Experience))

	case model.PreviewLoadedMsg:
		if m.detail != nil && m.detail.exp.ID == msg.ExperienceID {
			m.detail.art = msg.Art
		}
		return m, nil

	case model.FormCancelledMsg:
		m.mode = model.ModeNav
		m.form = nil
		m.screen = m.formReturn
		return m, nil

	case noticeMsg:
		m.toastSeq++
		seq := m.toastSeq
		if msg.Level == notify.Error {
			m.error = msg.Message
		} else {
			m.info = msg.Message
		}
		return m, tea.Batch(
			waitForNotice(m.notices),
			tea.Tick(toastDuration, func(time.Time) tea.Msg { return clearToastMsg{seq: seq} }),
		)

	case clearToastMsg:
		if msg.seq == m.toastSeq {
			m.info = ""
		}
		return m, nil

	case undoAppliedMsg:
		cmd := m.applyUndoResult(msg)
		return m, cmd

	default:
		// Spinner ticks and autocomplete results go to the form.
		if m.mode == model.ModeInsert && m.form != nil {
			form, cmd := m.form.Update(msg)
			m.form = &form
			return m, cmd
		}
	}

	return m, nil
}

func (m *Model) openDetail(e *model.Experience) {
	m.screen = model.ScreenDetail
	m.detail = NewDetailModel(e, m.diners, m.coverURL(e))
	m.error = ""
}

func (m *Model) coverURL(e *model.Experience) string {
	publicURL := func(p string) string { return p }
	if m.photos != nil {
		publicURL = m.photos.PublicURL
	}
	return view.FeaturedPhotoURL(e, publicURL, m.placeholder)
}

// describeError flattens validation errors into "field: message" pairs.
func describeError(err error) string {
	var ve *model.ValidationError
	if errors.As(err, &ve) {
		parts := make([]string, 0, len(ve.Errors))
		for _, fe := range ve.Errors {
			parts = append(parts, fe.Field+": "+fe.Message)
		}
		return strings.Join(parts, "; ")
	}
	switch {
	case errors.Is(err, model.ErrConflict):
		return "Changed elsewhere since you opened it; reloaded, please retry"
	case errors.Is(err, model.ErrNotFound):
		return "Not found"
	}
	return err.Error()
}

// View renders the UI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	if m.showingHelp {
		return RenderFullHelp(m.width, m.height)
	}

	var breadcrumb []string
	var banners []string
	if m.error != "" {
		banners = append(banners, ErrorStyle.Width(m.width).Render("Error: "+m.error))
	}
	if m.info != "" {
		banners = append(banners, SuccessStyle.Width(m.width).Render(m.info))
	}
	if m.mode == model.ModeSearch {
		banners = append(banners, InfoStyle.Width(m.width).Render(m.searchInput.View()))
	}
	if m.mode == model.ModeConfirm && m.prompt != nil {
		banners = append(banners, PromptStyle.Render(m.prompt.message()))
	}

	// header + footer + banners
	contentHeight := m.height - 4
	for _, b := range banners {
		contentHeight -= lipgloss.Height(b)
	}
	contentHeight = max(contentHeight, 3)

	now := m.now()
	var content string
	switch m.screen {
	case model.ScreenList:
		breadcrumb = []string{"Journal"}
		content = m.list.View(m.width, contentHeight, now)
	case model.ScreenHistory:
		breadcrumb = []string{"History"}
		if m.history != nil {
			content = m.history.View(m.width, contentHeight, now)
		}
	case model.ScreenDetail:
		breadcrumb = []string{"Journal", "Detail"}
		if m.detail != nil {
			breadcrumb = []string{"Journal", view.DisplayName(m.detail.exp)}
			content = m.detail.View(m.width, contentHeight, now)
		}
	case model.ScreenForm:
		breadcrumb = []string{"Journal", "Form"}
		if m.form != nil {
			content = m.form.View(m.width, contentHeight)
		}
	case model.ScreenPhotos:
		breadcrumb = []string{"Journal", "Photos"}
		if m.photoEditor != nil {
			breadcrumb = []string{"Journal", m.photoEditor.exp.Name, "Photos"}
			content = m.photoEditor.View(m.width, contentHeight)
		}
	}

	header := m.renderHeader(breadcrumb, now)
	footer := m.RenderHelp(m.width)

	// Fill the available height to anchor the footer at the bottom.
	content = lipgloss.NewStyle().
		Width(m.width).
		Height(contentHeight).
		Render(content)

	parts := append([]string{header}, banners...)
	parts = append(parts, content, footer)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderHeader(breadcrumbParts []string, now time.Time) string {
	title := HeaderStyle.Render("eatlog")

	var breadcrumb string
	if len(breadcrumbParts) > 0 {
		separator := BreadcrumbStyle.Render(" › ")
		parts := make([]string, len(breadcrumbParts))
		for i, part := range breadcrumbParts {
			if i == len(breadcrumbParts)-1 {
				parts[i] = BreadcrumbActiveStyle.Render(part)
			} else {
				parts[i] = BreadcrumbStyle.Render(part)
			}
		}
		breadcrumb = separator + strings.Join(parts, separator)
	}

	left := "  " + title + breadcrumb

	right := now.Format("Mon 02 Jan")
	if m.user != nil && m.user.DisplayName != "" {
		right = m.user.DisplayName + "  ·  " + right
	}
	right = BreadcrumbStyle.Render(right) + "  "

	padding := max(0, m.width-lipgloss.Width(left)-lipgloss.Width(right))
	return TitleStyle.Width(m.width).Render(left + strings.Repeat(" ", padding) + right)
}

// handleNavMode handles navigation mode input.
func (m Model) handleNavMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.screen == model.ScreenPhotos {
		return m.handlePhotosNav(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Undo):
		if len(m.undoStack) == 0 {
			m.info = "Nothing to undo"
			return m, nil
		}
		cmd := m.undoCmd()
		return m, cmd
	case key.Matches(msg, m.keys.Redo):
		if len(m.redoStack) == 0 {
			m.info = "Nothing to redo"
			return m, nil
		}
		cmd := m.redoCmd()
		return m, cmd
	}

	// Handle "gg" state machine
	if msg.String() == "g" {
		if m.gState == GStateFirstG {
			m.gState = GStateIdle
			m.jumpToTop()
			return m, nil
		}
		m.gState = GStateFirstG
		return m, nil
	}
	m.gState = GStateIdle

	switch m.screen {
	case model.ScreenList:
		return m.handleListNav(msg)
	case model.ScreenHistory:
		return m.handleHistoryNav(msg)
	case model.ScreenDetail:
		return m.handleDetailNav(msg)
	}
	return m, nil
}

func (m *Model) jumpToTop() {
	switch m.screen {
	case model.ScreenList:
		m.list.JumpToTop()
	case model.ScreenHistory:
		if m.history != nil {
			m.history.JumpToTop()
		}
	}
}

func (m Model) handleListNav(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	switch {
	case key.Matches(msg, k.Quit):
		return m, tea.Quit
	case key.Matches(msg, k.NextTab):
		m.list.NextTab()
		m.persistListPrefs()
	case key.Matches(msg, k.PrevTab):
		m.list.PrevTab()
		m.persistListPrefs()
	case key.Matches(msg, k.Search):
		m.mode = model.ModeSearch
		m.searchInput.SetValue(m.list.filter.Query)
		m.searchInput.CursorEnd()
		cmd := m.searchInput.Focus()
		return m, cmd
	case key.Matches(msg, k.Sort):
		m.info = "Sorted by " + string(m.list.CycleSort())
		m.persistListPrefs()
	case key.Matches(msg, k.Favorites):
		if m.list.ToggleFavoritesOnly() {
			m.info = "Showing favorites only"
		} else {
			m.info = "Showing all"
		}
		m.persistListPrefs()
	case key.Matches(msg, k.ClearFilter):
		if m.list.ClearFilters() {
			m.info = "Filters cleared"
			m.persistListPrefs()
		}
	case key.Matches(msg, k.Favorite):
		if e := m.list.Selected(); e != nil {
			return m, toggleFavoriteCmd(m.journal, m.actor, e)
		}
	case key.Matches(msg, k.Add):
		m.mode = model.ModeConfirm
		m.prompt = &prompt{kind: promptAddType}
	case key.Matches(msg, k.History):
		m.screen = model.ScreenHistory
		m.history = NewHistoryModel(m.experiences)
	case key.Matches(msg, k.Open):
		if e := m.list.Selected(); e != nil {
			return m, loadDetailCmd(m.journal, m.actor, e.ID)
		}
	case key.Matches(msg, k.Down):
		m.list.MoveDown()
	case key.Matches(msg, k.Up):
		m.list.MoveUp()
	case key.Matches(msg, k.Bottom):
		m.list.JumpToBottom()
	case key.Matches(msg, k.HalfPageDown):
		m.list.HalfPageDown(m.height)
	case key.Matches(msg, k.HalfPageUp):
		m.list.HalfPageUp(m.height)
	}
	return m, nil
}

func (m Model) handleHistoryNav(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.history == nil {
		m.screen = model.ScreenList
		return m, nil
	}
	k := m.keys
	switch {
	case key.Matches(msg, k.Back), key.Matches(msg, k.Quit):
		m.screen = model.ScreenList
		m.history = nil
	case key.Matches(msg, k.Search):
		m.mode = model.ModeSearch
		m.searchInput.SetValue("")
		m.searchInput.Placeholder = "jump to date, e.g. 2024-05-01"
		cmd := m.searchInput.Focus()
		return m, cmd
	case key.Matches(msg, k.Open):
		if e := m.history.Selected(); e != nil {
			return m, loadDetailCmd(m.journal, m.actor, e.ID)
		}
	case key.Matches(msg, k.Down):
		m.history.MoveDown()
	case key.Matches(msg, k.Up):
		m.history.MoveUp()
	case key.Matches(msg, k.Bottom):
		m.history.JumpToBottom()
	}
	return m, nil
}

func (m Model) handleDetailNav(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.detail == nil {
		m.screen = m.detailReturn
		return m, nil
	}
	e := m.detail.exp
	k := m.keys
	switch {
	case key.Matches(msg, k.Back):
		m.screen = m.detailReturn
		m.detail = nil
	case key.Matches(msg, k.Edit):
		m.mode = model.ModeInsert
		m.formReturn = model.ScreenDetail
		m.screen = model.ScreenForm
		m.form = NewEditFormModel(m.journal, m.actor, m.diners, e)
	case key.Matches(msg, k.Photos):
		m.screen = model.ScreenPhotos
		m.photoEditor = NewPhotosModel(e, m.journal.MaxPhotos())
	case key.Matches(msg, k.Favorite):
		return m, toggleFavoriteCmd(m.journal, m.actor, e)
	case key.Matches(msg, k.Delete):
		m.mode = model.ModeConfirm
		m.prompt = &prompt{kind: promptDelete, target: e}
	case key.Matches(msg, k.Convert):
		if e.Type != model.TypeWishlist {
			m.info = "Only wishlist items can be marked visited"
			return m, nil
		}
		m.mode = model.ModeConfirm
		m.prompt = &prompt{kind: promptConvert, target: e}
	}
	return m, nil
}

func (m Model) handlePhotosNav(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.photoEditor == nil {
		m.screen = model.ScreenDetail
		return m, nil
	}
	if !m.photoEditor.adding {
		switch {
		case msg.String() == "esc":
			if m.photoEditor.Dirty() {
				m.info = "Photo changes discarded"
			}
			m.photoEditor = nil
			m.screen = model.ScreenDetail
			return m, nil
		case key.Matches(msg, m.photoKeys.Save):
			if m.photoEditor.saving {
				return m, nil
			}
			if !m.photoEditor.Dirty() {
				m.photoEditor = nil
				m.screen = model.ScreenDetail
				return m, nil
			}
			m.photoEditor.saving = true
			return m, savePhotosCmd(m.journal, m.actor, m.photoEditor)
		}
	}

	editor, cmd := m.photoEditor.Update(msg)
	m.photoEditor = &editor
	if editor.adding {
		m.mode = model.ModeInsert
	} else {
		m.mode = model.ModeNav
	}
	return m, cmd
}

// handleInsertMode handles form and photo path input.
func (m Model) handleInsertMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.screen {
	case model.ScreenForm:
		if m.form != nil {
			form, cmd := m.form.Update(msg)
			m.form = &form
			return m, cmd
		}
	case model.ScreenPhotos:
		return m.handlePhotosNav(msg)
	}
	m.mode = model.ModeNav
	return m, nil
}

func (m Model) handleSearchMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = model.ModeNav
		m.searchInput.Blur()
		m.searchInput.Placeholder = ""
		if m.screen == model.ScreenList {
			m.list.SetQuery("")
		}
		return m, nil
	case "enter":
		m.mode = model.ModeNav
		m.searchInput.Blur()
		m.searchInput.Placeholder = ""
		if m.screen == model.ScreenHistory && m.history != nil {
			day, err := util.ParseDateInput(m.searchInput.Value())
			switch {
			case err != nil || day == nil:
				m.error = "Use a date like 2024-05-01"
			case !m.history.JumpTo(*day):
				m.info = "Nothing on or before " + util.FormatDate(day)
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	if m.screen == model.ScreenList {
		m.list.SetQuery(m.searchInput.Value())
	}
	return m, cmd
}

func (m Model) handleConfirmMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := m.prompt
	m.mode = model.ModeNav
	m.prompt = nil
	if p == nil {
		return m, nil
	}

	switch p.kind {
	case promptDelete:
		if msg.String() == "y" {
			return m, deleteCmd(m.journal, m.actor, p.target.ID)
		}
	case promptAddType:
		if t, ok := p.choice(msg.String()); ok {
			m.mode = model.ModeInsert
			m.formReturn = m.screen
			m.screen = model.ScreenForm
			m.form = NewFormModel(m.journal, m.places, m.actor, m.diners, t)
		}
	case promptConvert:
		if t, ok := p.choice(msg.String()); ok {
			return m, convertCmd(m.journal, m.actor, p.target.ID, t)
		}
	}
	return m, nil
}

func (m *Model) persistListPrefs() {
	m.prefs.List = m.list.Prefs()
	if err := saveUIPreferences(m.prefsPath, m.prefs); err != nil {
		m.logger.Warn("failed to save preferences", "error", err)
	}
}

func (m *Model) reloadCmd() tea.Cmd {
	return loadExperiencesCmd(m.journal, m.actor)
}

// previewCmd renders the featured photo of e for the detail screen.
func (m *Model) previewCmd(e *model.Experience) tea.Cmd {
	photo, ok := view.FeaturedPhoto(e.Photos)
	if !ok || m.photos == nil {
		return nil
	}
	store := m.photos
	logger := m.logger
	width := max(20, (m.width-12)*45/100)
	height := max(8, m.height/2)
	id := e.ID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		data, err := store.Download(ctx, photo.StoragePath)
		if err != nil {
			logger.Debug("preview download failed", "path", photo.StoragePath, "error", err)
			return nil
		}
		art, err := RenderPhoto(data, width, height)
		if err != nil {
			logger.Debug("preview render failed", "path", photo.StoragePath, "error", err)
			return nil
		}
		return model.PreviewLoadedMsg{ExperienceID: id, Art: art}
	}
}

// Commands

func waitForNotice(ch <-chan notify.Notice) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return nil
		}
		return noticeMsg(n)
	}
}

func loadExperiencesCmd(svc journalService, actor journal.Actor) tea.Cmd {
	return func() tea.Msg {
		list, err := svc.List(context.Background(), actor)
		if err != nil {
			return model.ErrorMsg{Err: err}
		}
		return model.ExperiencesLoadedMsg{Experiences: list}
	}
}

func loadDetailCmd(svc journalService, actor journal.Actor, id uuid.UUID) tea.Cmd {
	return func() tea.Msg {
		e, err := svc.Get(context.Background(), actor, id)
		if err != nil {
			return model.ErrorMsg{Err: fmt.Errorf("failed to load experience: %w", err)}
		}
		return model.ExperienceLoadedMsg{Experience: e}
	}
}

func toggleFavoriteCmd(svc journalService, actor journal.Actor, e *model.Experience) tea.Cmd {
	id, name := e.ID, e.Name
	return func() tea.Msg {
		fav, err := svc.ToggleFavorite(context.Background(), actor, id)
		if err != nil {
			return model.ErrorMsg{Err: err}
		}
		return model.FavoriteToggledMsg{ID: id, Name: name, Favorite: fav}
	}
}

func deleteCmd(svc journalService, actor journal.Actor, id uuid.UUID) tea.Cmd {
	return func() tea.Msg {
		res, err := svc.Delete(context.Background(), actor, id)
		if err != nil {
			return model.ErrorMsg{Err: fmt.Errorf("failed to delete: %w", err)}
		}
		return model.ExperienceDeletedMsg{ID: id, Name: res.Name, LeakedBlobs: res.LeakedBlobs}
	}
}

func convertCmd(svc journalService, actor journal.Actor, id uuid.UUID, target model.ExperienceType) tea.Cmd {
	return func() tea.Msg {
		res, err := svc.Convert(context.Background(), actor, journal.ConvertInput{ID: id, Target: target})
		if err != nil {
			return model.ErrorMsg{Err: fmt.Errorf("failed to convert: %w", err)}
		}
		return model.ExperienceConvertedMsg{From: id, Experience: res.Experience, FailedPhotos: res.FailedPhotos}
	}
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"eatlog/internal/identity"
	"eatlog/internal/model"
	"eatlog/internal/ui"
)

// authFunc signs in, or signs up when signUp is set.
type authFunc func(ctx context.Context, signUp bool, email, password, name string) (*identity.Session, error)

type authResultMsg struct {
	session *identity.Session
	err     error
}

type onboardingStep int

const (
	stepChoose onboardingStep = iota
	stepCredentials
	stepDone
)

type onboardingModel struct {
	step    onboardingStep
	signUp  bool
	inputs  []textinput.Model // email, password, display name
	focused int
	busy    bool
	auth    authFunc
	session *identity.Session
	status  string
	width   int
	height  int
}

var (
	obTitleStyle = lipgloss.NewStyle().
			Foreground(ui.ColorAccent).
			Bold(true)

	obHeaderStyle = lipgloss.NewStyle().
			Foreground(ui.ColorAccent).
			Bold(true).
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(ui.ColorMuted)

	obTabsStyle = lipgloss.NewStyle().
			Padding(0, 2).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(ui.ColorMuted)

	obTabInactive = lipgloss.NewStyle().
			Foreground(ui.ColorMuted).
			Padding(0, 2)

	obTabActive = lipgloss.NewStyle().
			Foreground(ui.ColorText).
			Bold(true).
			Underline(true).
			Padding(0, 2)

	obPanelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(ui.ColorMuted).
			Padding(1, 2)

	obLabelStyle = lipgloss.NewStyle().
			Foreground(ui.ColorAccent).
			Bold(true)

	obMutedStyle = lipgloss.NewStyle().
			Foreground(ui.ColorMuted)

	obOptionStyle = lipgloss.NewStyle().
			Foreground(ui.ColorText)

	obOptionSelected = lipgloss.NewStyle().
				Foreground(ui.ColorAccent).
				Bold(true)

	obWarnStyle = lipgloss.NewStyle().
			Foreground(ui.ColorRed)

	obFooterStyle = lipgloss.NewStyle().
			Foreground(ui.ColorMuted).
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(ui.ColorMuted)
)

func newOnboardingModel(auth authFunc, email string) onboardingModel {
	newInput := func(prompt, placeholder string, limit int) textinput.Model {
		in := textinput.New()
		in.Prompt = prompt
		in.Placeholder = placeholder
		in.CharLimit = limit
		in.TextStyle = lipgloss.NewStyle().Foreground(ui.ColorText)
		in.PlaceholderStyle = lipgloss.NewStyle().Foreground(ui.ColorMuted)
		in.Cursor.Style = lipgloss.NewStyle().Foreground(ui.ColorText).Background(ui.ColorAccent)
		return in
	}

	emailIn := newInput("email> ", "you@example.com", 254)
	emailIn.SetValue(email)
	passwordIn := newInput("password> ", "at least 6 characters", 72)
	passwordIn.EchoMode = textinput.EchoPassword
	passwordIn.EchoCharacter = '•'
	nameIn := newInput("name> ", "shown as who logged an entry", 100)

	return onboardingModel{
		step:   stepChoose,
		inputs: []textinput.Model{emailIn, passwordIn, nameIn},
		auth:   auth,
	}
}

func (m onboardingModel) Init() tea.Cmd { return nil }

// visibleInputs is the number of inputs in use; the name is asked on sign-up only.
func (m onboardingModel) visibleInputs() int {
	if m.signUp {
		return 3
	}
	return 2
}

func (m onboardingModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case authResultMsg:
		m.busy = false
		if msg.err != nil {
			m.status = describeAuthError(msg.err)
			return m, nil
		}
		m.session = msg.session
		m.status = "Signed in as " + msg.session.User.Email
		m.step = stepDone
		return m, tea.Quit

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.status = "Sign-in canceled."
			m.step = stepDone
			return m, tea.Quit
		}
		if m.busy {
			return m, nil
		}

		switch m.step {
		case stepChoose:
			switch msg.String() {
			case "up", "k", "left", "h":
				m.signUp = false
			case "down", "j", "right", "l":
				m.signUp = true
			case "s", "S":
				m.signUp = false
				return m.nextStep()
			case "c", "C":
				m.signUp = true
				return m.nextStep()
			case "enter":
				return m.nextStep()
			case "q", "esc":
				m.status = "Sign-in canceled."
				m.step = stepDone
				return m, tea.Quit
			}
			return m, nil

		case stepCredentials:
			switch msg.String() {
			case "esc":
				m.inputs[m.focused].Blur()
				m.step = stepChoose
				m.status = ""
				return m, nil
			case "tab", "down":
				m.focus((m.focused + 1) % m.visibleInputs())
				return m, nil
			case "shift+tab", "up":
				m.focus((m.focused + m.visibleInputs() - 1) % m.visibleInputs())
				return m, nil
			case "enter":
				if m.focused < m.visibleInputs()-1 {
					m.focus(m.focused + 1)
					return m, nil
				}
				return m.submit()
			}
			var cmd tea.Cmd
			m.inputs[m.focused], cmd = m.inputs[m.focused].Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func (m *onboardingModel) focus(i int) {
	m.inputs[m.focused].Blur()
	m.focused = i
	m.inputs[m.focused].Focus()
}

func (m onboardingModel) nextStep() (tea.Model, tea.Cmd) {
	m.step = stepCredentials
	m.status = ""
	start := 0
	if strings.TrimSpace(m.inputs[0].Value()) != "" {
		start = 1
	}
	m.focused = start
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
	cmd := m.inputs[start].Focus()
	return m, cmd
}

func (m onboardingModel) submit() (tea.Model, tea.Cmd) {
	email := strings.TrimSpace(m.inputs[0].Value())
	password := m.inputs[1].Value()
	name := strings.TrimSpace(m.inputs[2].Value())
	if email == "" || password == "" {
		m.status = "Email and password are required."
		return m, nil
	}

	m.busy = true
	m.status = "Checking..."
	auth, signUp := m.auth, m.signUp
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		sess, err := auth(ctx, signUp, email, password, name)
		return authResultMsg{session: sess, err: err}
	}
}

func describeAuthError(err error) string {
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ve):
		parts := make([]string, 0, len(ve.Errors))
		for _, fe := range ve.Errors {
			parts = append(parts, fe.Field+" "+fe.Message)
		}
		return "Check the form: " + strings.Join(parts, ", ")
	case errors.Is(err, model.ErrUnauthorized):
		return "Wrong email or password."
	case errors.Is(err, model.ErrAlreadyExists):
		return "That email already has an account. Sign in instead."
	default:
		return err.Error()
	}
}

func (m onboardingModel) View() string {
	width := m.width
	height := m.height
	if width <= 0 {
		width = 100
	}
	if height <= 0 {
		height = 28
	}

	header := m.renderHeader(width)
	tabs := m.renderTabs(width)
	footer := m.renderFooter(width)

	contentHeight := max(height-6, 8)
	content := m.renderContent(width, contentHeight)
	screen := lipgloss.JoinVertical(lipgloss.Left, header, tabs, content, footer)

	return lipgloss.NewStyle().
		Foreground(ui.ColorText).
		Width(width).
		Height(height).
		Render(screen)
}

func (m onboardingModel) renderHeader(width int) string {
	left := "  " + obTitleStyle.Render("eatlog") + " " + obMutedStyle.Render("› Sign in")
	right := obMutedStyle.Render(time.Now().Format("Mon 02 Jan")) + "  "
	padding := max(0, width-lipgloss.Width(left)-lipgloss.Width(right))
	return obHeaderStyle.Width(width).Render(left + strings.Repeat(" ", padding) + right)
}

func (m onboardingModel) renderTabs(width int) string {
	chooseTab := obTabInactive.Render("Account")
	credsTab := obTabInactive.Render("Credentials")
	if m.step == stepChoose {
		chooseTab = obTabActive.Render("Account")
	}
	if m.step == stepCredentials {
		credsTab = obTabActive.Render("Credentials")
	}
	return obTabsStyle.Width(width).Render(lipgloss.JoinHorizontal(lipgloss.Left, "  ", chooseTab, credsTab))
}

func (m onboardingModel) renderFooter(width int) string {
	switch m.step {
	case stepChoose:
		return obFooterStyle.Width(width).Render("↑↓/jk to choose  s/c or enter to confirm  q cancel")
	case stepCredentials:
		return obFooterStyle.Width(width).Render("tab next field  enter submit  esc back  ctrl+c cancel")
	default:
		return obFooterStyle.Width(width).Render("Done")
	}
}

func (m onboardingModel) renderContent(width, height int) string {
	cardWidth := min(92, width-6)
	if cardWidth < 40 {
		cardWidth = width - 2
	}

	var body string
	switch m.step {
	case stepChoose:
		question := obLabelStyle.Render("Welcome to your food journal")
		signIn := "Sign in"
		create := "Create an account"

		var signInDisplay, createDisplay string
		if !m.signUp {
			signInDisplay = "  " + obOptionSelected.Render("→ "+signIn)
			createDisplay = "    " + obOptionStyle.Render(create)
		} else {
			signInDisplay = "    " + obOptionStyle.Render(signIn)
			createDisplay = "  " + obOptionSelected.Render("→ "+create)
		}

		body = lipgloss.JoinVertical(
			lipgloss.Left,
			question,
			"",
			signInDisplay,
			createDisplay,
			"",
			obMutedStyle.Render("Use arrow keys or j/k to choose, Enter to confirm"),
			obMutedStyle.Render("Forgot your password? Run `eatlog reset-password --email you@example.com`"),
		)
	case stepCredentials:
		title := "Sign in"
		if m.signUp {
			title = "Create an account"
		}
		lines := []string{obLabelStyle.Render(title), ""}
		for i := 0; i < m.visibleInputs(); i++ {
			lines = append(lines, m.inputs[i].View())
		}
		if m.signUp {
			lines = append(lines, "", obMutedStyle.Render("Use one of the two diner names so ratings and entries are attributed to you."))
		}
		if m.status != "" {
			style := obMutedStyle
			if !m.busy {
				style = obWarnStyle
			}
			lines = append(lines, "", style.Render(m.status))
		}
		body = lipgloss.JoinVertical(lipgloss.Left, lines...)
	default:
		body = lipgloss.JoinVertical(lipgloss.Left, obLabelStyle.Render("Sign-in"), "", obMutedStyle.Render(m.status))
	}

	card := obPanelStyle.Width(cardWidth).Render(body)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Top, card)
}

// runOnboarding shows the sign-in screen and saves the resulting session.
func runOnboarding(ctx context.Context, e *env) (*model.User, error) {
	settings, err := loadSignInSettings(e.cfg.DataDir)
	if err != nil {
		e.logger.Warn("failed to load sign-in settings", "error", err)
	}

	auth := func(ctx context.Context, signUp bool, email, password, name string) (*identity.Session, error) {
		if signUp {
			return e.identity.SignUp(ctx, identity.SignUpInput{Email: email, Password: password, DisplayName: name})
		}
		return e.identity.SignIn(ctx, identity.SignInInput{Email: email, Password: password})
	}

	prog := tea.NewProgram(newOnboardingModel(auth, settings.Email), tea.WithAltScreen(), tea.WithContext(ctx))
	finalModel, err := prog.Run()
	if err != nil {
		return nil, fmt.Errorf("sign-in screen failed: %w", err)
	}
	m, ok := finalModel.(onboardingModel)
	if !ok {
		return nil, fmt.Errorf("unexpected sign-in model type")
	}
	if m.session == nil {
		return nil, errNotSignedIn
	}

	if err := saveSession(e.cfg.DataDir, m.session.Token); err != nil {
		return nil, err
	}
	if err := saveSignInSettings(e.cfg.DataDir, signInSettings{Email: m.session.User.Email}); err != nil {
		e.logger.Warn("failed to save sign-in settings", "error", err)
	}
	return m.session.User, nil
}

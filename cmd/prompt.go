package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"eatlog/internal/ui"
)

var errCanceled = errors.New("canceled")

// linePrompt asks for one line inline, without the alternate screen.
type linePrompt struct {
	input    textinput.Model
	done     bool
	canceled bool
}

func (m linePrompt) Init() tea.Cmd { return textinput.Blink }

func (m linePrompt) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "enter":
			m.done = true
			return m, tea.Quit
		case "ctrl+c", "esc":
			m.canceled = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m linePrompt) View() string {
	if m.done || m.canceled {
		return ""
	}
	return m.input.View() + "\n"
}

// ask reads one line for label. On a terminal the answer is typed into a
// text input (masked when secret); otherwise a line is read from the
// command's input.
func ask(cmd *cobra.Command, label string, secret bool) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); !ok || f != os.Stdin || !isInteractive() {
		return readLine(in)
	}

	ti := textinput.New()
	ti.Prompt = lipgloss.NewStyle().Foreground(ui.ColorAccent).Bold(true).Render(label+": ")
	ti.CharLimit = 300
	if secret {
		ti.EchoMode = textinput.EchoPassword
		ti.EchoCharacter = '•'
	}
	ti.Focus()

	final, err := tea.NewProgram(linePrompt{input: ti}, tea.WithOutput(cmd.ErrOrStderr())).Run()
	if err != nil {
		return "", fmt.Errorf("prompt failed: %w", err)
	}
	m := final.(linePrompt)
	if m.canceled {
		return "", errCanceled
	}
	return strings.TrimSpace(m.input.Value()), nil
}

// readLine reads up to a newline one byte at a time, so successive calls
// on the same reader see successive lines.
func readLine(r io.Reader) (string, error) {
	var sb strings.Builder
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if buf[0] == '\n' {
				break
			}
			sb.WriteByte(buf[0])
		}
		if errors.Is(err, io.EOF) {
			if sb.Len() == 0 {
				return "", errCanceled
			}
			break
		}
		if err != nil {
			return "", err
		}
	}
	return strings.TrimSpace(sb.String()), nil
}

// confirm asks a yes/no question; anything but y or yes is no.
func confirm(cmd *cobra.Command, question string) (bool, error) {
	fmt.Fprint(cmd.ErrOrStderr(), question+" [y/N] ")
	answer, err := readLine(cmd.InOrStdin())
	if errors.Is(err, errCanceled) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes", nil
}

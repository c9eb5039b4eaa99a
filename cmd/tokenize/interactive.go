package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	tokenStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#3C3C5A")).
			Padding(0, 1)

	specialStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#1E1E1E")).
			Background(lipgloss.Color("#98FB98")).
			Padding(0, 1)

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type interactiveModel struct {
	err      error
	closeErr error
	session  *session
	logger   *zap.Logger
	cfg      config
	input    textinput.Model
	report   *report
}

type loadedMsg struct {
	err     error
	session *session
}

type encodedMsg struct {
	err    error
	report report
}

func newInteractiveModel(cfg config, logger *zap.Logger) *interactiveModel {
	ti := textinput.New()
	ti.Placeholder = "type text to encode"
	ti.Prompt = "> "
	ti.Width = 60
	ti.Focus()
	return &interactiveModel{cfg: cfg, logger: logger, input: ti}
}

func (m *interactiveModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.load)
}

func (m *interactiveModel) load() tea.Msg {
	s, err := openSession(m.cfg, m.logger)
	return loadedMsg{session: s, err: err}
}

func (m *interactiveModel) encode() tea.Msg {
	rep, err := m.session.encode(m.input.Value())
	return encodedMsg{report: rep, err: err}
}

// reopen rebuilds the session after an option toggle; the old one is
// closed first so its allocations are accounted for.
func (m *interactiveModel) reopen() tea.Cmd {
	if m.session != nil {
		if err := m.session.close(); err != nil {
			m.closeErr = err
		}
		m.session = nil
	}
	m.report = nil
	return m.load
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			if m.session != nil {
				if err := m.session.close(); err != nil {
					m.closeErr = err
				}
				m.session = nil
			}
			return m, tea.Quit

		case "enter":
			if m.session != nil {
				return m, m.encode
			}
			return m, nil

		case "ctrl+s":
			m.cfg.special = !m.cfg.special
			return m, m.reopen()

		case "ctrl+o":
			m.cfg.charOffsets = !m.cfg.charOffsets
			return m, m.reopen()
		}

	case loadedMsg:
		m.err = msg.err
		m.session = msg.session
		return m, nil

	case encodedMsg:
		m.err = msg.err
		if msg.err == nil {
			m.report = &msg.report
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *interactiveModel) View() string {
	if m.session == nil && m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress esc to quit.", m.err))
	}
	if m.session == nil {
		return "Loading tokenizer..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Tokenizer"))
	b.WriteString(" ")
	b.WriteString(m.cfg.tokenizer)
	fmt.Fprintf(&b, "  vocab %d  special %v  char offsets %v\n\n",
		m.session.vocabSize(), m.cfg.special, m.cfg.charOffsets)

	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n\n")
	} else if m.report != nil {
		b.WriteString(m.renderReport(*m.report))
		b.WriteString("\n")
	}

	if m.closeErr != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Leak: %v", m.closeErr)))
		b.WriteString("\n\n")
	}
	b.WriteString(helpStyle.Render("enter encode • ctrl+s special tokens • ctrl+o offset mode • esc quit"))
	return b.String()
}

func (m *interactiveModel) renderReport(r report) string {
	var b strings.Builder
	tokens := make([]string, len(r.tokens))
	for i, tok := range r.tokens {
		style := tokenStyle
		if i < len(r.special) && r.special[i] == 1 {
			style = specialStyle
		}
		tokens[i] = style.Render(tok)
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tokens...))
	b.WriteString("\n\n")

	row := func(label, value string) {
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-10s", label)))
		b.WriteString(value)
		b.WriteString("\n")
	}
	row("ids", fmt.Sprint(r.ids))
	row("offsets", formatOffsets(r.offsets))
	row("attention", fmt.Sprint(r.attention))
	row("decoded", resultStyle.Render(fmt.Sprintf("%q", r.decoded)))
	return b.String()
}

func runInteractive(cfg config, logger *zap.Logger) error {
	m := newInteractiveModel(cfg, logger)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return m.closeErr
}

package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"textbook-rag/internal/domain"
)

// QueryPort is the TUI-facing subset of the query service.
type QueryPort interface {
	AnswerQuery(ctx context.Context, query string, opts domain.QueryOptions) (domain.QueryResult, error)
	Degraded() bool
}

var complexities = []string{
	domain.ComplexityIntermediate,
	domain.ComplexityBeginner,
	domain.ComplexityAdvanced,
}

var languages = []string{"en", "ur", "es", "fr", "de"}

// Model is the Bubble Tea model for the interactive query UI.
type Model struct {
	service     QueryPort
	input       textinput.Model
	viewport    viewport.Model
	result      *domain.QueryResult
	summary     string
	status      string
	complexity  int
	language    int
	personalize bool
	ready       bool
}

// New creates a new TUI model instance.
func New(service QueryPort, summary string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask the textbook and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	status := "Loaded. Type a question."
	if service.Degraded() {
		status = "Loaded in degraded mode (keyword matching only). Type a question."
	}
	return Model{service: service, input: ti, viewport: vp, summary: summary, status: status}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 2 + qh + 1 // header+summary, status+options, query frame, spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderResult())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" {
				res, err := m.service.AnswerQuery(context.Background(), q, domain.QueryOptions{
					Complexity:  complexities[m.complexity],
					Language:    languages[m.language],
					Personalize: m.personalize,
				})
				if err != nil {
					m.status = "Error: " + err.Error()
					m.result = nil
				} else {
					m.status = fmt.Sprintf("Answer for %q", q)
					m.result = &res
				}
				m.viewport.SetContent(m.renderResult())
				return m, nil
			}
		case "tab":
			m.complexity = (m.complexity + 1) % len(complexities)
			return m, nil
		case "ctrl+l":
			m.language = (m.language + 1) % len(languages)
			return m, nil
		case "ctrl+p":
			m.personalize = !m.personalize
			return m, nil
		case "up":
			m.viewport.LineUp(1)
			return m, nil
		case "down":
			m.viewport.LineDown(1)
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the TUI layout and current answer.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Textbook Q&A")
	summary := summaryStyle.Render(m.summary)
	answer := resultBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	options := optionStyle.Render(fmt.Sprintf(
		"complexity=%s (tab)  language=%s (ctrl+l)  personalize=%v (ctrl+p)",
		complexities[m.complexity], languages[m.language], m.personalize))
	return header + "\n" + summary + "\n" + answer + "\n" + input + "\n" + status + "\n" + options
}

func (m Model) renderResult() string {
	if m.result == nil {
		return "No answer yet."
	}
	r := m.result
	meta := fmt.Sprintf("confidence=%.2f  chunks=%d  sources=%s",
		r.Confidence, r.ChunksUsed, strings.Join(r.SourceIDs, ", "))
	return meta + "\n\n" + r.Answer
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	summaryStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	optionStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

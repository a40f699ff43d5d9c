package tui

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ragscholar/internal/domain"
	"ragscholar/internal/service"
)

// Backend is the TUI-facing subset of the RAG service.
type Backend interface {
	IngestDocuments(ctx context.Context, sess *service.Session, paths []string) (service.IngestReport, error)
	Ask(ctx context.Context, sess *service.Session, question string) (*service.Turn, error)
}

type pane int

const (
	paneChat pane = iota
	paneSources
	panePrompt
	paneCount
)

func (p pane) String() string {
	switch p {
	case paneSources:
		return "excerpts"
	case panePrompt:
		return "prompt"
	default:
		return "chat"
	}
}

type answerMsg struct {
	turn *service.Turn
	err  error
}

type ingestMsg struct {
	report service.IngestReport
	err    error
}

// DocumentsChangedMsg asks the model to reprocess its documents.
type DocumentsChangedMsg struct {
	Paths []string
}

// Model is the Bubble Tea model for the chat application.
type Model struct {
	ctx      context.Context
	backend  Backend
	session  *service.Session
	model    string
	paths    []string
	changes  <-chan []string
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	turns    []*service.Turn
	summary  string
	status   string
	pane     pane
	cursor   int
	busy     bool
	rebuild  bool
	ready    bool
	width    int
}

// New creates a chat model over an already processed session. paths are
// reprocessed on ctrl+r and when changes delivers a batch; changes may be nil.
func New(ctx context.Context, backend Backend, sess *service.Session, paths []string, changes <-chan []string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about your documents and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	return Model{
		ctx:      ctx,
		backend:  backend,
		session:  sess,
		model:    sess.ModelName,
		paths:    paths,
		changes:  changes,
		input:    ti,
		viewport: viewport.New(0, 0),
		spinner:  sp,
		summary:  sess.Summary,
		status:   "Documents processed. Ask a question.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForChanges())
}

// Update handles key, window and pipeline events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header+summary, status, input box, spacer
		vh := max(3, msg.Height-reserved)
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.refresh()
		return m, nil

	case answerMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
		} else {
			m.turns = append(m.turns, msg.turn)
			m.cursor = 0
			m.status = turnStatus(msg.turn)
		}
		m.refresh()
		if m.rebuild {
			return m.startIngest()
		}
		return m, nil

	case ingestMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Reprocessing failed: " + msg.err.Error()
		} else {
			m.turns = nil
			m.cursor = 0
			m.summary = msg.report.Summary
			m.model = m.session.ModelName
			m.status = fmt.Sprintf("Reprocessed %d documents into %d chunks. History cleared.", len(msg.report.Documents), msg.report.TotalChunks)
			m.refresh()
		}
		if m.rebuild {
			return m.startIngest()
		}
		return m, nil

	case DocumentsChangedMsg:
		m.rebuild = true
		cmd := m.waitForChanges()
		if m.busy {
			m.status = "Documents changed; reprocessing after this answer."
			return m, cmd
		}
		next, ingest := m.startIngest()
		return next, tea.Batch(ingest, cmd)

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.busy {
				return m, nil
			}
			m.input.SetValue("")
			m.busy = true
			m.status = "Thinking..."
			return m, tea.Batch(m.ask(q), m.spinner.Tick)
		case "ctrl+r":
			if m.busy {
				m.rebuild = true
				return m, nil
			}
			return m.startIngest()
		case "tab":
			m.pane = (m.pane + 1) % paneCount
			m.refresh()
			return m, nil
		case "down":
			if m.pane == paneSources {
				if n := len(m.lastResults()); n > 0 {
					m.cursor = (m.cursor + 1) % n
					m.refresh()
				}
				return m, nil
			}
			m.viewport.LineDown(1)
			return m, nil
		case "up":
			if m.pane == paneSources {
				if n := len(m.lastResults()); n > 0 {
					m.cursor = (m.cursor - 1 + n) % n
					m.refresh()
				}
				return m, nil
			}
			m.viewport.LineUp(1)
			return m, nil
		case "pgdown":
			m.viewport.ViewDown()
			return m, nil
		case "pgup":
			m.viewport.ViewUp()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	title := fmt.Sprintf("RAG Scholar  [%s]  %s", m.pane, m.model)
	header := lipgloss.NewStyle().Bold(true).Render(title)
	summary := summaryStyle.Render(truncate(m.summary, m.width))
	body := resultBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	if m.busy {
		status = m.spinner.View() + " " + status
	}
	return header + "\n" + summary + "\n" + body + "\n" + input + "\n" + status
}

func (m Model) ask(q string) tea.Cmd {
	ctx, backend, sess := m.ctx, m.backend, m.session
	return func() tea.Msg {
		turn, err := backend.Ask(ctx, sess, q)
		return answerMsg{turn: turn, err: err}
	}
}

func (m Model) startIngest() (tea.Model, tea.Cmd) {
	m.rebuild = false
	m.busy = true
	m.status = "Reprocessing documents..."
	ctx, backend, sess, paths := m.ctx, m.backend, m.session, m.paths
	ingest := func() tea.Msg {
		report, err := backend.IngestDocuments(ctx, sess, paths)
		return ingestMsg{report: report, err: err}
	}
	return m, tea.Batch(ingest, m.spinner.Tick)
}

func (m Model) waitForChanges() tea.Cmd {
	if m.changes == nil {
		return nil
	}
	ch := m.changes
	return func() tea.Msg {
		paths, ok := <-ch
		if !ok {
			return nil
		}
		return DocumentsChangedMsg{Paths: paths}
	}
}

func (m Model) lastTurn() *service.Turn {
	if len(m.turns) == 0 {
		return nil
	}
	return m.turns[len(m.turns)-1]
}

func (m Model) lastResults() []domain.RetrievedResult {
	if t := m.lastTurn(); t != nil {
		return t.Results
	}
	return nil
}

// refresh re-renders the active pane into the viewport.
func (m *Model) refresh() {
	width := max(10, m.viewport.Width-4)
	switch m.pane {
	case paneSources:
		m.viewport.SetContent(m.renderCurrentResult(width))
		m.viewport.GotoTop()
	case panePrompt:
		content := "No prompt yet."
		if t := m.lastTurn(); t != nil {
			content = t.Prompt
		}
		m.viewport.SetContent(wrap(content, width))
		m.viewport.GotoTop()
	default:
		m.viewport.SetContent(m.renderTranscript(width))
		m.viewport.GotoBottom()
	}
}

func (m Model) renderTranscript(width int) string {
	if len(m.turns) == 0 {
		return "No questions yet."
	}
	var b strings.Builder
	for i, t := range m.turns {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(userStyle.Render("User: "))
		b.WriteString(wrap(t.Question, width))
		b.WriteString("\n")
		b.WriteString(botStyle.Render("Bot: "))
		answer := t.Answer
		if answer == "" {
			answer = "(no answer)"
		}
		b.WriteString(wrap(answer, width))
	}
	return b.String()
}

func (m Model) renderCurrentResult(width int) string {
	t := m.lastTurn()
	if t == nil || len(t.Results) == 0 {
		return "No excerpts yet."
	}
	r := t.Results[m.cursor]
	title := fmt.Sprintf("Excerpt %d/%d  %s  distance=%.3f", m.cursor+1, len(t.Results), r.Chunk.Source, r.Distance)
	query := t.Question
	if t.ExpandedQuestion != "" {
		query = t.ExpandedQuestion
	}
	body := wrap(highlightBestSentence(r.Chunk.Text, query), width)
	return title + "\n\n" + body
}

func turnStatus(t *service.Turn) string {
	if len(t.Notices) == 0 {
		return fmt.Sprintf("Answered from %d excerpts.", len(t.Results))
	}
	notes := make([]string, len(t.Notices))
	for i, n := range t.Notices {
		notes[i] = n.String()
	}
	return "Warning: " + strings.Join(notes, "; ")
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	summaryStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	botStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true)
	unicodeWordRe  = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	sentenceRe     = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)
)

func wrap(text string, width int) string {
	return lipgloss.NewStyle().Width(width).Render(text)
}

func truncate(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if width <= 3 || len(r) <= width {
		return s
	}
	return string(r[:width-3]) + "..."
}

func highlightBestSentence(text, query string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	sentences := sentenceRe.FindAllString(text, -1)
	if len(sentences) == 0 {
		sentences = []string{strings.TrimSpace(text)}
	}
	qTokens := toTokenSet(query)
	if len(qTokens) == 0 {
		return strings.Join(sentences, " ")
	}
	bestIdx := 0
	bestScore := -1
	for i, s := range sentences {
		score := tokenOverlapScore(qTokens, s)
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	for i := range sentences {
		sent := strings.TrimSpace(sentences[i])
		if i == bestIdx {
			sentences[i] = highlightStyle.Render(sent)
		} else {
			sentences[i] = sent
		}
	}
	return strings.Join(sentences, " ")
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func tokenOverlapScore(queryTokens map[string]struct{}, sentence string) int {
	score := 0
	tokens := unicodeWordRe.FindAllString(strings.ToLower(sentence), -1)
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := queryTokens[t]; ok {
			score++
		}
	}
	return score
}

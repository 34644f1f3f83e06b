// Package bubbletea implements an interactive terminal front end for a chat
// session using the Charm bubbletea framework. It provides a scrollable
// transcript, a text input prompt, a spinner while the agent is working,
// and Markdown rendering via glamour.
package bubbletea

import (
	"context"
	"errors"
	"fmt"
	"strings"

	// Packages
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/termenv"
	agentchat "github.com/mutablelogic/go-agentchat"
	render "github.com/mutablelogic/go-agentchat/pkg/render"
	schema "github.com/mutablelogic/go-agentchat/pkg/schema"
	suggest "github.com/mutablelogic/go-agentchat/pkg/suggest"
	ui "github.com/mutablelogic/go-agentchat/pkg/ui"
	command "github.com/mutablelogic/go-agentchat/pkg/ui/command"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Terminal is an interactive terminal front end for one session.
type Terminal struct {
	session ui.Session
	model   *model
	opts    []tea.ProgramOption
	status  chan schema.Status // transitions, in order, until the program runs
}

// Opt configures a Terminal.
type Opt func(*Terminal) error

// model is the bubbletea model that manages the TUI state.
type model struct {
	session     ui.Session
	commands    *command.Handler
	viewport    viewport.Model
	input       textinput.Model
	spinner     spinner.Model
	history     []historyEntry
	suggestions []string
	status      schema.Status
	waiting     bool // a query is out and no answer has arrived
	width       int
	height      int
	ready       bool
	renderer    *glamour.TermRenderer
	stylePath   string // glamour style ("dark" or "light"), detected before TUI starts
	quitting    bool
}

type historyEntry struct {
	kind      schema.Kind // kind of transcript entry, or empty for local notes
	label     string      // label shown above the text
	text      string      // rendered text
	rawText   string      // markdown before rendering
	glamoured bool        // true if text was rendered through glamour
}

///////////////////////////////////////////////////////////////////////////////
// MESSAGES (bubbletea internal)

type entryMsg struct {
	entry schema.Entry
}

type statusMsg struct {
	status schema.Status
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	placeholderConnected    = "Ask a question..."
	placeholderDisconnected = "Connecting..."
)

///////////////////////////////////////////////////////////////////////////////
// STYLES

var (
	userStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")) // blue
	answerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")) // green
	actionStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11")) // yellow
	errorStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))  // red
	connectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle       = lipgloss.NewStyle().Faint(true)
	promptStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("14")) // cyan
)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New creates a terminal front end for session. The terminal is taken over
// when Run is called.
func New(session ui.Session, opts ...Opt) (*Terminal, error) {
	// Detect terminal background BEFORE starting bubbletea, so that
	// the escape-sequence response is consumed here rather than leaking
	// into bubbletea's input reader.
	stylePath := "dark"
	if !termenv.HasDarkBackground() {
		stylePath = "light"
	}

	t := &Terminal{
		session: session,
		model:   newModel(session, stylePath),
		opts:    []tea.ProgramOption{tea.WithAltScreen()},
		status:  make(chan schema.Status, 4),
	}
	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}

	// A manager makes at most two transitions, so the buffer never fills
	session.OnStatus(func(_, to schema.Status) {
		select {
		case t.status <- to:
		default:
		}
	})

	return t, nil
}

func newModel(session ui.Session, stylePath string) *model {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render("> ")
	ti.CharLimit = 0 // unlimited

	m := &model{
		session:     session,
		commands:    command.New(session, "", suggest.Defaults),
		input:       ti,
		spinner:     spinner.New(spinner.WithSpinner(spinner.Dot)),
		suggestions: suggest.Sample(suggest.Defaults, suggest.MaxSuggestions),
		stylePath:   stylePath,
	}
	m.setStatus(session.Status())
	return m
}

///////////////////////////////////////////////////////////////////////////////
// OPTIONS

// WithSuggestions sets the candidate queries offered before the
// conversation starts, and the endpoint reported by /status.
func WithSuggestions(endpoint string, candidates []string) Opt {
	return func(t *Terminal) error {
		if len(candidates) == 0 {
			return agentchat.ErrBadParameter.With("no suggestions")
		}
		t.model.commands = command.New(t.session, endpoint, candidates)
		t.model.suggestions = suggest.Sample(candidates, suggest.MaxSuggestions)
		return nil
	}
}

// WithProgramOptions adds options for the bubbletea program, such as its
// input and output.
func WithProgramOptions(opts ...tea.ProgramOption) Opt {
	return func(t *Terminal) error {
		t.opts = append(t.opts, opts...)
		return nil
	}
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Run takes over the terminal until the user quits or ctx is cancelled.
// The transcript is shown from the start, then followed as it grows.
func (t *Terminal) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(t.model, t.opts...)

	// Feed transcript entries and status transitions to the program
	go func() {
		entries := t.session.Transcript().Watch(ctx)
		for {
			select {
			case <-ctx.Done():
				p.Quit()
				return
			case entry, ok := <-entries:
				if !ok {
					return
				}
				p.Send(entryMsg{entry: entry})
			case status := <-t.status:
				p.Send(statusMsg{status: status})
			}
		}
	}()

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}

///////////////////////////////////////////////////////////////////////////////
// BUBBLETEA MODEL

func (m *model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			return m, tea.Quit
		case tea.KeyEnter:
			return m.submit(strings.TrimSpace(m.input.Value()))
		case tea.KeyRunes:
			if i, ok := m.suggestionKey(msg); ok {
				return m.submit(m.suggestions[i])
			}
		}

	case tea.WindowSizeMsg:
		footerHeight := 2 // input + status line
		m.width = msg.Width
		m.height = msg.Height

		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-footerHeight)
			m.viewport.YPosition = 0
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - footerHeight
		}
		m.input.Width = msg.Width - 4

		// (Re)create glamour renderer with new width and re-render history
		m.newRenderer()
		m.rerenderHistory()
		m.updateViewport()
		return m, nil

	case entryMsg:
		m.appendEntry(msg.entry)
		m.updateViewport()
		return m, nil

	case statusMsg:
		m.setStatus(msg.status)
		if msg.status != schema.StatusConnected {
			m.waiting = false
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	// Update text input
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	// Forward navigation keys to viewport for scrolling, but block regular
	// typing keys to prevent the viewport jumping on each keystroke.
	if keyMsg, isKey := msg.(tea.KeyMsg); isKey {
		switch keyMsg.Type {
		case tea.KeyUp, tea.KeyDown, tea.KeyPgUp, tea.KeyPgDown, tea.KeyHome, tea.KeyEnd:
			m.viewport, cmd = m.viewport.Update(msg)
			cmds = append(cmds, cmd)
		}
	} else {
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "\n  Initializing..."
	}

	// Status line
	status := "Agent Status: " + m.status.String()
	if m.status == schema.StatusConnected {
		status = connectedStyle.Render(status)
	} else {
		status = dimStyle.Render(status)
	}
	if m.waiting {
		status += " " + dimStyle.Render(m.spinner.View()+" thinking...")
	}
	status += dimStyle.Render("  ctrl+c to quit")

	return fmt.Sprintf("%s\n%s\n%s", m.viewport.View(), m.input.View(), status)
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// submit handles a line typed by the user: a command, or a query for the
// agent. The input is only cleared when the line was accepted.
func (m *model) submit(text string) (tea.Model, tea.Cmd) {
	if text == "" {
		return m, nil
	}

	if command.IsCommand(text) {
		m.input.SetValue("")
		result, err := m.commands.Handle(text)
		if err != nil {
			m.appendNote("Error", err.Error())
		} else {
			if result.Suggestions != nil {
				m.suggestions = result.Suggestions
			}
			if result.Markdown != "" {
				m.appendNote("", result.Markdown)
			}
		}
		m.updateViewport()
		if result.Quit {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	// The entry reaches the view through the transcript
	if err := m.session.Send(text); err != nil {
		if errors.Is(err, agentchat.ErrNotConnected) {
			m.appendNote("Error", "Not connected to the agent")
		} else {
			m.appendNote("Error", err.Error())
		}
		m.updateViewport()
		return m, nil
	}
	m.input.SetValue("")
	m.waiting = true
	return m, m.spinner.Tick
}

// suggestionKey returns the index of the suggestion selected by a number
// key. Suggestions are only offered before the conversation starts, while
// connected and with nothing typed.
func (m *model) suggestionKey(msg tea.KeyMsg) (int, bool) {
	if !m.offerSuggestions() || m.input.Value() != "" || len(msg.Runes) != 1 {
		return 0, false
	}
	r := msg.Runes[0]
	if r < '1' || r > '9' {
		return 0, false
	}
	i := int(r - '1')
	return i, i < len(m.suggestions)
}

func (m *model) offerSuggestions() bool {
	return m.status == schema.StatusConnected && len(m.suggestions) > 0 && m.transcriptLen() == 0
}

func (m *model) transcriptLen() int {
	n := 0
	for _, entry := range m.history {
		if entry.kind != "" {
			n++
		}
	}
	return n
}

// setStatus enables the input only while connected.
func (m *model) setStatus(status schema.Status) {
	m.status = status
	if status == schema.StatusConnected {
		m.input.Placeholder = placeholderConnected
		m.input.Focus()
	} else {
		m.input.Placeholder = placeholderDisconnected
		m.input.Blur()
	}
	if m.ready {
		m.updateViewport()
	}
}

// appendEntry adds a transcript entry to the history.
func (m *model) appendEntry(entry schema.Entry) {
	text, payload := render.Markdown(entry.Event)
	if payload != nil {
		text = strings.TrimSpace(render.PayloadMarkdown(payload) + "\n" + text)
	}
	h := historyEntry{
		kind:    entry.Kind,
		label:   render.Label(entry.Kind),
		rawText: text,
	}
	m.renderEntry(&h)
	m.history = append(m.history, h)

	switch entry.Kind {
	case schema.KindFinalAnswer, schema.KindError:
		m.waiting = false
	}
}

// appendNote adds output which is not part of the transcript.
func (m *model) appendNote(label, text string) {
	h := historyEntry{label: label, rawText: text}
	m.renderEntry(&h)
	m.history = append(m.history, h)
}

// renderEntry renders markdown through glamour, except queries typed by the
// user which are shown as typed.
func (m *model) renderEntry(h *historyEntry) {
	h.text, h.glamoured = h.rawText, false
	if h.kind == schema.KindUserQuery || m.renderer == nil || h.rawText == "" {
		h.text = wordwrap.String(h.rawText, m.wrapWidth())
		return
	}
	if out, err := m.renderer.Render(h.rawText); err == nil {
		h.text = trimGlamour(out)
		h.glamoured = true
	}
}

// trimGlamour trims leading/trailing blank lines from glamour output.
func trimGlamour(s string) string {
	return strings.TrimSpace(s)
}

// indentText ensures every line has a 2-space indent, matching glamour's
// default left margin so all content is visually consistent.
func indentText(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line == "" {
			continue
		}
		if len(line) < 2 || line[:2] != "  " {
			lines[i] = "  " + line
		}
	}
	return strings.Join(lines, "\n")
}

// wrapWidth returns the available text width for content, accounting for
// the indent and some padding.
func (m *model) wrapWidth() int {
	const margin = 4
	return max(m.width-margin, 20)
}

// newRenderer creates a glamour terminal renderer with the current wrap
// width. Uses the pre-detected style path to avoid querying the terminal
// inside bubbletea's event loop.
func (m *model) newRenderer() {
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath(m.stylePath),
		glamour.WithWordWrap(m.wrapWidth()),
	)
	if err == nil {
		m.renderer = r
	}
}

// rerenderHistory re-renders all history entries with the current renderer
// (e.g. after a terminal resize).
func (m *model) rerenderHistory() {
	for i := range m.history {
		m.renderEntry(&m.history[i])
	}
}

func (m *model) updateViewport() {
	var b strings.Builder
	for _, entry := range m.history {
		if entry.label != "" {
			b.WriteString(m.styleLabel(entry.kind, entry.label))
		}
		if entry.text != "" {
			text := entry.text
			if entry.kind.IsThought() {
				text = dimStyle.Render(text)
			}
			if entry.glamoured {
				// Glamour already handles margins and wrapping
				b.WriteString("\n" + text)
			} else {
				b.WriteString("\n" + indentText(text))
			}
		}
		b.WriteString("\n\n")
	}

	// Offer suggestions until the conversation starts
	if m.offerSuggestions() {
		b.WriteString(dimStyle.Render("Try asking:") + "\n")
		for i, suggestion := range m.suggestions {
			b.WriteString(indentText(fmt.Sprintf("%s %s", promptStyle.Render(fmt.Sprintf("%d.", i+1)), suggestion)) + "\n")
		}
	}

	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

func (m *model) styleLabel(kind schema.Kind, label string) string {
	switch kind {
	case schema.KindUserQuery:
		return userStyle.Render(label + ":")
	case schema.KindFinalAnswer:
		return answerStyle.Render(label + ":")
	case schema.KindThought, schema.KindStepStart, schema.KindObservation:
		return dimStyle.Render(label + ":")
	case schema.KindActionCall:
		return actionStyle.Render(label + ":")
	case schema.KindError:
		return errorStyle.Render(label + ":")
	}
	if label == "Error" {
		return errorStyle.Render(label + ":")
	}
	return label + ":"
}

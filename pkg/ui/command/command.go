// Package command implements slash commands for chat front ends.
//
// A line beginning with a known command, such as /help or /history, is
// handled locally and never sent to the agent. Any other line, including
// one with an unknown slash command, is a query.
package command

import (
	"fmt"
	"strconv"
	"strings"

	// Packages
	agentchat "github.com/mutablelogic/go-agentchat"
	suggest "github.com/mutablelogic/go-agentchat/pkg/suggest"
	ui "github.com/mutablelogic/go-agentchat/pkg/ui"
	table "github.com/mutablelogic/go-agentchat/pkg/ui/table"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Handler processes slash commands against a session.
type Handler struct {
	session    ui.Session
	endpoint   string
	candidates []string
}

// Result is the outcome of a command.
type Result struct {
	// Markdown to show the user, if any
	Markdown string

	// Suggestions replaces the suggestions on offer, when not nil
	Suggestions []string

	// Quit is true when the user asked to leave
	Quit bool
}

type command struct {
	usage string
	help  string
	fn    func(h *Handler, args []string) (Result, error)
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

var commands map[string]command

func init() {
	commands = map[string]command{
		"help":    {"/help", "Show this help", (*Handler).cmdHelp},
		"status":  {"/status", "Show the connection status", (*Handler).cmdStatus},
		"history": {"/history", "List the conversation so far", (*Handler).cmdHistory},
		"suggest": {"/suggest [count]", "Suggest some questions to ask", (*Handler).cmdSuggest},
		"quit":    {"/quit", "Leave the chat", (*Handler).cmdQuit},
	}
}

// Order in which commands are listed by /help
var order = []string{"help", "status", "history", "suggest", "quit"}

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New creates a command handler for a session connected to endpoint.
// Suggestions are sampled from candidates.
func New(session ui.Session, endpoint string, candidates []string) *Handler {
	return &Handler{
		session:    session,
		endpoint:   endpoint,
		candidates: candidates,
	}
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// IsCommand returns true if line starts with a known command.
func IsCommand(line string) bool {
	name, _ := parse(line)
	_, exists := commands[name]
	return exists
}

// Handle runs the command in line.
func (h *Handler) Handle(line string) (Result, error) {
	name, args := parse(line)
	cmd, exists := commands[name]
	if !exists {
		return Result{}, agentchat.ErrBadParameter.Withf("unknown command: %q", line)
	}
	return cmd.fn(h, args)
}

///////////////////////////////////////////////////////////////////////////////
// COMMANDS

func (h *Handler) cmdHelp(args []string) (Result, error) {
	var b strings.Builder
	for _, name := range order {
		cmd := commands[name]
		b.WriteString(fmt.Sprintf("- `%s` %s\n", cmd.usage, cmd.help))
	}
	b.WriteString("\nAnything else is sent to the agent.")
	return Result{Markdown: b.String()}, nil
}

func (h *Handler) cmdStatus(args []string) (Result, error) {
	return Result{Markdown: table.RenderMarkdown(table.Fields{
		{"Status", h.session.Status().String()},
		{"Endpoint", h.endpoint},
		{"Entries", strconv.Itoa(h.session.Transcript().Len())},
	})}, nil
}

func (h *Handler) cmdHistory(args []string) (Result, error) {
	entries := h.session.Transcript().Entries()
	if len(entries) == 0 {
		return Result{Markdown: "Nothing has been said yet."}, nil
	}
	return Result{Markdown: table.RenderMarkdown(table.Entries(entries))}, nil
}

func (h *Handler) cmdSuggest(args []string) (Result, error) {
	count := suggest.MaxSuggestions
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return Result{}, agentchat.ErrBadParameter.Withf("invalid count: %q", args[0])
		}
		count = min(n, suggest.MaxSuggestions)
	}
	suggestions := suggest.Sample(h.candidates, count)
	return Result{
		Markdown:    table.RenderMarkdown(table.Suggestions(suggestions)),
		Suggestions: suggestions,
	}, nil
}

func (h *Handler) cmdQuit(args []string) (Result, error) {
	return Result{Quit: true}, nil
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// parse splits a line into a command name and its arguments. The name is
// empty when the line does not start with a slash.
func parse(line string) (string, []string) {
	fields := strings.Fields(line)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", nil
	}
	name := strings.ToLower(strings.TrimPrefix(fields[0], "/"))
	if name == "exit" {
		name = "quit"
	}
	return name, fields[1:]
}

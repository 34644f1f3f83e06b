package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	// Packages
	glamour "github.com/charmbracelet/glamour"
	lipgloss "github.com/charmbracelet/lipgloss"
	agentchat "github.com/mutablelogic/go-agentchat"
	render "github.com/mutablelogic/go-agentchat/pkg/render"
	schema "github.com/mutablelogic/go-agentchat/pkg/schema"
	session "github.com/mutablelogic/go-agentchat/pkg/session"
	log "goa.design/clue/log"
	term "golang.org/x/term"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

type AskCmd struct {
	Query   string        `arg:"" help:"Question to ask"`
	Timeout time.Duration `name:"timeout" default:"5m" help:"Give up waiting for an answer after this long"`
	JSON    bool          `name:"json" help:"Print each transcript entry as a line of JSON"`
}

// printer writes transcript entries as they arrive
type printer func(w io.Writer, entry schema.Entry) error

////////////////////////////////////////////////////////////////////////////////
// GLOBALS

var (
	labelStyle = lipgloss.NewStyle().Bold(true)
)

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

func (cmd *AskCmd) Run(globals *Globals) error {
	if strings.TrimSpace(cmd.Query) == "" {
		return agentchat.ErrBadParameter.With("empty query")
	}

	endpoint, dialer, err := globals.endpoint()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(globals.ctx, cmd.Timeout)
	defer cancel()

	// Connect, and stop waiting when the server goes away
	s := session.New(dialer)
	defer s.Close()
	disconnected := make(chan struct{})
	s.OnStatus(func(_, to schema.Status) {
		if to == schema.StatusDisconnected {
			close(disconnected)
		}
	})
	if err := s.Open(ctx, endpoint); err != nil {
		return err
	}

	// Watch from the start, so the query is printed too
	entries := s.Transcript().Watch(ctx)
	if err := s.Send(cmd.Query); err != nil {
		return err
	}

	show := cmd.printer()
	printed, dropped, wait := 0, false, (<-chan struct{})(disconnected)
	for {
		// Entries which arrived before the connection dropped are printed first
		if dropped && printed >= s.Transcript().Len() {
			return agentchat.ErrClosed.With("connection closed before an answer")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-wait:
			wait, dropped = nil, true
		case entry, ok := <-entries:
			if !ok {
				return ctx.Err()
			}
			printed++
			if err := show(os.Stdout, entry); err != nil {
				return err
			}
			switch entry.Kind {
			case schema.KindFinalAnswer:
				return nil
			case schema.KindError:
				log.Warn(ctx, log.KV{K: "msg", V: "agent error"}, log.KV{K: "content", V: entry.Content})
				return nil
			}
		}
	}
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// printer returns JSON lines, rendered markdown on a terminal, or plain
// labelled text
func (cmd *AskCmd) printer() printer {
	if cmd.JSON {
		return func(w io.Writer, entry schema.Entry) error {
			data, err := json.Marshal(entry)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(w, string(data))
			return err
		}
	}

	if term.IsTerminal(int(os.Stdout.Fd())) {
		width := 80
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
			width = w
		}
		if r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(width-4)); err == nil {
			return func(w io.Writer, entry schema.Entry) error {
				text := markdown(entry)
				if out, err := r.Render(text); err == nil {
					text = strings.TrimRight(out, "\n")
				}
				_, err := fmt.Fprintf(w, "%s\n%s\n\n", labelStyle.Render(render.Label(entry.Kind)+":"), text)
				return err
			}
		}
	}

	return func(w io.Writer, entry schema.Entry) error {
		_, err := fmt.Fprintf(w, "%s: %s\n", render.Label(entry.Kind), markdown(entry))
		return err
	}
}

// markdown returns the entry text with any structured payload before it
func markdown(entry schema.Entry) string {
	text, payload := render.Markdown(entry.Event)
	if payload != nil {
		text = strings.TrimSpace(render.PayloadMarkdown(payload) + "\n" + text)
	}
	return text
}

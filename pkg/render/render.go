// Package render turns transcript entries into labelled markdown, for
// display in a terminal or anywhere else markdown is understood.
package render

import (
	"regexp"
	"strings"

	// Packages
	schema "github.com/mutablelogic/go-agentchat/pkg/schema"
	uidata "github.com/mutablelogic/go-agentchat/pkg/uidata"
)

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

var (
	reThought = regexp.MustCompile(`(?i)^Thought:\s*`)
)

var labels = map[schema.Kind]string{
	schema.KindUserQuery:   "You",
	schema.KindThought:     "Thinking",
	schema.KindStepStart:   "Thinking",
	schema.KindActionCall:  "Action",
	schema.KindObservation: "Observation",
	schema.KindFinalAnswer: "Answer",
	schema.KindError:       "Error",
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Label returns the display label for a kind of event. Unknown kinds are
// shown in brackets.
func Label(kind schema.Kind) string {
	if label, exists := labels[kind]; exists {
		return label
	}
	return "[" + string(kind) + "]"
}

// StripThought removes a leading "Thought:" label, in any case, along with
// the whitespace after it.
func StripThought(content string) string {
	return reThought.ReplaceAllString(content, "")
}

// Text returns the content of an event as it should be displayed, without
// any markup, and the structured payload of a final answer, if any.
func Text(e schema.Event) (string, *schema.Payload) {
	switch {
	case e.Kind.IsThought():
		return StripThought(e.Content), nil
	case e.Kind == schema.KindFinalAnswer:
		payload, text := uidata.Apply(e)
		return text, payload
	default:
		return e.Content, nil
	}
}

// Markdown returns the content of an event as markdown. Tool calls and
// their results are shown as code; a final answer has its structured
// payload removed and returned separately.
func Markdown(e schema.Event) (string, *schema.Payload) {
	text, payload := Text(e)
	switch e.Kind {
	case schema.KindActionCall, schema.KindObservation:
		if text != "" {
			text = fence(text)
		}
	}
	return text, payload
}

// PayloadMarkdown renders a list payload as markdown: the title as a
// heading, then one bullet per item. Anything other than a list renders
// as empty.
func PayloadMarkdown(p *schema.Payload) string {
	if !p.IsList() {
		return ""
	}

	var b strings.Builder
	if p.Title != "" {
		b.WriteString("### " + p.Title + "\n\n")
	}
	for _, item := range p.Items {
		b.WriteString("- **" + item.Title + "**")
		if item.Icon != "" {
			b.WriteString(" " + item.Icon)
		}
		b.WriteString("\n")
		if item.Role != "" {
			b.WriteString("  _" + item.Role + "_\n")
		}
		if item.Description != "" {
			b.WriteString("  " + item.Description + "\n")
		}
		if len(item.Tags) > 0 {
			tags := make([]string, 0, len(item.Tags))
			for _, tag := range item.Tags {
				tags = append(tags, "`"+tag+"`")
			}
			b.WriteString("  " + strings.Join(tags, " ") + "\n")
		}
	}
	return b.String()
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// fence wraps text in a code block, using a longer fence than any run of
// backticks in the text.
func fence(text string) string {
	n, run := 3, 0
	for _, r := range text {
		if r == '`' {
			run++
			if run >= n {
				n = run + 1
			}
		} else {
			run = 0
		}
	}
	f := strings.Repeat("`", n)
	return f + "\n" + strings.TrimRight(text, "\n") + "\n" + f
}

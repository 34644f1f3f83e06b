// Package uidata extracts the structured block an agent may embed in a
// final answer, between <UI_DATA> and </UI_DATA> tags.
//
// Extraction never fails. When there is no block, or the block is not
// valid JSON, the content is returned unchanged so that nothing the agent
// wrote is hidden from the user.
package uidata

import (
	"encoding/json"
	"regexp"
	"strings"

	// Packages
	schema "github.com/mutablelogic/go-agentchat/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	OpenTag  = "<UI_DATA>"
	CloseTag = "</UI_DATA>"
)

var reBlock = regexp.MustCompile(`(?s)` + regexp.QuoteMeta(OpenTag) + `(.*?)` + regexp.QuoteMeta(CloseTag))

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Extract returns the list payload embedded in content and the remaining
// text with the block removed and surrounding whitespace trimmed. Only the
// first block is considered. If there is no block, or it is not valid JSON,
// the payload is nil and content is returned as-is. A valid block which is
// not a list is removed, but the payload is nil.
func Extract(content string) (*schema.Payload, string) {
	loc := reBlock.FindStringSubmatchIndex(content)
	if loc == nil {
		return nil, content
	}

	var payload schema.Payload
	if err := json.Unmarshal([]byte(content[loc[2]:loc[3]]), &payload); err != nil {
		return nil, content
	}
	text := strings.TrimSpace(content[:loc[0]] + content[loc[1]:])
	if !payload.IsList() {
		return nil, text
	}
	if payload.Items == nil {
		payload.Items = []schema.Item{}
	}

	// Return the payload and the text either side of the block
	return &payload, text
}

// Apply extracts a payload from a final answer. Other kinds of event are
// returned with a nil payload and their content unchanged.
func Apply(e schema.Event) (*schema.Payload, string) {
	if e.Kind != schema.KindFinalAnswer {
		return nil, e.Content
	}
	return Extract(e.Content)
}

// HasBlock returns true if content contains a delimited block, whether or
// not it parses.
func HasBlock(content string) bool {
	return reBlock.MatchString(content)
}

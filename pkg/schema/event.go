package schema

import (
	"bytes"
	"encoding/json"

	// Packages
	agentchat "github.com/mutablelogic/go-agentchat"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Kind identifies the type of an agent stream event. Values outside the
// known set are preserved as-is.
type Kind string

// Event is one decoded inbound unit from the agent stream. It is a value
// type and carries no reference to the channel it arrived on.
type Event struct {
	Kind    Kind   `json:"type"`
	Content string `json:"content"`
}

// envelope is the wire shape used while decoding, so that type and content
// can be checked before they are accepted.
type envelope struct {
	Type    *string         `json:"type"`
	Content json.RawMessage `json:"content"`
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	KindUserQuery   Kind = "user_query"
	KindThought     Kind = "thought"
	KindStepStart   Kind = "step_start"
	KindActionCall  Kind = "action_call"
	KindObservation Kind = "observation"
	KindFinalAnswer Kind = "final_answer"
	KindError       Kind = "error"
)

var knownKinds = map[Kind]bool{
	KindUserQuery:   true,
	KindThought:     true,
	KindStepStart:   true,
	KindActionCall:  true,
	KindObservation: true,
	KindFinalAnswer: true,
	KindError:       true,
}

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewEvent returns an event with the given kind and content.
func NewEvent(kind Kind, content string) Event {
	return Event{Kind: kind, Content: content}
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Known returns true if the kind is one the agent protocol defines.
func (k Kind) Known() bool {
	return knownKinds[k]
}

func (k Kind) String() string {
	return string(k)
}

// IsThought returns true for the kinds whose content may carry a leading
// "Thought:" label.
func (k Kind) IsThought() bool {
	return k == KindThought || k == KindStepStart
}

// Decode parses a single inbound frame. The frame must be a JSON object
// with a string "type" member. A string "content" is used as-is; any other
// JSON value is kept as its raw text, and a missing or null content is empty.
// The kind is not checked against the known set.
func Decode(frame []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return Event{}, agentchat.ErrBadParameter.Withf("decode: %v", err)
	}
	if env.Type == nil {
		// Also covers a literal null frame
		return Event{}, agentchat.ErrBadParameter.With("decode: missing type")
	}

	event := Event{Kind: Kind(*env.Type)}
	switch content := bytes.TrimSpace(env.Content); {
	case len(content) == 0, bytes.Equal(content, []byte("null")):
		// No content
	case content[0] == '"':
		if err := json.Unmarshal(content, &event.Content); err != nil {
			return Event{}, agentchat.ErrBadParameter.Withf("decode: %v", err)
		}
	default:
		event.Content = string(content)
	}

	// Return success
	return event, nil
}

// Encode returns the wire representation of an event, the inverse of Decode.
func Encode(e Event) ([]byte, error) {
	return json.Marshal(e)
}

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (e Event) String() string {
	return Stringify(e)
}

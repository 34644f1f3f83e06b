package schema

import (
	"time"

	// Packages
	uuid "github.com/google/uuid"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Entry is one item in a transcript: either a decoded event from the agent,
// or a user_query synthesized locally when the user sent it.
type Entry struct {
	ID    uuid.UUID `json:"id"`
	Index int       `json:"index"`
	Time  time.Time `json:"time"`
	Local bool      `json:"local,omitempty"`
	Event
}

////////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (e Entry) String() string {
	return Stringify(e)
}

package schema

import (
	// Packages
	agentchat "github.com/mutablelogic/go-agentchat"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Status is the connection status of a session.
type Status int

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	StatusDisconnected Status = iota
	StatusConnected
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

func (s Status) String() string {
	switch s {
	case StatusConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	switch string(text) {
	case "connected":
		*s = StatusConnected
	case "disconnected":
		*s = StatusDisconnected
	default:
		return agentchat.ErrBadParameter.Withf("status %q", string(text))
	}
	return nil
}

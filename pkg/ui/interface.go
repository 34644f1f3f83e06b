// Package ui defines what a chat front end needs from a session.
//
// A front end renders the transcript as it grows, reflects the connection
// status, and dispatches queries typed by the user. It never touches the
// channel to the agent server directly.
package ui

import (
	// Packages
	conn "github.com/mutablelogic/go-agentchat/pkg/conn"
	schema "github.com/mutablelogic/go-agentchat/pkg/schema"
	transcript "github.com/mutablelogic/go-agentchat/pkg/transcript"
)

///////////////////////////////////////////////////////////////////////////////
// INTERFACES

// Session is the part of a chat session a front end drives.
// *session.Session satisfies this interface.
type Session interface {
	// Send dispatches a query. It fails when the query is blank or the
	// session is not connected, and nothing is recorded in either case.
	Send(query string) error

	// Status returns the current connection status.
	Status() schema.Status

	// OnStatus registers an observer for status transitions. The observer
	// is called synchronously and must not block.
	OnStatus(conn.StatusObserver)

	// Transcript returns the transcript the front end renders.
	Transcript() *transcript.Store
}

package main

import (
	"context"

	// Packages
	session "github.com/mutablelogic/go-agentchat/pkg/session"
	bubbletea "github.com/mutablelogic/go-agentchat/pkg/ui/bubbletea"
	log "goa.design/clue/log"
	errgroup "golang.org/x/sync/errgroup"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

type ChatCmd struct{}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

func (cmd *ChatCmd) Run(globals *Globals) error {
	// The terminal belongs to the UI, so logs go to the file or nowhere
	ctx := globals.quiet(globals.ctx)

	endpoint, dialer, err := globals.endpoint()
	if err != nil {
		return err
	}
	s := session.New(dialer)
	defer s.Close()

	term, err := bubbletea.New(s, bubbletea.WithSuggestions(endpoint, globals.config.Candidates()))
	if err != nil {
		return err
	}

	// Run the UI while connecting, and stop connecting when the UI exits
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return term.Run(ctx)
	})
	g.Go(func() error {
		// A failed connection leaves the UI disconnected rather than exiting
		if err := s.Open(ctx, endpoint); err != nil && ctx.Err() == nil {
			log.Error(ctx, err, log.KV{K: "msg", V: "unable to connect"}, log.KV{K: "url", V: endpoint})
		}
		return nil
	})
	return g.Wait()
}

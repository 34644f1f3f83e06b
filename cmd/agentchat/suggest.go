package main

import (
	"fmt"
	"os"

	// Packages
	agentchat "github.com/mutablelogic/go-agentchat"
	suggest "github.com/mutablelogic/go-agentchat/pkg/suggest"
	table "github.com/mutablelogic/go-agentchat/pkg/ui/table"
	term "golang.org/x/term"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

type SuggestCmd struct {
	Count int `name:"count" short:"n" default:"5" help:"Number of suggestions (at most 5)"`
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

func (cmd *SuggestCmd) Run(globals *Globals) error {
	if cmd.Count < 1 {
		return agentchat.ErrBadParameter.Withf("invalid count: %d", cmd.Count)
	}
	suggestions := suggest.Sample(globals.config.Candidates(), min(cmd.Count, suggest.MaxSuggestions))

	// A table on a terminal, or one per line
	if term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Println(table.Render(table.Suggestions(suggestions)))
		return nil
	}
	for _, suggestion := range suggestions {
		fmt.Println(suggestion)
	}
	return nil
}

package main

import (
	"fmt"

	// Packages
	version "github.com/mutablelogic/go-agentchat/pkg/version"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

type VersionCmd struct{}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

func (cmd *VersionCmd) Run(globals *Globals) error {
	fmt.Println(version.Get(execName()))
	return nil
}

// Package version reports how the binary was built, from values set with
// -ldflags and from the build information embedded by the toolchain.
package version

import (
	"runtime"
	"runtime/debug"

	// Packages
	schema "github.com/mutablelogic/go-agentchat/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Info describes a build.
type Info struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Tag       string `json:"tag,omitempty"`
	Branch    string `json:"branch,omitempty"`
	Hash      string `json:"hash,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
	Modified  bool   `json:"modified,omitempty"`
	Source    string `json:"source,omitempty"`
	Platform  string `json:"platform,omitempty"`
	Compiler  string `json:"compiler"`
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

// Set with -ldflags "-X"
var (
	GitTag    string
	GitBranch string
)

const (
	shortHash = 12
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Version returns the tag, or branch, or short commit hash the binary was
// built from, or "dev" when none is known.
func Version() string {
	return Get("").Version
}

// Get returns the build information for the named executable.
func Get(name string) Info {
	info := Info{
		Name:     name,
		Tag:      GitTag,
		Branch:   GitBranch,
		Compiler: runtime.Version(),
	}

	var goos, goarch string
	if build, ok := debug.ReadBuildInfo(); ok {
		info.Source = build.Main.Path
		for _, s := range build.Settings {
			switch s.Key {
			case "vcs.revision":
				info.Hash = s.Value
			case "vcs.time":
				info.BuildTime = s.Value
			case "vcs.modified":
				info.Modified = s.Value == "true"
			case "GOOS":
				goos = s.Value
			case "GOARCH":
				goarch = s.Value
			}
		}
	}
	if goos != "" && goarch != "" {
		info.Platform = goos + "/" + goarch
	}

	switch {
	case info.Tag != "":
		info.Version = info.Tag
	case info.Branch != "":
		info.Version = info.Branch
	case len(info.Hash) > shortHash:
		info.Version = info.Hash[:shortHash]
	case info.Hash != "":
		info.Version = info.Hash
	default:
		info.Version = "dev"
	}
	return info
}

///////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (i Info) String() string {
	return schema.Stringify(i)
}

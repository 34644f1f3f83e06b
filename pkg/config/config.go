// Package config resolves where the agent server lives, from a YAML file
// and command-line overrides.
package config

import (
	"errors"
	"io"
	"net"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"

	// Packages
	agentchat "github.com/mutablelogic/go-agentchat"
	suggest "github.com/mutablelogic/go-agentchat/pkg/suggest"
	yaml "gopkg.in/yaml.v3"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Config is the client configuration. URL, when set, is used verbatim;
// otherwise the endpoint is built from the remaining fields.
type Config struct {
	URL         string   `yaml:"url" json:"url,omitempty"`
	Host        string   `yaml:"host" json:"host,omitempty"`
	Port        uint     `yaml:"port" json:"port,omitempty"`
	Secure      bool     `yaml:"secure" json:"secure,omitempty"`
	Path        string   `yaml:"path" json:"path,omitempty"`
	Suggestions []string `yaml:"suggestions" json:"suggestions,omitempty"`
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const (
	DefaultHost = "localhost"
	DefaultPath = "/ws"

	// Agent servers on a local or bare-address host listen here; anything
	// else is assumed to sit behind a proxy on the default port.
	DirectPort = 3031
)

// Four dotted runs of digits, without range checks
var reDottedQuad = regexp.MustCompile(`^\d+\.\d+\.\d+\.\d+$`)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Host: DefaultHost,
		Path: DefaultPath,
	}
}

// Load reads a YAML configuration from path over the defaults. An empty
// path returns the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

// Read decodes a YAML configuration over the defaults. Unknown keys are
// an error.
func Read(r io.Reader) (*Config, error) {
	c := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, agentchat.ErrBadParameter.Withf("config: %v", err)
	}
	return c, nil
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Merge sets every non-zero field of other on the configuration.
func (c *Config) Merge(other Config) {
	if other.URL != "" {
		c.URL = other.URL
	}
	if other.Host != "" {
		c.Host = other.Host
	}
	if other.Port != 0 {
		c.Port = other.Port
	}
	if other.Secure {
		c.Secure = true
	}
	if other.Path != "" {
		c.Path = other.Path
	}
	if len(other.Suggestions) > 0 {
		c.Suggestions = other.Suggestions
	}
}

// Endpoint returns the WebSocket URL of the agent server.
func (c *Config) Endpoint() (string, error) {
	if c.URL != "" {
		return c.URL, nil
	}

	host := strings.TrimSpace(c.Host)
	if host == "" {
		return "", agentchat.ErrBadParameter.With("missing host")
	}
	u := url.URL{
		Scheme: "ws",
		Host:   host,
		Path:   c.Path,
	}
	if c.Secure {
		u.Scheme = "wss"
	}
	if u.Path == "" {
		u.Path = DefaultPath
	} else if !strings.HasPrefix(u.Path, "/") {
		u.Path = "/" + u.Path
	}

	port := c.Port
	if port == 0 && isDirect(host) {
		port = DirectPort
	}
	if port != 0 {
		u.Host = net.JoinHostPort(host, strconv.FormatUint(uint64(port), 10))
	}

	return u.String(), nil
}

// Candidates returns the configured suggestions, or the built-in ones.
func (c *Config) Candidates() []string {
	if len(c.Suggestions) > 0 {
		return c.Suggestions
	}
	return suggest.Defaults
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// isDirect is true for localhost and dotted-quad hosts
func isDirect(host string) bool {
	return host == "localhost" || reDottedQuad.MatchString(host)
}

package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	// Packages
	kong "github.com/alecthomas/kong"
	config "github.com/mutablelogic/go-agentchat/pkg/config"
	transport "github.com/mutablelogic/go-agentchat/pkg/transport"
	log "goa.design/clue/log"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

type Globals struct {
	// Debugging
	Debug   bool   `name:"debug" help:"Enable debug output"`
	LogFile string `name:"log-file" type:"path" help:"Append logs to a file (the chat command discards them otherwise)"`

	// Configuration
	Config   string `name:"config" type:"path" env:"AGENTCHAT_CONFIG" help:"YAML configuration file"`
	Endpoint `embed:"" help:"Agent server"`

	// Context
	ctx    context.Context
	config *config.Config
	logw   io.WriteCloser
}

type Endpoint struct {
	URL    string `name:"url" env:"AGENTCHAT_URL" help:"Agent server WebSocket URL, overriding the other endpoint flags"`
	Host   string `name:"host" help:"Agent server host"`
	Port   uint   `name:"port" help:"Agent server port (3031 for local addresses when not set)"`
	Secure bool   `name:"secure" help:"Connect with wss://"`
	Path   string `name:"path" help:"WebSocket path"`

	// Dialer
	ConnectTimeout time.Duration     `name:"connect-timeout" default:"10s" help:"Maximum time for the WebSocket handshake"`
	WriteTimeout   time.Duration     `name:"write-timeout" default:"10s" help:"Maximum time to send a query"`
	Header         map[string]string `name:"header" help:"Extra handshake header, as key=value (repeatable)"`
}

type CLI struct {
	Globals

	// Commands
	Chat    ChatCmd    `cmd:"" default:"1" help:"Start an interactive chat"`
	Ask     AskCmd     `cmd:"" help:"Ask a single question and print the agent's reasoning and answer"`
	Suggest SuggestCmd `cmd:"" help:"Suggest some questions to ask"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

////////////////////////////////////////////////////////////////////////////////
// MAIN

func main() {
	// Create a cli parser
	cli := CLI{}
	cmd := kong.Parse(&cli,
		kong.Name(execName()),
		kong.Description("Chat with a reasoning agent over a WebSocket"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
		kong.Vars{},
	)

	// Create a context
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Set up logging
	ctx, err := cli.Globals.logger(ctx)
	cmd.FatalIfErrorf(err)
	defer cli.Globals.close()
	cli.Globals.ctx = ctx

	// Read the configuration, then apply flags over it
	cfg, err := config.Load(cli.Config)
	cmd.FatalIfErrorf(err)
	cfg.Merge(config.Config{
		URL:    cli.URL,
		Host:   cli.Host,
		Port:   cli.Port,
		Secure: cli.Secure,
		Path:   cli.Path,
	})
	cli.Globals.config = cfg

	// Run the command
	if err := cmd.Run(&cli.Globals); err != nil {
		log.Error(ctx, err)
		cmd.FatalIfErrorf(err)
		return
	}
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func execName() string {
	// The name of the executable
	name, err := os.Executable()
	if err != nil {
		panic(err)
	} else {
		return filepath.Base(name)
	}
}

// logger returns a context which logs to stderr, or to the log file
func (g *Globals) logger(ctx context.Context) (context.Context, error) {
	var w io.Writer = os.Stderr
	format := log.FormatJSON
	if g.LogFile != "" {
		f, err := os.OpenFile(g.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, err
		}
		g.logw, w = f, f
	} else if log.IsTerminal() {
		format = log.FormatTerminal
	}

	ctx = log.Context(ctx, log.WithFormat(format), log.WithOutput(w))
	if g.Debug {
		ctx = log.Context(ctx, log.WithDebug())
		log.Debugf(ctx, "debug logs enabled")
	}
	return ctx, nil
}

// quiet returns a context which discards logs, unless they go to a file
func (g *Globals) quiet(ctx context.Context) context.Context {
	if g.logw != nil {
		return ctx
	}
	return log.Context(ctx, log.WithOutput(io.Discard))
}

func (g *Globals) close() {
	if g.logw != nil {
		g.logw.Close()
	}
}

// endpoint returns the agent server URL and a dialer for it
func (g *Globals) endpoint() (string, transport.Dialer, error) {
	endpoint, err := g.config.Endpoint()
	if err != nil {
		return "", nil, err
	}
	opts := []transport.Opt{
		transport.WithHandshakeTimeout(g.ConnectTimeout),
		transport.WithWriteTimeout(g.WriteTimeout),
	}
	for key, value := range g.Header {
		opts = append(opts, transport.WithHeader(key, value))
	}
	dialer, err := transport.NewWebSocketDialer(opts...)
	if err != nil {
		return "", nil, err
	}
	return endpoint, dialer, nil
}

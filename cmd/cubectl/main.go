// Command cubectl is a control panel for TheCube.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"cube-panel/client"
	"cube-panel/pairing"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

var errUsage = errors.New("usage")

func usage(w io.Writer) {
	fmt.Fprintf(w, `cubectl: TheCube control panel
Usage:
  cubectl [-addr HOST:PORT] [-client-id ID] [-timeout D] [-v] <cmd> [args]

Dashboard:
  status                                  device snapshot
  logs       [-n N]                       recent log lines
  watch      [-for D] [-clock]            poll status (3s) and logs (1.5s)
  events                                  stream live device events
  restart
  mode       local|cloud

Wi-Fi:
  scan
  wifi       -ssid S [-password P] [-mode dhcp|static -ip A -gw A -dns A]

Reminders:
  reminders  [list]
  reminders  add  [-when PHRASE] [-at HH:MM] <text>
  reminders  edit -id N [-when PHRASE] [-at HH:MM] <text>
  reminders  rm   -id N
  reminders  export [-o FILE]

Cube:
  send       -to CUBE <message>
  messages
  personality [set <trait> <0-10>]
  trigger    <event>

Device API:
  endpoints                               list the device's endpoints
  call       <Category-name> [key=value ...]
  pair       [-display]                   request a code and authenticate
  auth       <code>                       authenticate with a displayed code
  logout
  whoami
  version
`)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}

// main wires signals and exit codes around run.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout)
	if errors.Is(err, errUsage) {
		usage(os.Stderr)
		os.Exit(2)
	}
	if err != nil {
		fail(err)
	}
}

type app struct {
	in       io.Reader
	out      io.Writer
	client   *client.Client
	log      *zap.Logger
	clientID string
	tokens   pairing.TokenStore
	now      func() time.Time
}

func run(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	fs := flag.NewFlagSet("cubectl", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	addr := fs.String("addr", envOr("CUBE_ADDR", "thecube.local:55280"), "device address")
	clientID := fs.String("client-id", os.Getenv("CUBE_CLIENT_ID"), "pairing client id (default: saved uuid)")
	timeout := fs.Duration("timeout", 0, "per-request timeout (0 waits for the transport)")
	verbose := fs.Bool("v", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() < 1 {
		return errUsage
	}

	log := zap.NewNop()
	if *verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		log = l
	}
	defer log.Sync()

	opts := []client.Option{client.WithLogger(log)}
	if *timeout > 0 {
		opts = append(opts, client.WithTimeout(*timeout))
	}

	a := &app{
		in:       in,
		out:      out,
		client:   client.New(*addr, opts...),
		log:      log,
		clientID: *clientID,
		tokens:   pairing.DefaultCookieFile(),
		now:      time.Now,
	}
	return a.dispatch(ctx, fs.Arg(0), fs.Args()[1:])
}

func (a *app) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "version":
		fmt.Fprintf(a.out, "cubectl %s (%s)\n", version, buildDate)
		return nil
	case "status":
		return a.status(ctx)
	case "logs":
		return a.logs(ctx, args)
	case "watch":
		return a.watch(ctx, args)
	case "events":
		return a.events(ctx)
	case "restart":
		return a.restart(ctx)
	case "mode":
		return a.mode(ctx, args)
	case "scan":
		return a.scan(ctx)
	case "wifi":
		return a.wifi(ctx, args)
	case "reminders":
		return a.reminders(ctx, args)
	case "send":
		return a.send(ctx, args)
	case "messages":
		return a.messages(ctx)
	case "personality":
		return a.personality(ctx, args)
	case "trigger":
		return a.trigger(ctx, args)
	case "endpoints":
		return a.endpoints(ctx)
	case "call":
		return a.call(ctx, args)
	case "pair":
		return a.pair(ctx, args)
	case "auth":
		return a.auth(ctx, args)
	case "logout":
		return a.logout()
	case "whoami":
		return a.whoami()
	}
	return errUsage
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func clientIDPath() string { return filepath.Join(pairing.ConfigDir(), "client_id") }

// ensureClientID returns the configured client id, or the saved one, or a
// fresh uuid that is saved for next time.
func (a *app) ensureClientID() (string, error) {
	if a.clientID != "" {
		return a.clientID, nil
	}
	if b, err := os.ReadFile(clientIDPath()); err == nil {
		if id := strings.TrimSpace(string(b)); id != "" {
			a.clientID = id
			return id, nil
		}
	}
	id := uuid.NewString()
	if err := os.MkdirAll(pairing.ConfigDir(), 0o700); err != nil {
		return "", err
	}
	if err := os.WriteFile(clientIDPath(), []byte(id), 0o600); err != nil {
		return "", err
	}
	a.clientID = id
	return id, nil
}

func (a *app) flow() (*pairing.Flow, error) {
	id, err := a.ensureClientID()
	if err != nil {
		return nil, fmt.Errorf("client id: %w", err)
	}
	return pairing.NewFlow(a.client, a.tokens, id, a.log)
}

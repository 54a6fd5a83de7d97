package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"

	"github.com/basicauth/basicauth-go/internal/client"
	"github.com/basicauth/basicauth-go/internal/config"
	"github.com/basicauth/basicauth-go/internal/screen"
	"github.com/basicauth/basicauth-go/internal/session"
)

const sqliteSessionFile = "session.db"

// errNotified marks a command that already told the user what went wrong.
var errNotified = errors.New("failure reported")

type globalOptions struct {
	Server  string `long:"server" description:"API base URL, overrides BASICAUTH_SERVER"`
	Verbose bool   `short:"v" long:"verbose" description:"Log HTTP traffic at debug level"`
}

// app is the state shared by every subcommand for one invocation.
type app struct {
	ctx    context.Context
	opts   globalOptions
	stdout io.Writer
	stderr io.Writer

	logger *slog.Logger
	api    screen.API
	store  session.Store
	close  func()
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{ctx: ctx, stdout: stdout, stderr: stderr, close: func() {}}

	parser := flags.NewNamedParser("basicauth", flags.HelpFlag|flags.PassDoubleDash)
	if _, err := parser.AddGroup("Global options", "", &a.opts); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	for _, c := range []struct {
		name, short string
		data        any
	}{
		{"register", "Create an account", &registerCmd{app: a}},
		{"login", "Log in and list users", &loginCmd{app: a}},
		{"forgot-password", "Reset a password with the security answer", &forgotPasswordCmd{app: a}},
		{"users", "List users with the stored token", &usersCmd{app: a}},
		{"logout", "Forget the stored token", &logoutCmd{app: a}},
	} {
		if _, err := parser.AddCommand(c.name, c.short, "", c.data); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 2
		}
	}

	parser.CommandHandler = func(cmd flags.Commander, args []string) error {
		if cmd == nil {
			return nil
		}
		if err := a.open(); err != nil {
			return err
		}
		defer a.close()
		return cmd.Execute(args)
	}

	_, err := parser.ParseArgs(args)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errNotified):
		return 1
	}

	var flagsErr *flags.Error
	if errors.As(err, &flagsErr) {
		if flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(stdout, flagsErr.Message)
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return 1
}

// open loads the client configuration and builds the API client and the
// session store for the configured backend.
func (a *app) open() error {
	envErr := godotenv.Load()

	cfg := config.LoadClient()
	if a.opts.Server != "" {
		cfg.ServerURL = a.opts.Server
	}
	if a.opts.Verbose {
		cfg.LogLevel = slog.LevelDebug
	}

	a.logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	if envErr != nil {
		a.logger.Debug("no .env file found, using environment variables")
	}

	switch cfg.SessionBackend {
	case config.SessionBackendFile:
		fs, err := session.NewFileStore(cfg.StateDir)
		if err != nil {
			return err
		}
		a.store = fs
	case config.SessionBackendSQLite:
		if err := os.MkdirAll(cfg.StateDir, 0o700); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
		ss, err := session.OpenSQLiteStore(a.ctx, filepath.Join(cfg.StateDir, sqliteSessionFile))
		if err != nil {
			return fmt.Errorf("open session store: %w", err)
		}
		a.store = ss
		a.close = func() {
			if err := ss.Close(); err != nil {
				a.logger.Warn("close session store", "error", err)
			}
		}
	default:
		return fmt.Errorf("unknown session backend %q", cfg.SessionBackend)
	}

	a.logger.Debug("client configured", "server", cfg.ServerURL, "backend", cfg.SessionBackend, "state_dir", cfg.StateDir)

	a.api = client.New(cfg.ServerURL,
		client.WithTimeout(cfg.Timeout),
		client.WithLogger(a.logger),
		client.WithUserAgent("basicauth-cli"),
	)
	return nil
}

// Notify prints success notices to stdout and the rest to stderr.
func (a *app) Notify(n screen.Notice) {
	if n.Kind == screen.KindSuccess {
		fmt.Fprintln(a.stdout, n.Message)
		return
	}
	fmt.Fprintln(a.stderr, n.Message)
}

// outcome turns a screen result into the command's error.
func outcome(res screen.Result, err error) error {
	if err != nil {
		return err
	}
	if res.Notice.Kind == screen.KindFailure || res.Notice.Kind == screen.KindValidation {
		return errNotified
	}
	return nil
}

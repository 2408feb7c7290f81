package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexjbarnes/farmdesk/internal/config"
	"github.com/alexjbarnes/farmdesk/internal/farmapi"
	"github.com/alexjbarnes/farmdesk/internal/logging"
	"github.com/alexjbarnes/farmdesk/internal/resources"
	"github.com/alexjbarnes/farmdesk/internal/session"
	"github.com/alexjbarnes/farmdesk/internal/state"
)

var Version = "dev"

const usage = `usage: farmdesk <command> [arguments]

commands:
  login                     sign in with username, password and emailed OTP
  logout                    forget the stored session
  whoami                    show the signed-in user
  dashboard                 record counts and team for your industry
  list <kind> [-q text]     list bookings, vendors, orders or stock
  get <kind> <id>           show one record
  create <kind> k=v ...     create a record (k:=json for non-string values)
  update <kind> <id> k=v .. change fields and show the difference
  delete <kind> <id>        delete a record
  version                   print the version
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}

		fmt.Fprintf(os.Stderr, "error: %s\n", session.UserMessage(err))
		os.Exit(1)
	}
}

// app holds everything a command needs.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	state  *state.State
	ctrl   *session.Controller
	svc    *resources.Service
	format resources.Format
	out    io.Writer
	prompt *prompter
}

func run(args []string) error {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return flag.ErrHelp
	}

	switch args[0] {
	case "help", "-h", "--help":
		fmt.Print(usage)
		return nil
	}

	if args[0] == "version" {
		fmt.Println(Version)
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := logging.NewLogger(os.Stderr, cfg.IsProduction(), logging.ParseLevel(cfg.LogLevel))
	client := farmapi.NewClient(cfg.APIURL, nil)
	logStartup(logger, cfg, client)

	format, err := resources.ParseFormat(cfg.Output)
	if err != nil {
		return err
	}

	var st *state.State
	if cfg.StatePath != "" {
		st, err = state.LoadAt(cfg.StatePath)
	} else {
		st, err = state.Load()
	}

	if err != nil {
		return fmt.Errorf("loading state: %w", err)
	}
	defer st.Close()

	ctrl := session.NewController(client, st, logger)
	gateway := farmapi.NewGateway(client, st, ctrl, logger)

	a := &app{
		cfg:    cfg,
		logger: logger,
		state:  st,
		ctrl:   ctrl,
		svc:    resources.NewService(gateway, logger),
		format: format,
		out:    os.Stdout,
		prompt: newTerminalPrompter(os.Stdin, os.Stderr),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return a.dispatch(ctx, args[0], args[1:])
}

func logStartup(logger *slog.Logger, cfg *config.Config, client *farmapi.Client) {
	logger.Debug("farmdesk starting",
		slog.String("version", Version),
		slog.String("api", client.BaseURL()),
	)

	if cfg.InsecureTransport() {
		logger.Warn("API URL uses plain HTTP to a remote host; tokens are sent unencrypted",
			slog.String("api", client.BaseURL()),
		)
	}
}

func (a *app) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "login":
		return a.login(ctx, args)
	case "logout":
		return a.logout()
	case "whoami":
		return a.whoami(ctx)
	case "dashboard":
		return a.dashboard(ctx)
	case "list", "ls":
		return a.list(ctx, args)
	case "get", "show":
		return a.get(ctx, args)
	case "create":
		return a.create(ctx, args)
	case "update":
		return a.update(ctx, args)
	case "delete", "rm":
		return a.delete(ctx, args)
	}

	fmt.Fprint(os.Stderr, usage)

	return fmt.Errorf("unknown command %q", cmd)
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexjbarnes/farmdesk/internal/config"
	apperrors "github.com/alexjbarnes/farmdesk/internal/errors"
	"github.com/alexjbarnes/farmdesk/internal/farmapi"
	"github.com/alexjbarnes/farmdesk/internal/logging"
	"github.com/alexjbarnes/farmdesk/internal/mcpserver"
	"github.com/alexjbarnes/farmdesk/internal/resources"
	"github.com/alexjbarnes/farmdesk/internal/session"
	"github.com/alexjbarnes/farmdesk/internal/state"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var Version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(Version)
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Stdout carries the MCP transport, so logs always go to stderr.
	logger := logging.NewLogger(os.Stderr, cfg.IsProduction(), logging.ParseLevel(cfg.LogLevel)).
		With(slog.String("service", "mcp"))
	client := farmapi.NewClient(cfg.APIURL, nil)

	if cfg.InsecureTransport() {
		logger.Warn("API URL uses plain HTTP to a remote host; tokens are sent unencrypted",
			slog.String("api", client.BaseURL()),
		)
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
	svc := resources.NewService(gateway, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tools resume lazily, so a missing session is only a warning here.
	if err := ctrl.Resume(ctx); err != nil {
		if !errors.Is(err, apperrors.ErrNotAuthenticated) {
			logger.Warn("stored session not usable", slog.String("error", err.Error()))
		} else {
			logger.Warn("not logged in; run 'farmdesk login' before using the tools")
		}
	}

	server := mcp.NewServer(
		&mcp.Implementation{Name: "farmdesk-mcp", Version: Version},
		nil,
	)
	mcpserver.RegisterTools(server, svc, ctrl)

	logger.Info("serving MCP over stdio", slog.String("version", Version), slog.String("api", client.BaseURL()))

	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("MCP server error: %w", err)
	}

	return nil
}

// Package cli is the command-line surface of chainlens: a long-running
// serve command plus one-shot query, analytics, and key-validation commands.
package cli

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/gabapcia/chainlens/internal/explorer"
	"github.com/gabapcia/chainlens/internal/handlers/httpapi"
)

// Run initializes and executes the chainlens CLI application.
//
// It registers all available commands, including:
//
//   - `serve`: Starts the HTTP API server.
//   - `search`: Resolves a raw query speculatively across candidate chains.
//   - `address`, `tx`, `block`, `token`: One-shot entity lookups.
//   - `analytics`: Computes a derived network snapshot for one chain.
//   - `validate-key`: Checks the configured key for a chain's explorer API.
func Run(ctx context.Context, svc *explorer.Service, server *httpapi.Server, httpAddr string) error {
	app := &cli.Command{
		EnableShellCompletion: true,
		Name:                  "chainlens",
		Description:           "Command-line interface for querying normalized multi-chain data.",
		Usage:                 "chainlens [command] [flags]",
		Commands: []*cli.Command{
			serveCommand(server, httpAddr),
			searchCommand(svc),
			addressCommand(svc),
			transactionCommand(svc),
			blockCommand(svc),
			tokenCommand(svc),
			analyticsCommand(svc),
			validateKeyCommand(svc),
		},
	}

	return app.Run(ctx, os.Args)
}

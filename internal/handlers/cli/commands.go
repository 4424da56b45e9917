package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/gabapcia/chainlens/internal/explorer"
	"github.com/gabapcia/chainlens/internal/handlers/httpapi"
	"github.com/gabapcia/chainlens/internal/pkg/resilience/retry"
	"github.com/gabapcia/chainlens/internal/source"
)

// queryRetryAttempts bounds how often a one-shot command retries a
// SourceExhausted failure. The core never retries internally; this is the
// caller-side retry the design leaves room for.
const queryRetryAttempts = 3

// queryRetrier re-issues whole lookups when every source was exhausted.
// Terminal errors (not found, bad credential, unconfigured chain) surface
// immediately.
var queryRetrier = retry.New(
	retry.WithAttempts(queryRetryAttempts),
	retry.WithRetryIf(func(err error) bool {
		return errors.Is(err, source.ErrSourceExhausted)
	}),
)

func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func withRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	return queryRetrier.Execute(ctx, func() error { return fn(ctx) })
}

func chainFlag(required bool) *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "chain",
		Usage:    "Chain id (e.g. ethereum, bitcoin, solana)",
		Required: required,
	}
}

// serveCommand returns the CLI command that runs the HTTP API server until
// interrupted.
func serveCommand(server *httpapi.Server, defaultAddr string) *cli.Command {
	return &cli.Command{
		Name:        "serve",
		Description: "Run the chainlens HTTP API server.",
		Usage:       "Starts the HTTP server and blocks until interrupted.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address",
				Value: defaultAddr,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return server.Start(ctx, c.String("addr"))
		},
	}
}

// searchCommand resolves an ambiguous query across the ranked candidate
// chains and prints every chain that actually holds the entity.
func searchCommand(svc *explorer.Service) *cli.Command {
	return &cli.Command{
		Name:        "search",
		Description: "Resolve a raw query (address, hash, or block number) across candidate chains.",
		Usage:       "chainlens search <query>",
		Action: func(ctx context.Context, c *cli.Command) error {
			query := c.Args().First()
			if query == "" {
				return fmt.Errorf("a query argument is required")
			}

			results, err := svc.Search(ctx, query)
			if err != nil {
				return err
			}

			return printJSON(results)
		},
	}
}

func addressCommand(svc *explorer.Service) *cli.Command {
	return &cli.Command{
		Name:        "address",
		Description: "Fetch the normalized view of an address on one chain.",
		Usage:       "chainlens address --chain ethereum <address>",
		Flags:       []cli.Flag{chainFlag(true)},
		Action: func(ctx context.Context, c *cli.Command) error {
			address := c.Args().First()
			if address == "" {
				return fmt.Errorf("an address argument is required")
			}

			return withRetry(ctx, func(ctx context.Context) error {
				info, err := svc.AddressInfo(ctx, c.String("chain"), address)
				if err != nil {
					return err
				}
				return printJSON(info)
			})
		},
	}
}

func transactionCommand(svc *explorer.Service) *cli.Command {
	return &cli.Command{
		Name:        "tx",
		Description: "Fetch the normalized view of a transaction on one chain.",
		Usage:       "chainlens tx --chain ethereum <hash>",
		Flags:       []cli.Flag{chainFlag(true)},
		Action: func(ctx context.Context, c *cli.Command) error {
			hash := c.Args().First()
			if hash == "" {
				return fmt.Errorf("a transaction hash argument is required")
			}

			return withRetry(ctx, func(ctx context.Context) error {
				tx, err := svc.TransactionInfo(ctx, c.String("chain"), hash)
				if err != nil {
					return err
				}
				return printJSON(tx)
			})
		},
	}
}

func blockCommand(svc *explorer.Service) *cli.Command {
	return &cli.Command{
		Name:        "block",
		Description: "Fetch the normalized view of a block on one chain.",
		Usage:       "chainlens block --chain ethereum <number>",
		Flags: []cli.Flag{
			chainFlag(true),
			&cli.UintFlag{
				Name:  "number",
				Usage: "Block number (height, slot, or checkpoint)",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			number := c.Uint("number")
			if number == 0 && c.Args().First() != "" {
				if _, err := fmt.Sscanf(c.Args().First(), "%d", &number); err != nil {
					return fmt.Errorf("block number must be a decimal integer")
				}
			}

			return withRetry(ctx, func(ctx context.Context) error {
				block, err := svc.BlockInfo(ctx, c.String("chain"), uint64(number))
				if err != nil {
					return err
				}
				return printJSON(block)
			})
		},
	}
}

func tokenCommand(svc *explorer.Service) *cli.Command {
	return &cli.Command{
		Name:        "token",
		Description: "Fetch normalized token metadata for a contract address.",
		Usage:       "chainlens token --chain ethereum <contract>",
		Flags:       []cli.Flag{chainFlag(true)},
		Action: func(ctx context.Context, c *cli.Command) error {
			contract := c.Args().First()
			if contract == "" {
				return fmt.Errorf("a contract address argument is required")
			}

			return withRetry(ctx, func(ctx context.Context) error {
				info, err := svc.TokenInfo(ctx, c.String("chain"), contract)
				if err != nil {
					return err
				}
				return printJSON(info)
			})
		},
	}
}

func analyticsCommand(svc *explorer.Service) *cli.Command {
	return &cli.Command{
		Name:        "analytics",
		Description: "Compute a derived analytics snapshot from a fresh transaction sample.",
		Usage:       "chainlens analytics --chain ethereum [--window 50]",
		Flags: []cli.Flag{
			chainFlag(true),
			&cli.IntFlag{
				Name:  "window",
				Usage: "Sample size (0 uses the chain's configured default)",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return withRetry(ctx, func(ctx context.Context) error {
				snapshot, err := svc.Analytics(ctx, c.String("chain"), int(c.Int("window")))
				if err != nil {
					return err
				}
				return printJSON(snapshot)
			})
		},
	}
}

func validateKeyCommand(svc *explorer.Service) *cli.Command {
	return &cli.Command{
		Name:        "validate-key",
		Description: "Check the configured credential against a chain's explorer API.",
		Usage:       "chainlens validate-key --chain ethereum",
		Flags:       []cli.Flag{chainFlag(true)},
		Action: func(ctx context.Context, c *cli.Command) error {
			chainID := c.String("chain")
			if err := svc.ValidateAPIKey(ctx, chainID); err != nil {
				return err
			}

			fmt.Printf("api key for %s is valid\n", chainID)
			return nil
		},
	}
}

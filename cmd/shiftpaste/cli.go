package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/infinityhardik/shiftPaste/internal/errors"
	"github.com/infinityhardik/shiftPaste/internal/index"
	"github.com/infinityhardik/shiftPaste/internal/ingest"
	"github.com/infinityhardik/shiftPaste/internal/query"
	"github.com/infinityhardik/shiftPaste/internal/store"
	"github.com/infinityhardik/shiftPaste/internal/watch"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(d *deps) *cli.App {
	app := &cli.App{
		Name:    "shiftpaste",
		Usage:   "Clipboard history and collection search",
		Version: Version,
		Commands: []*cli.Command{
			captureCmd(d),
			searchCmd(d),
			listCmd(d),
			syncCmd(d),
			watchCmd(d),
			deleteCmd(d),
			deactivateCmd(d),
			reindexCmd(d),
			checkCmd(d),
			purgeCmd(d),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// captureCmd creates the capture command.
func captureCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:      "capture",
		Usage:     "Record a clipboard observation (content as argument or piped via stdin)",
		ArgsUsage: "[content]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "source-app", Aliases: []string{"s"}, Usage: "Application the content was copied from"},
		},
		Action: func(c *cli.Context) error {
			var content string
			if c.NArg() > 0 {
				content = strings.Join(c.Args().Slice(), " ")
			} else if stdinHasData() {
				text, err := readStdin()
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				content = text
			} else {
				return outputError(errors.NewInvalidRequest("content must be given as an argument or piped via stdin"))
			}

			result, err := ingest.New(d.store, ingest.WithLogger(d.logger)).Observe(ingest.Observation{
				Content:   content,
				SourceApp: c.String("source-app"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(result)
		},
	}
}

// searchCmd creates the search command.
func searchCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Fuzzy-search clipboard history and collection entries",
		ArgsUsage: "[query]",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: query.DefaultMaxResults, Usage: "Maximum results to return"},
			&cli.StringFlag{Name: "scope", Value: "all", Usage: "Partitions to search: all|clipboard|master"},
			&cli.StringFlag{Name: "collections", Usage: "Comma-separated collection names to restrict master results"},
		},
		Action: func(c *cli.Context) error {
			out, err := d.facade.Query(query.Input{
				Query:       strings.Join(c.Args().Slice(), " "),
				MaxResults:  c.Int("limit"),
				Scope:       store.Scope(c.String("scope")),
				Collections: splitList(c.String("collections")),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(out)
		},
	}
}

// listCmd creates the list command.
func listCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List the most recent clipboard records",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: query.DefaultMaxResults, Usage: "Maximum records to return"},
		},
		Action: func(c *cli.Context) error {
			records, err := d.store.RecentClipboard(c.Int("limit"))
			if err != nil {
				return outputError(err)
			}

			return outputJSON(map[string]any{"records": records})
		},
	}
}

// syncCmd creates the sync command.
func syncCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:      "sync",
		Usage:     "Resynchronize collection entries from the collections directory",
		ArgsUsage: "[collection]",
		Action: func(c *cli.Context) error {
			if d.synchronizer == nil {
				return outputError(errors.NewInvalidRequest("no collections directory configured; set collections_dir in config.json"))
			}

			ctx := context.Background()

			if c.NArg() > 0 {
				result, err := d.synchronizer.SyncCollection(ctx, c.Args().First())
				if err != nil {
					return outputError(err)
				}
				return outputJSON(result)
			}

			names, err := d.provider.Collections()
			if err != nil {
				return outputError(err)
			}
			results, err := d.synchronizer.SyncAll(ctx, names)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"results": results})
		},
	}
}

// watchCmd creates the watch command.
func watchCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Watch the collections directory and sync changed collections until interrupted",
		Action: func(c *cli.Context) error {
			if d.synchronizer == nil {
				return outputError(errors.NewInvalidRequest("no collections directory configured; set collections_dir in config.json"))
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// Sync everything once up front so the store reflects the
			// current files before we start reacting to changes.
			names, err := d.provider.Collections()
			if err != nil {
				return outputError(err)
			}
			if _, err := d.synchronizer.SyncAll(ctx, names); err != nil {
				return outputError(err)
			}

			w := watch.New(d.cfg.CollectionsDir, watch.WithLogger(d.logger))

			errCh := make(chan error, 1)
			go func() { errCh <- w.Run(ctx) }()

			d.synchronizer.Run(ctx, w.Triggers())

			if err := <-errCh; err != nil && ctx.Err() == nil {
				return outputError(err)
			}
			return nil
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a clipboard record by id",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id, err := parseID(c)
			if err != nil {
				return outputError(err)
			}

			if err := d.store.DeleteClipboard(id); err != nil {
				return outputError(err)
			}

			return outputJSON(map[string]any{"deleted": id})
		},
	}
}

// deactivateCmd creates the deactivate command.
func deactivateCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:      "deactivate",
		Usage:     "Deactivate a collection entry by id (hidden from search, kept in store)",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			id, err := parseID(c)
			if err != nil {
				return outputError(err)
			}

			if err := d.store.DeactivateMaster(id); err != nil {
				return outputError(err)
			}

			return outputJSON(map[string]any{"deactivated": id})
		},
	}
}

// reindexCmd creates the reindex command.
func reindexCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:  "reindex",
		Usage: "Rebuild the lexical index from the record tables",
		Action: func(c *cli.Context) error {
			if err := index.Rebuild(d.store.DB()); err != nil {
				return outputError(err)
			}
			if err := index.Verify(d.store.DB()); err != nil {
				return outputError(err)
			}

			return outputJSON(map[string]any{"reindexed": true})
		},
	}
}

// checkCmd creates the check command.
func checkCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "Validate stored records; corrupt partitions are reset and reported",
		Action: func(c *cli.Context) error {
			reports, err := d.store.CheckIntegrity()
			if err != nil {
				return outputError(err)
			}

			return outputJSON(map[string]any{
				"ok":      len(reports) == 0,
				"reports": reports,
			})
		},
	}
}

// purgeCmd creates the purge command.
func purgeCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:  "purge",
		Usage: "Delete all clipboard records",
		Action: func(c *cli.Context) error {
			deleted, err := d.store.PurgeClipboard()
			if err != nil {
				return outputError(err)
			}

			return outputJSON(map[string]any{"purged": deleted})
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if storeErr, ok := err.(*errors.StoreError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", storeErr.Code, storeErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// parseID reads the required positional record id.
func parseID(c *cli.Context) (int64, error) {
	if c.NArg() < 1 {
		return 0, errors.NewInvalidRequest("id is required")
	}
	id, err := strconv.ParseInt(c.Args().First(), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NewInvalidRequest(fmt.Sprintf("invalid id %q", c.Args().First()))
	}
	return id, nil
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads all content from stdin.
func readStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// splitList splits a comma-separated string into trimmed non-empty parts.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

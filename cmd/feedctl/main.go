// Feedgraph - Media Catalog Affinity Graph and Feed Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedgraph

// Command feedctl runs one-off administrative operations against the
// feedgraph store without starting the server: ingestion, ingestion status,
// the top-rated listing and feed previews. Output is JSON on stdout.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/tomtom215/feedgraph/internal/app"
	"github.com/tomtom215/feedgraph/internal/config"
	"github.com/tomtom215/feedgraph/internal/ingest"
	"github.com/tomtom215/feedgraph/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// cli carries the global flags shared by every subcommand.
type cli struct {
	cfgFile  string
	logLevel string
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "feedctl",
		Short:         "Feedgraph administration",
		Long:          "feedctl runs ingestion and inspects the affinity graph and feeds directly against the configured store.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&c.cfgFile, "config", "", "config file path (default: CONFIG_PATH or the standard locations)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "warn", "log level written to stderr")

	root.AddCommand(c.ingestCmd(), c.statusCmd(), c.topCmd(), c.feedCmd(), c.feedsCmd())
	return root
}

// withApp loads configuration, opens the components and runs fn.
func (c *cli) withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	logging.Init(logging.Config{Level: c.logLevel, Format: "console"})

	var cfg *config.Config
	var err error
	if c.cfgFile != "" {
		cfg, err = config.LoadFromFile(c.cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := app.Open(ctx, cfg, logging.Logger())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			logging.Warn().Err(cerr).Msg("Close failed")
		}
	}()
	return fn(ctx, a)
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func (c *cli) ingestCmd() *cobra.Command {
	var rebuild, wipe bool
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Rebuild the affinity graph from the similarity scorer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				opts := ingest.Options{WipeEdges: a.Ingestor.DefaultWipe(), RebuildItems: rebuild}
				if cmd.Flags().Changed("wipe-edges") {
					opts.WipeEdges = wipe
				}
				run, err := a.Ingestor.Run(ctx, opts)
				if run != nil {
					if werr := writeJSON(cmd.OutOrStdout(), run); werr != nil {
						return werr
					}
				}
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&rebuild, "rebuild-items", false, "create missing item nodes from the catalog first")
	cmd.Flags().BoolVar(&wipe, "wipe-edges", false, "override ingest.wipe_edges for this run")
	return cmd
}

func (c *cli) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the last recorded ingestion run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				run, err := a.Ingestor.LastRun(ctx)
				if err != nil {
					return err
				}
				if run == nil {
					_, err = fmt.Fprintln(cmd.OutOrStdout(), "null")
					return err
				}
				return writeJSON(cmd.OutOrStdout(), run)
			})
		},
	}
}

func (c *cli) topCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "top",
		Short: "List items by mean incoming affinity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				rows, err := a.Graph.TopAggregate(ctx, limit)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), rows)
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of items")
	return cmd
}

func (c *cli) feedCmd() *cobra.Command {
	var anchor string
	cmd := &cobra.Command{
		Use:   "feed FEED_ID",
		Short: "Preview a ranked feed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				f, err := a.Ranker.GetFeed(ctx, args[0], anchor)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), f)
			})
		},
	}
	cmd.Flags().StringVar(&anchor, "anchor", "", "item the viewer last watched")
	return cmd
}

func (c *cli) feedsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "feeds",
		Short: "List configured feeds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd, func(_ context.Context, a *app.App) error {
				return writeJSON(cmd.OutOrStdout(), a.Ranker.FeedIDs())
			})
		},
	}
}

package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/theirongolddev/bizdash/internal/assistant"
	"github.com/theirongolddev/bizdash/internal/snapshot"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve dashboard tools to an assistant over MCP stdio",
	RunE:  runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	interval, _ := cfg.RefreshInterval()
	store := snapshot.New(newSource(), snapshot.Options{
		Interval: interval,
		Logger:   logger,
	})
	server := assistant.NewServer(store, logger)

	logger.Info("starting MCP stdio server", "source", describeSource(cfg.Source.URL))

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return store.Start(ctx)
	})
	g.Go(func() error {
		// Client disconnect ends the session; stop the refresh loop with it.
		defer cancel()
		if err := assistant.ServeStdio(ctx, server); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	return g.Wait()
}

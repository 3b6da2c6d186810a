package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/RivalSee/botsee-skill/internal/mcpserver"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the BotSee MCP server (stdio transport)",
	Long: `Serve BotSee operations as MCP tools over stdio so a coding agent
can run analyses and fetch results directly. Requires a saved API key.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		store := openHistory()
		if store != nil {
			defer store.Close()
		}

		srv := mcpserver.New(mcpserver.Deps{
			Client:  client,
			History: store,
			Version: version,
		})
		slog.Info("MCP server started (stdio transport)")

		if err := server.NewStdioServer(srv).Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

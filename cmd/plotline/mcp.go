package main

import (
	"context"

	"github.com/aretw0/plotline/internal/cli"
	"github.com/aretw0/plotline/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the Model Context Protocol server",
	Long: `Exposes the engine as MCP tools (list_plans, describe_plan, turn, inspect_session)
over stdio, or over SSE with --sse.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sse, _ := cmd.Flags().GetBool("sse")
		port, _ := cmd.Flags().GetInt("port")

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		opts := optionsFromFlags(cmd)
		logger, err := cli.NewLogger(opts.Debug, opts.LogLevel)
		if err != nil {
			return err
		}
		engine, cleanup, err := cli.CreateEngine(sigCtx, opts, logger)
		if err != nil {
			return err
		}
		defer cleanup()

		server := mcp.NewServer(engine, mcp.WithLogger(logger))
		if sse {
			return server.ServeSSE(sigCtx, port)
		}
		return server.ServeStdio()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().Bool("sse", false, "Serve over SSE instead of stdio")
	mcpCmd.Flags().Int("port", 8081, "Port for the SSE transport")
}

package main

import (
	"context"
	"log"
	"os"

	"github.com/aretw0/telelab"
	"github.com/aretw0/telelab/internal/cli"
	"github.com/aretw0/telelab/pkg/adapters/mcp"
	"github.com/aretw0/telelab/pkg/workflow"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the experiment workflow as MCP tools over Standard Input/Output,
so an agent can open an experiment, arm the device, poll and submit.
Log in first with 'telelab login'; logs go to Stderr.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Ensure logs don't corrupt JSON-RPC on Stdout
		log.SetOutput(os.Stderr)

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		client, _, logger, done, err := getClient(cmd)
		if err != nil {
			return err
		}
		defer done()

		srv := mcp.NewServer(func(ctx context.Context, id int) (mcp.Workflow, error) {
			// Polling outlives the tool call that starts it.
			wf, err := client.Workflow(ctx, id, workflow.WithContext(sigCtx))
			if err != nil {
				return nil, err
			}
			return wf, nil
		},
			mcp.WithRelays(client.IOTester()),
			mcp.WithCatalog(client.Catalog()),
			mcp.WithVersion(telelab.Version),
			mcp.WithLogger(logger),
		)
		defer srv.Close()

		logger.Info("Starting Telelab MCP Server (Stdio)...")
		return srv.ServeStdio()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

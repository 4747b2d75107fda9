package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/telelab/internal/cli"
	"github.com/aretw0/telelab/internal/logging"
	"github.com/aretw0/telelab/pkg/adapters/simulator"
	"github.com/spf13/cobra"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Serve a simulated lab device and backend",
	Long: `Starts an in-memory device and practicum backend over HTTP, validated against the
embedded OpenAPI document (GET /openapi.yaml). Point device_url at the address and
api_url at <address>/api/.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		users, _ := cmd.Flags().GetStringSlice("user")
		rows, _ := cmd.Flags().GetInt("rows-per-read")
		level, _ := cmd.Flags().GetString("log-level")

		logger := logging.New(logging.ParseLevel(level))
		opts := []simulator.Option{
			simulator.WithLogger(logger),
			simulator.WithRowsPerRead(rows),
		}
		for _, u := range users {
			email, password, ok := strings.Cut(u, ":")
			if !ok {
				return fmt.Errorf("invalid --user %q (want email:password)", u)
			}
			opts = append(opts, simulator.WithUser(email, password))
		}

		sim, err := simulator.New(opts...)
		if err != nil {
			return err
		}

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		fmt.Printf("Simulated device on http://%s, backend on http://%s/api/\n", displayAddr(addr), displayAddr(addr))
		return cli.Serve(sigCtx, addr, sim, logger)
	},
}

func displayAddr(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "localhost" + addr
	}
	return addr
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().String("addr", ":8080", "Address to listen on")
	simulateCmd.Flags().StringSlice("user", nil, "Accepted login as email:password (repeatable; any login when empty)")
	simulateCmd.Flags().Int("rows-per-read", 0, "Reveal this many truth table rows per read (0 reveals all)")
}

package main

import (
	"context"
	"os"

	"github.com/aretw0/telelab/internal/cli"
	"github.com/spf13/cobra"
)

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Toggle device relays and watch the device inputs",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, cfg, _, done, err := getClient(cmd)
		if err != nil {
			return err
		}
		defer done()

		period := cfg.InputPollInterval
		if cmd.Flags().Changed("period") {
			period, _ = cmd.Flags().GetDuration("period")
		}

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		err = cli.RunIOTest(sigCtx, client.IOTester(), period, os.Stdin, os.Stdout)
		if sigCtx.Err() != nil {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(testCmd)
	testCmd.Flags().Duration("period", 0, "Input polling period (default from config)")
}

package main

import (
	"github.com/aretw0/telelab/internal/cli"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run an experiment interactively",
	Long: `Loads the experiment descriptor, prints its input table and accepts the commands
setup, start, restart, send, show, graph and quit. Notifications and new rows are
printed as they arrive.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
			cfg.MetricsAddr = addr
		}

		opts := cli.RunOptions{}
		opts.Module, _ = cmd.Flags().GetInt("module")
		opts.Experiment, _ = cmd.Flags().GetInt("experiment")
		opts.AutoStart, _ = cmd.Flags().GetBool("auto-start")
		opts.Quiet, _ = cmd.Flags().GetBool("quiet")
		return cli.Execute(cfg, opts)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().IntP("module", "m", -1, "Module to select (default: the stored one)")
	runCmd.Flags().IntP("experiment", "e", 0, "Experiment number")
	runCmd.Flags().Bool("auto-start", false, "Arm the device and start polling right away")
	runCmd.Flags().BoolP("quiet", "q", false, "No banner, help or progress messages")
	runCmd.Flags().String("metrics-addr", "", "Expose Prometheus metrics on this address (e.g. :9090)")
	_ = runCmd.MarkFlagRequired("experiment")
}

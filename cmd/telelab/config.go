package main

import (
	"os"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long:  `Prints the settings after merging defaults, the config file, TELELAB_* environment variables and flags.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cfg.Store.RedisPassword != "" {
			cfg.Store.RedisPassword = "********"
		}
		if cfg.Store.EncryptionKey != "" {
			cfg.Store.EncryptionKey = "********"
		}
		for i := range cfg.Store.FallbackKeys {
			cfg.Store.FallbackKeys[i] = "********"
		}
		out, err := cfg.Marshal()
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(out)
		return err
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}

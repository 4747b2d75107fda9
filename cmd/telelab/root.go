package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/telelab"
	"github.com/aretw0/telelab/internal/cli"
	"github.com/aretw0/telelab/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "telelab",
	Short: "Telelab drives remote digital-logic lab experiments",
	Long: `Telelab logs you into the practicum backend, arms the lab device for an experiment,
polls the truth table it measures and submits the result.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", config.DefaultPath, "Config file (YAML or JSON)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("device-url", "", "Device base URL")
	rootCmd.PersistentFlags().String("api-url", "", "Backend base URL")
	rootCmd.PersistentFlags().String("store", "", "Session store driver: memory, file or redis")
}

// loadConfig reads the config file and applies the persistent flag overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("device-url") {
		cfg.DeviceURL, _ = flags.GetString("device-url")
	}
	if flags.Changed("api-url") {
		cfg.APIURL, _ = flags.GetString("api-url")
	}
	if flags.Changed("store") {
		cfg.Store.Driver, _ = flags.GetString("store")
	}
	return cfg, cfg.Validate()
}

// getClient builds a client from the command's configuration.
// The returned function closes the client and the log file.
func getClient(cmd *cobra.Command, opts ...telelab.Option) (*telelab.Client, config.Config, *slog.Logger, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, cfg, nil, nil, err
	}
	logger, closeLog, err := cli.NewLogger(cfg.Log)
	if err != nil {
		return nil, cfg, nil, nil, err
	}
	client, err := cli.NewClient(cfg, logger, opts...)
	if err != nil {
		closeLog()
		return nil, cfg, nil, nil, err
	}
	return client, cfg, logger, func() {
		_ = client.Close()
		closeLog()
	}, nil
}

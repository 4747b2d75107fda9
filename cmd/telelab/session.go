package main

import (
	"fmt"
	"os"
	"slices"

	"github.com/aretw0/telelab/internal/cli"
	"github.com/aretw0/telelab/pkg/adapters/file"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:     "session",
	Aliases: []string{"sessions"},
	Short:   "Manage the session store",
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List stored keys (and file store profiles)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		p, err := cli.NewPersistence(cfg.Store)
		if err != nil {
			return err
		}
		if p.Closer != nil {
			defer p.Closer.Close()
		}

		if cfg.Store.Driver == "file" {
			profiles, err := file.Profiles(cfg.Store.Path)
			if err != nil {
				return fmt.Errorf("error listing profiles: %w", err)
			}
			for _, profile := range profiles {
				mark := " "
				if profile == cfg.Store.Profile {
					mark = "*"
				}
				fmt.Printf("%s %s\n", mark, profile)
			}
		}

		keys, err := p.Store.Keys(cmd.Context())
		if err != nil {
			return fmt.Errorf("error listing keys: %w", err)
		}
		if len(keys) == 0 {
			fmt.Println("No stored keys.")
			return nil
		}
		slices.Sort(keys)
		for _, k := range keys {
			fmt.Println(k)
		}
		return nil
	},
}

var sessionGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print a stored value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		p, err := cli.NewPersistence(cfg.Store)
		if err != nil {
			return err
		}
		if p.Closer != nil {
			defer p.Closer.Close()
		}

		value, err := p.Store.Get(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("error reading '%s': %w", args[0], err)
		}
		fmt.Println(value)
		return nil
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm [key...]",
	Short: "Remove stored keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		if !all && len(args) == 0 {
			return fmt.Errorf("give at least one key or --all")
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		p, err := cli.NewPersistence(cfg.Store)
		if err != nil {
			return err
		}
		if p.Closer != nil {
			defer p.Closer.Close()
		}

		if all {
			if err := p.Store.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("error clearing store: %w", err)
			}
			fmt.Println("Removed all keys")
			return nil
		}

		hasError := false
		for _, key := range args {
			if err := p.Store.Delete(cmd.Context(), key); err != nil {
				fmt.Fprintf(os.Stderr, "Error removing '%s': %v\n", key, err)
				hasError = true
			} else {
				fmt.Printf("Removed '%s'\n", key)
			}
		}
		if hasError {
			return fmt.Errorf("some keys could not be removed")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionGetCmd)
	sessionCmd.AddCommand(sessionRmCmd)

	sessionRmCmd.Flags().Bool("all", false, "Remove every key")
}

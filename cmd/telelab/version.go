package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/telelab"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of telelab",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("telelab version %s\n", strings.TrimSpace(telelab.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/aretw0/telelab/pkg/domain"
	"github.com/spf13/cobra"
)

var modulesCmd = &cobra.Command{
	Use:   "modules",
	Short: "List modules and experiments, optionally selecting a module",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, _, done, err := getClient(cmd)
		if err != nil {
			return err
		}
		defer done()
		ctx := cmd.Context()

		if cmd.Flags().Changed("select") {
			module, _ := cmd.Flags().GetInt("select")
			if err := client.SelectModule(ctx, module); err != nil {
				return err
			}
			fmt.Printf("Selected module %d\n", module)
		}

		selected, err := client.Session().Module(ctx)
		hasSelection := err == nil
		if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "\tMODULE\tNAME\tEXPERIMENTS")
		for _, m := range client.Catalog().Modules {
			mark := ""
			if hasSelection && m.ID == selected {
				mark = "*"
			}
			exps := make([]string, len(m.Experiments))
			for i, e := range m.Experiments {
				exps[i] = fmt.Sprint(e)
			}
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", mark, m.ID, m.Name, strings.Join(exps, ", "))
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(modulesCmd)
	modulesCmd.Flags().IntP("select", "s", 0, "Remember this module for the next runs")
}

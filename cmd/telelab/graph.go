package main

import (
	"fmt"

	"github.com/aretw0/telelab/internal/presentation/graph"
	"github.com/aretw0/telelab/pkg/workflow"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the workflow state diagram",
	Long:  `Outputs a Mermaid diagram (graph LR) of the experiment workflow states and the operations that move between them.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Print(graph.GenerateMermaid(workflow.Transitions, nil))
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/smallnest/teamgraph/internal/app"
	"github.com/smallnest/teamgraph/teams"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Print the graphs as Mermaid diagrams",
	Long:  `Prints the top graph and the graph of every team as Mermaid flowcharts.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.New(context.Background(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		plain, _ := cmd.Flags().GetBool("plain")
		printDiagrams(cmd.OutOrStdout(), a.Orchestrator.Diagrams(), plain)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().Bool("plain", false, "Print only the Mermaid source, without titles")
}

func printDiagrams(w io.Writer, diagrams []teams.Diagram, plain bool) {
	for i, d := range diagrams {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if !plain {
			fmt.Fprintln(w, titleStyle.Render(d.Name))
		}
		fmt.Fprint(w, d.Mermaid)
	}
}

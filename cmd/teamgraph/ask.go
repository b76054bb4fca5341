package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/smallnest/teamgraph/gateway"
	"github.com/smallnest/teamgraph/graph"
	"github.com/smallnest/teamgraph/internal/app"
	"github.com/smallnest/teamgraph/log"
	"github.com/smallnest/teamgraph/prebuilt"
	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question in the terminal",
	Long:  `Runs the teams on a question and prints the model output as it streams, labelled with the team and worker producing it.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("log-level") {
			log.SetDefaultLogger(log.NewServiceLogger(os.Stderr, log.LogLevelWarn))
		}
		if cmd.Flags().Changed("filter") {
			cfg.Run.StreamFilterEnabled, _ = cmd.Flags().GetBool("filter")
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		a, err := app.New(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		config := a.RunConfig("")
		fmt.Fprintln(cmd.OutOrStdout(), runStyle.Render("run "+config.RunID))

		result := a.Orchestrator.Stream(ctx, strings.Join(args, " "), config, graph.StreamConfig{
			BufferSize: cfg.Run.StreamBufferSize,
			Mode:       graph.StreamModeMessages,
		})
		filter := gateway.Filter{Enabled: cfg.Run.StreamFilterEnabled, Prefixes: cfg.Run.StreamFilterPrefixes}
		return printStream(cmd.OutOrStdout(), result, filter)
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().Bool("filter", false, "Only print workers matching STREAM_FILTER_PREFIXES; overrides STREAM_FILTER_ENABLED")
}

// printStream writes every token chunk, with a speaker label whenever the
// producing worker changes.
func printStream(w io.Writer, result *graph.StreamResult[prebuilt.MessagesState], filter gateway.Filter) error {
	defer result.Cancel()

	current := ""
	for event := range result.Events {
		if event.Event != graph.EventToken || event.Chunk == "" || !filter.Allows(event.Namespace) {
			continue
		}
		if s := speaker(event.Namespace); s != current {
			if current != "" {
				fmt.Fprintln(w)
			}
			fmt.Fprintln(w, speakerStyle.Render(s))
			current = s
		}
		fmt.Fprint(w, event.Chunk)
	}
	if current != "" {
		fmt.Fprintln(w)
	}

	state, err := result.Wait()
	if err != nil {
		return err
	}
	if last, ok := state.Last(); ok && last.Author != "" {
		fmt.Fprintln(w, runStyle.Render(fmt.Sprintf("finished after %d messages, last from %s", len(state.Messages), last.Author)))
	}
	return nil
}

// speaker names the team and worker of a namespace, leaving out the
// agent and tools nodes of the worker loop.
func speaker(namespace string) string {
	var names []string
	for _, node := range graph.NamespaceNodes(namespace) {
		if node == "agent" || node == "tools" {
			continue
		}
		names = append(names, node)
	}
	return strings.Join(names, " › ")
}

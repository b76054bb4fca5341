package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/smallnest/teamgraph/internal/app"
	"github.com/smallnest/teamgraph/log"
	"github.com/smallnest/teamgraph/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Serves GET /rest/v1/question as a Server-Sent Events stream, plus health, metrics, graph, document and checkpoint endpoints.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("host") {
			cfg.Server.Host, _ = cmd.Flags().GetString("host")
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port, _ = cmd.Flags().GetInt("port")
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := app.New(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := a.Close(); err != nil {
				log.Warn("failed to close: %v", err)
			}
		}()

		return server.New(a).ListenAndServe(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("host", "", "Host to listen on; overrides SERVER_HOST")
	serveCmd.Flags().IntP("port", "p", 0, "Port to listen on; overrides SERVER_PORT")
}

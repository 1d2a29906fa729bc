package cmd

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/BioHazard786/pairrelay/internal/config"
	"github.com/BioHazard786/pairrelay/internal/server"
	"github.com/BioHazard786/pairrelay/internal/signaling"
)

var (
	flagServeHost      string
	flagServePort      int
	flagServeKeepAlive time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the relay server",
	Long: `Start the relay server.

Flags override the HOST, PORT and KEEPALIVE_INTERVAL environment variables.

Examples:
  pairrelay serve
  pairrelay serve --port 8080
  PORT=9000 pairrelay serve --keepalive 30s`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context(), serveOptions(cmd))
	},
}

// serveOptions collects the flags the user actually set.
func serveOptions(cmd *cobra.Command) config.Options {
	opts := config.Options{Host: flagServeHost}
	if cmd.Flags().Changed("port") {
		opts.Port = &flagServePort
	}
	if cmd.Flags().Changed("keepalive") {
		opts.KeepAlive = &flagServeKeepAlive
	}
	return opts
}

func runServe(ctx context.Context, opts config.Options) error {
	cfg, err := config.Load(opts)
	if err != nil {
		return err
	}

	// 1. Create the Hub and run it until the server is done
	hub := signaling.NewHub()
	hubCtx, stopHub := context.WithCancel(context.Background())
	go hub.Run(hubCtx)
	defer func() {
		stopHub()
		<-hub.Done()
	}()

	// 2. Serve HTTP and websockets until interrupted
	slog.Info("starting relay server", "addr", cfg.Address(), "keepalive", cfg.KeepAlive)
	return server.New(cfg, hub).Start(ctx)
}

func init() {
	serveCmd.Flags().StringVar(&flagServeHost, "host", "", "Listen host (default 0.0.0.0)")
	serveCmd.Flags().IntVarP(&flagServePort, "port", "p", 0, "Listen port (default 10000)")
	serveCmd.Flags().DurationVar(&flagServeKeepAlive, "keepalive", 0, "Websocket ping interval, 0 disables")

	rootCmd.AddCommand(serveCmd)
}

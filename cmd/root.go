package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/BioHazard786/pairrelay/internal/config"
	"github.com/BioHazard786/pairrelay/internal/ui"
	"github.com/BioHazard786/pairrelay/internal/version"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pairrelay",
	Short: "Relay server that pairs two clients in a room and forwards their messages",
	Long: `pairrelay is a rendezvous point for two clients. Each client opens a websocket,
joins a room by code, and once a second client joins the same code every
message one sends is forwarded to the other. Nothing is stored.

Run without a subcommand to start the server with settings from the environment.`,
	Version: version.Version,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context(), config.Options{})
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		ui.PrintError(err.Error())
		stop()
		os.Exit(1)
	}
}

package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/BioHazard786/pairrelay/internal/config"
	"github.com/BioHazard786/pairrelay/internal/peer"
	"github.com/BioHazard786/pairrelay/internal/ui"
)

var flagStatusURL string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the health of a running relay",
	Long: `Query a relay's /health endpoint and print its status and active room count.

Examples:
  pairrelay status
  pairrelay status --url https://relay.example.com`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(config.Options{RelayURL: flagStatusURL})
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		defer cancel()

		st, err := peer.FetchStatus(ctx, cfg.RelayURL)
		if err != nil {
			return err
		}

		ui.RenderRelaySummary(ui.RelaySummary{
			URL:         st.URL,
			Status:      st.Health.Status,
			ActiveRooms: st.Health.ActiveRooms,
			Latency:     st.Latency.Round(time.Millisecond).String(),
		})
		return nil
	},
}

func init() {
	statusCmd.Flags().StringVarP(&flagStatusURL, "url", "u", "", "Relay base URL (default $RELAY_URL or http://localhost:$PORT)")

	rootCmd.AddCommand(statusCmd)
}

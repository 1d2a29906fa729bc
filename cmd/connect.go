package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/BioHazard786/pairrelay/internal/config"
	"github.com/BioHazard786/pairrelay/internal/peer"
	"github.com/BioHazard786/pairrelay/internal/signaling"
	"github.com/BioHazard786/pairrelay/internal/ui"
)

var (
	flagConnectURL     string
	flagConnectMsgpack bool
)

var errConnectionClosed = errors.New("connection to relay closed")

var connectCmd = &cobra.Command{
	Use:     "connect <room-code>",
	Aliases: []string{"c"},
	Short:   "Join a room and chat with the other participant",
	Long: `Join a room on a relay. Each line typed on stdin is sent to the other
participant; messages from the other participant are printed as they arrive.

Examples:
  pairrelay connect ABCD
  pairrelay connect ABCD --url https://relay.example.com --msgpack`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(config.Options{RelayURL: flagConnectURL})
		if err != nil {
			return err
		}

		codec := signaling.JSONCodec
		if flagConnectMsgpack {
			codec = signaling.MsgpackCodec
		}

		return runConnect(cmd.Context(), cfg.RelayURL, codec, args[0], cmd.InOrStdin())
	},
}

func runConnect(ctx context.Context, relayURL string, codec signaling.Codec, roomCode string, in io.Reader) error {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	client, err := peer.Dial(dialCtx, relayURL, codec)
	cancel()
	if err != nil {
		return err
	}
	defer client.Close()

	client.Join(roomCode)

	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			if !client.SendContent(scanner.Text()) {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case msg, ok := <-client.Incoming():
			if !ok {
				return errConnectionClosed
			}

			switch msg.Type {
			case signaling.TypeJoined:
				ui.PrintInfo(ui.JoinedView(msg.RoomCode))
			case signaling.TypeConnected:
				ui.PrintSuccessf("%s Peer connected", ui.IconConnect)
			case signaling.TypeMessage:
				ui.PrintPeer(peer.FormatContent(msg.Content))
			case signaling.TypeDisconnected:
				ui.PrintWarning(ui.IconDisconnect + " Peer disconnected")
			case signaling.TypeError:
				return fmt.Errorf("relay refused room %q: %s", msg.RoomCode, msg.Error)
			}
		}
	}
}

func init() {
	connectCmd.Flags().StringVarP(&flagConnectURL, "url", "u", "", "Relay base URL (default $RELAY_URL or http://localhost:$PORT)")
	connectCmd.Flags().BoolVar(&flagConnectMsgpack, "msgpack", false, "Use MessagePack frames instead of JSON")

	rootCmd.AddCommand(connectCmd)
}

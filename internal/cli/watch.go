package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

// watch joins a room as a spectating player and prints every event the
// server pushes until interrupted
func newWatchCmd() *cobra.Command {
	var playerName string

	watchCmd := &cobra.Command{
		Use:   "watch <room-code>",
		Short: "Join a room and tail its event stream",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			roomCode := args[0]

			conn, _, err := websocket.DefaultDialer.Dial(client.WebsocketURL(), nil)
			if err != nil {
				return fmt.Errorf("failed to connect: %w", err)
			}
			defer func() { _ = conn.Close() }()

			join := map[string]any{
				"type": "room:join",
				"payload": map[string]string{
					"roomCode":   roomCode,
					"playerName": playerName,
				},
			}
			if err := conn.WriteJSON(join); err != nil {
				return fmt.Errorf("failed to join room: %w", err)
			}

			interrupt := make(chan os.Signal, 1)
			signal.Notify(interrupt, os.Interrupt)
			done := make(chan error, 1)

			go func() {
				for {
					_, data, err := conn.ReadMessage()
					if err != nil {
						done <- err
						return
					}
					printEvent(data)
				}
			}()

			select {
			case err := <-done:
				return err
			case <-interrupt:
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return nil
			}
		},
	}

	watchCmd.Flags().StringVar(&playerName, "name", "observer", "Player name to join with")
	return watchCmd
}

func printEvent(data []byte) {
	if cfg.Output == "json" {
		fmt.Println(string(data))
		return
	}
	var env struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		fmt.Println(string(data))
		return
	}
	if cfg.Verbose {
		fmt.Printf("%-24s %s\n", env.Type, string(env.Payload))
	} else {
		fmt.Println(env.Type)
	}
}

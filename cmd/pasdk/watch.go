package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/IgorChugurov/public-api-sdk/internal/events"
)

var watchCmd = &cobra.Command{
	Use:   "watch [topic]",
	Short: "Stream entity events from NATS (default topic: entity.>)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.NATSURL == "" {
			return fmt.Errorf("watch requires PASDK_NATS_URL (or nats_url in the config file)")
		}

		topic := "entity.>"
		if len(args) == 1 {
			topic = args[0]
		}

		sub, err := events.NewNATSSubscriber(cfg.NATSURL)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		defer sub.Close()

		ch, cancel, err := sub.Subscribe(topic)
		if err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
		}
		defer cancel()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		fmt.Fprintf(os.Stderr, "Watching %s (Ctrl-C to stop)\n", topic)
		for {
			select {
			case <-ctx.Done():
				return nil
			case data, ok := <-ch:
				if !ok {
					return nil
				}
				printEvent(data)
			}
		}
	},
}

func printEvent(data []byte) {
	if jsonOutput {
		fmt.Println(string(data))
		return
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		fmt.Println(string(data))
		return
	}
	b, _ := json.MarshalIndent(m, "", "  ")
	fmt.Println(string(b))
}

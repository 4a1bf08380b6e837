package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"physica/internal/api"
	"physica/internal/ipc"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream lifecycle events from the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				cmdCtx := cmd.Context()
				var cursor uint64

				// Prime the cursor so only fresh events print.
				initial, err := client.Events(ipc.EventsRequest{Limit: 1})
				if err != nil {
					return err
				}
				cursor = initial.Next

				for {
					select {
					case <-cmdCtx.Done():
						return nil
					default:
					}
					resp, err := client.Events(ipc.EventsRequest{
						After:      cursor,
						Limit:      64,
						WaitMillis: 1000,
					})
					if err != nil {
						return fmt.Errorf("fetch events: %w", err)
					}
					cursor = resp.Next
					for _, evt := range resp.Events {
						if asJSON {
							if err := writeJSON(cmd, evt); err != nil {
								return err
							}
							continue
						}
						fmt.Fprintln(cmd.OutOrStdout(), formatEvent(evt))
					}
				}
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit one JSON object per event")
	return cmd
}

func formatEvent(evt api.Event) string {
	ts := api.ParseTime(evt.Time)
	stamp := "--:--:--"
	if !ts.IsZero() {
		stamp = ts.Local().Format("15:04:05")
	}
	parts := []string{stamp, evt.Type}
	if name := strings.TrimSpace(evt.Name); name != "" {
		parts = append(parts, name)
	} else if evt.UUID != "" {
		parts = append(parts, shortUUID(evt.UUID))
	}
	line := strings.Join(parts, " ")
	if evt.PlaytimeSeconds > 0 {
		line += fmt.Sprintf(" (%s)", api.FormatPlaytime(evt.PlaytimeSeconds))
	}
	if detail := strings.TrimSpace(evt.Detail); detail != "" {
		line += " - " + detail
	}
	return line
}

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"physica/internal/api"
	"physica/internal/ipc"
)

func newGamesCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	var presentOnly bool

	cmd := &cobra.Command{
		Use:   "games",
		Short: "List the game library",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Games()
				if err != nil {
					return err
				}
				games := resp.Games
				if presentOnly {
					filtered := games[:0]
					for _, g := range games {
						if g.Present {
							filtered = append(filtered, g)
						}
					}
					games = filtered
				}
				if asJSON {
					return writeJSON(cmd, games)
				}
				if len(games) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Library is empty")
					return nil
				}
				rows := make([][]string, 0, len(games))
				for _, g := range games {
					rows = append(rows, []string{
						shortUUID(g.UUID),
						displayName(g.Name, g.GameID),
						api.FormatPlaytime(g.PlaytimeSeconds),
						fmt.Sprintf("%d", g.PlayCount),
						lastPlayedLabel(g.LastPlayed),
						yesNo(g.Present),
					})
				}
				table := renderTable(
					[]string{"UUID", "Name", "Playtime", "Plays", "Last Played", "Inserted"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	cmd.Flags().BoolVar(&presentOnly, "present", false, "Only list games whose cartridge is inserted")
	return cmd
}

func newPlaytimeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "playtime <uuid>",
		Short: "Show accumulated playtime for a game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Playtime(strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				name := resp.Name
				if name == "" {
					name = resp.UUID
				}
				fmt.Fprintf(out, "%s\n", name)
				fmt.Fprintf(out, "  Playtime:    %s\n", api.FormatPlaytime(resp.PlaytimeSeconds))
				fmt.Fprintf(out, "  Sessions:    %d\n", resp.PlayCount)
				fmt.Fprintf(out, "  Last played: %s\n", lastPlayedLabel(resp.LastPlayed))
				return nil
			})
		},
	}
}

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show library-wide totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Stats()
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp.Stats)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Games:          %d\n", resp.Stats.TotalGames)
				fmt.Fprintf(out, "Inserted:       %d\n", resp.Stats.PresentCount)
				fmt.Fprintf(out, "Total playtime: %s\n", api.FormatPlaytime(resp.Stats.PlaytimeSeconds))
				fmt.Fprintf(out, "Play sessions:  %d\n", resp.Stats.TotalPlays)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of text")
	return cmd
}

func lastPlayedLabel(value string) string {
	ts := api.ParseTime(value)
	if ts.IsZero() {
		return "never"
	}
	return ts.Local().Format("2006-01-02 15:04")
}

package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"physica/internal/api"
	"physica/internal/ipc"
)

func newCartridgesCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "cartridges",
		Short: "List inserted cartridges",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.ListCartridges()
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, resp.Cartridges)
				}
				if len(resp.Cartridges) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No cartridges inserted")
					return nil
				}
				rows := make([][]string, 0, len(resp.Cartridges))
				for _, c := range resp.Cartridges {
					rows = append(rows, []string{
						shortUUID(c.UUID),
						displayName(c.Name, c.GameID),
						c.State,
						api.FormatPlaytime(c.PlaytimeSeconds),
						yesNo(c.AutoLaunch),
						c.MountPath,
					})
				}
				table := renderTable(
					[]string{"UUID", "Name", "State", "Playtime", "Auto", "Mount"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newLaunchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "launch <uuid>",
		Short: "Launch the game on an inserted cartridge",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Launch(strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				name := displayName(resp.Cartridge.Name, resp.Cartridge.GameID)
				if name == "" {
					name = args[0]
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Launched %s\n", name)
				return nil
			})
		},
	}
}

func newStopGameCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop-game <uuid>",
		Short: "Stop the running game on a cartridge",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.StopGame(strings.TrimSpace(args[0])); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Stop requested")
				return nil
			})
		},
	}
}

func newEjectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "eject <uuid>",
		Short: "Unmount and power off an idle cartridge",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Eject(strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				switch {
				case resp.PoweredOff:
					fmt.Fprintf(out, "Ejected %s (powered off)\n", resp.Device)
				case resp.Device != "":
					fmt.Fprintf(out, "Ejected %s\n", resp.Device)
				default:
					fmt.Fprintln(out, "Ejected")
				}
				return nil
			})
		},
	}
}

func newRefreshCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Force a cartridge detection rescan",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Refresh()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(resp.Inserted) == 0 && len(resp.Removed) == 0 {
					fmt.Fprintln(out, "No changes detected")
					return nil
				}
				if len(resp.Inserted) > 0 {
					fmt.Fprintf(out, "Inserted: %s\n", strings.Join(resp.Inserted, ", "))
				}
				if len(resp.Removed) > 0 {
					fmt.Fprintf(out, "Removed: %s\n", strings.Join(resp.Removed, ", "))
				}
				return nil
			})
		},
	}
}

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <uuid>",
		Short: "Delete a game's registry history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.RemoveFromRegistry(strings.TrimSpace(args[0])); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Registry entry removed")
				return nil
			})
		},
	}
}

func newEditCommand(ctx *commandContext) *cobra.Command {
	var name, version, publisher, genre, notes string
	var autoLaunch string

	cmd := &cobra.Command{
		Use:   "edit <uuid>",
		Short: "Edit descriptor metadata on an inserted cartridge",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch := api.MetadataPatch{}
			flags := cmd.Flags()
			if flags.Changed("name") {
				patch.Name = &name
			}
			if flags.Changed("version") {
				patch.Version = &version
			}
			if flags.Changed("publisher") {
				patch.Publisher = &publisher
			}
			if flags.Changed("genre") {
				patch.Genre = &genre
			}
			if flags.Changed("notes") {
				patch.Notes = &notes
			}
			if flags.Changed("auto-launch") {
				switch strings.ToLower(strings.TrimSpace(autoLaunch)) {
				case "on", "true", "yes":
					on := true
					patch.AutoLaunch = &on
				case "off", "false", "no":
					off := false
					patch.AutoLaunch = &off
				default:
					return fmt.Errorf("invalid --auto-launch value %q (use on or off)", autoLaunch)
				}
			}
			if patch.IsZero() {
				return errors.New("nothing to change; pass at least one metadata flag")
			}

			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.UpdateMetadata(strings.TrimSpace(args[0]), patch)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated %s\n", displayName(resp.Cartridge.Name, resp.Cartridge.GameID))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New display name")
	cmd.Flags().StringVar(&version, "version", "", "New version string")
	cmd.Flags().StringVar(&publisher, "publisher", "", "New publisher")
	cmd.Flags().StringVar(&genre, "genre", "", "New genre")
	cmd.Flags().StringVar(&notes, "notes", "", "New notes")
	cmd.Flags().StringVar(&autoLaunch, "auto-launch", "", "Toggle auto launch (on or off)")
	return cmd
}

func shortUUID(uuid string) string {
	if len(uuid) > 8 {
		return uuid[:8]
	}
	return uuid
}

func displayName(name, gameID string) string {
	if strings.TrimSpace(name) != "" {
		return name
	}
	return api.TitleFromSlug(gameID)
}

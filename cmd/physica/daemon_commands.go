package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"physica/internal/api"
	"physica/internal/daemonctl"
	"physica/internal/ipc"
	"physica/internal/preflight"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the physica daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}

			result, err := daemonctl.EnsureStarted(
				ctx.socketPath(),
				exe,
				daemonLaunchOptions(ctx),
				10*time.Second,
			)
			if err != nil {
				return err
			}

			if result.Launched {
				fmt.Fprintln(stdout, "Daemon not running, launching...")
			}

			switch result.State {
			case daemonctl.StartStateStarted:
				fmt.Fprintln(stdout, "Daemon started")
			case daemonctl.StartStateAlreadyRunning:
				fmt.Fprintln(stdout, "Daemon already running")
			}
			return nil
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the physica daemon (completely terminates the process)",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			result, err := daemonctl.StopAndTerminate(ctx.socketPath(), ctx.configValue(), 5*time.Second)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if !result.StopAcknowledged {
				fmt.Fprintln(stdout, "Stop request sent")
			}
			if result.ForcedKill && result.PID > 0 {
				fmt.Fprintf(stdout, "Stopping daemon process (pid %d)...\n", result.PID)
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	restartCmd := &cobra.Command{
		Use:   "restart",
		Short: "Restart the physica daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}

			result, err := daemonctl.Restart(
				ctx.socketPath(),
				ctx.configValue(),
				exe,
				daemonLaunchOptions(ctx),
				5*time.Second,
				10*time.Second,
			)
			if err != nil {
				return err
			}

			if result.WasRunning {
				if result.Stop.ForcedKill && result.Stop.PID > 0 {
					fmt.Fprintf(stdout, "Stopping daemon process (pid %d)...\n", result.Stop.PID)
				}
				fmt.Fprintln(stdout, "Daemon stopped")
			}
			fmt.Fprintln(stdout, "Daemon restarted")
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, cartridge, and library status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			statusResp, err := daemonctl.BuildStatusSnapshot(cmd.Context(), ctx.socketPath(), cfg)
			if err != nil {
				return err
			}

			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			for _, line := range renderSectionHeader("System Status", colorize) {
				fmt.Fprintln(stdout, line)
			}
			if statusResp.Running {
				fmt.Fprintln(stdout, renderStatusLine("Physica", statusOK, fmt.Sprintf("Running (pid %d)", statusResp.PID), colorize))
				fmt.Fprintln(stdout, renderStatusLine("Detection", detectionKind(statusResp), detectionDetail(statusResp), colorize))
				fmt.Fprintln(stdout, renderStatusLine("Cartridges", cartridgeKind(len(statusResp.Cartridges)), insertedCartridgeDetail(statusResp.Cartridges), colorize))
				fmt.Fprintln(stdout, renderStatusLine("Running Games", statusInfo, fmt.Sprintf("%d", statusResp.RunningGames), colorize))
			} else {
				fmt.Fprintln(stdout, renderStatusLine("Physica", statusWarn, "Not running (run `physica start`)", colorize))
				probe := preflight.ProbeCartridges(cfg)
				fmt.Fprintln(stdout, renderStatusLine("Cartridges", cartridgeKind(len(probe.Names)), probe.Detail(), colorize))
			}
			if runtimes := strings.Join(statusResp.Runtimes, ", "); runtimes != "" {
				fmt.Fprintln(stdout, renderStatusLine("Runtimes", statusOK, runtimes, colorize))
			} else {
				runtime := preflight.CheckRuntimes(cfg)
				fmt.Fprintln(stdout, renderStatusLine("Runtimes", statusResultKind(runtime.Passed), runtime.Detail, colorize))
			}
			notify := preflight.CheckNotificationsFromConfig(cfg)
			fmt.Fprintln(stdout, renderStatusLine("Notifications", statusResultKind(notify.Passed), notify.Detail, colorize))
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Tools", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, line := range toolLines(statusResp.Tools, colorize) {
				fmt.Fprintln(stdout, line)
			}
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Library", colorize) {
				fmt.Fprintln(stdout, line)
			}
			if statusResp.Registry == nil {
				fmt.Fprintln(stdout, "Registry unavailable")
				return nil
			}
			stats := statusResp.Registry
			table := renderTable(
				[]string{"Metric", "Value"},
				[][]string{
					{"Games", fmt.Sprintf("%d", stats.TotalGames)},
					{"Inserted", fmt.Sprintf("%d", stats.PresentCount)},
					{"Total playtime", api.FormatPlaytime(stats.PlaytimeSeconds)},
					{"Play sessions", fmt.Sprintf("%d", stats.TotalPlays)},
				},
				[]columnAlignment{alignLeft, alignRight},
			)
			fmt.Fprintln(stdout, table)
			return nil
		},
	}

	return []*cobra.Command{startCmd, stopCmd, restartCmd, statusCmd}
}

func toolLines(tools []api.ToolStatus, colorize bool) []string {
	lines := make([]string, 0, len(tools)+1)
	missing := make([]string, 0)
	for _, tool := range tools {
		if tool.Available {
			message := "Ready"
			if tool.Command != "" {
				message = fmt.Sprintf("Ready (command: %s)", tool.Command)
			}
			lines = append(lines, renderStatusLine(tool.Name, statusOK, message, colorize))
			continue
		}

		detail := strings.TrimSpace(tool.Detail)
		if detail == "" {
			detail = "not available"
		}
		kind := statusError
		if tool.Optional {
			kind = statusWarn
		}
		lines = append(lines, renderStatusLine(tool.Name, kind, detail, colorize))
		missing = append(missing, tool.Name)
	}
	if len(missing) > 0 {
		lines = append(lines, renderStatusLine("Missing tools", statusWarn, strings.Join(missing, ", "), colorize))
	}
	return lines
}

func detectionKind(status *ipc.StatusResponse) statusKind {
	if status.Monitor.Netlink || status.Monitor.Fsnotify {
		return statusOK
	}
	return statusWarn
}

func detectionDetail(status *ipc.StatusResponse) string {
	parts := make([]string, 0, 3)
	if status.Monitor.Netlink {
		parts = append(parts, "netlink")
	}
	if status.Monitor.Fsnotify {
		parts = append(parts, "fsnotify")
	}
	if len(parts) == 0 {
		parts = append(parts, "interval scan only")
	}
	if status.Monitor.ScanIntervalSeconds > 0 {
		parts = append(parts, fmt.Sprintf("scan every %ds", status.Monitor.ScanIntervalSeconds))
	}
	return strings.Join(parts, ", ")
}

func insertedCartridgeDetail(cartridges []api.CartridgeInfo) string {
	if len(cartridges) == 0 {
		return "No cartridges inserted"
	}
	names := make([]string, 0, len(cartridges))
	for _, c := range cartridges {
		names = append(names, c.Name)
	}
	return strings.Join(names, ", ")
}

func cartridgeKind(count int) statusKind {
	if count > 0 {
		return statusOK
	}
	return statusInfo
}

func statusResultKind(passed bool) statusKind {
	if passed {
		return statusOK
	}
	return statusWarn
}

func daemonExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	return exe, nil
}

func daemonLaunchOptions(ctx *commandContext) daemonctl.LaunchOptions {
	opts := daemonctl.LaunchOptions{}
	if ctx.socketFlag != nil {
		if socket := strings.TrimSpace(*ctx.socketFlag); socket != "" {
			opts.SocketPath = socket
		}
	}
	if ctx.configFlag != nil {
		if config := strings.TrimSpace(*ctx.configFlag); config != "" {
			opts.ConfigPath = config
		}
	}
	return opts
}

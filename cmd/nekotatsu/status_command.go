package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"nekotatsu/internal/ipc"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and selection status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				status, err := client.Status()
				if err != nil {
					return err
				}

				stdout := cmd.OutOrStdout()
				colorize := shouldColorize(stdout)

				for _, line := range renderSectionHeader("Daemon", colorize) {
					fmt.Fprintln(stdout, line)
				}
				runningKind := statusWarn
				if status.Running {
					runningKind = statusOK
				}
				fmt.Fprintln(stdout, renderStatusLine("Running", runningKind, yesNo(status.Running), colorize))
				busyKind := statusInfo
				if status.Busy {
					busyKind = statusWarn
				}
				fmt.Fprintln(stdout, renderStatusLine("Busy", busyKind, yesNo(status.Busy), colorize))
				fmt.Fprintln(stdout, renderStatusLine("PID", statusInfo, fmt.Sprintf("%d", status.PID), colorize))
				fmt.Fprintln(stdout, renderStatusLine("Version", statusInfo, status.Version, colorize))
				fmt.Fprintln(stdout, renderStatusLine("Cache dir", statusInfo, status.CacheDir, colorize))
				fmt.Fprintln(stdout, renderStatusLine("Lock", statusInfo, status.LockPath, colorize))

				fmt.Fprintln(stdout)
				for _, line := range renderSectionHeader("Selection", colorize) {
					fmt.Fprintln(stdout, line)
				}
				fmt.Fprintln(stdout, renderStatusLine("Backup", selectionKind(status.BackupPath), orUnset(status.BackupPath), colorize))
				fmt.Fprintln(stdout, renderStatusLine("Save to", selectionKind(status.SavePath), orUnset(status.SavePath), colorize))
				return nil
			})
		},
	}
}

func selectionKind(path string) statusKind {
	if path == "" {
		return statusWarn
	}
	return statusOK
}

func orUnset(path string) string {
	if path == "" {
		return "not selected"
	}
	return path
}

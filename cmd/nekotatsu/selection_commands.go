package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"nekotatsu/internal/ipc"
)

func newPickBackupCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "pick-backup <path>",
		Short: "Select the Tachiyomi backup file to convert",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			info, err := os.Stat(path)
			if err != nil {
				return fmt.Errorf("backup file: %w", err)
			}
			if info.IsDir() {
				return fmt.Errorf("backup path %s is a directory", path)
			}

			return ctx.withClient(func(client *ipc.Client) error {
				if err := client.SetBackup(path); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Backup selected: %s\n", path)
				return nil
			})
		},
	}
}

func newPickSaveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "pick-save <path>",
		Short: "Select where the converted archive will be written",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}

			return ctx.withClient(func(client *ipc.Client) error {
				if err := client.SetSave(path); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Save location selected: %s\n", path)
				return nil
			})
		},
	}
}

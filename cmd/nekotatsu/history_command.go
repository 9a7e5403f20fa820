package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"nekotatsu/internal/ipc"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past conversion runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.HistoryList(limit)
				if err != nil {
					return err
				}
				if len(resp.Runs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No conversion runs recorded")
					return nil
				}

				rows := make([][]string, 0, len(resp.Runs))
				for _, run := range resp.Runs {
					detail := fmt.Sprintf("fav %d / hist %d", run.FavouriteCount, run.HistoryCount)
					if run.Status == "failed" {
						detail = run.ErrorMessage
					}
					rows = append(rows, []string{
						fmt.Sprintf("%d", run.ID),
						run.StartedAt.Local().Format(time.DateTime),
						run.Status,
						filepath.Base(run.BackupPath),
						filepath.Base(run.SavePath),
						detail,
					})
				}

				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Started", "Status", "Backup", "Archive", "Detail"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum runs to list")
	return cmd
}

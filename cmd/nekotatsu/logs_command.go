package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"nekotatsu/internal/ipc"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		follow bool
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show buffered daemon log lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				stdout := cmd.OutOrStdout()

				resp, err := client.LogTail(ipc.LogTailRequest{Limit: limit})
				if err != nil {
					return err
				}
				for _, evt := range resp.Events {
					fmt.Fprintln(stdout, evt.Line())
				}
				if !follow {
					return nil
				}

				cursor := resp.Cursor
				for {
					resp, err := client.LogTail(ipc.LogTailRequest{Since: cursor, Limit: limit, Wait: true})
					if err != nil {
						if errors.Is(cmd.Context().Err(), context.Canceled) {
							return nil
						}
						return err
					}
					for _, evt := range resp.Events {
						fmt.Fprintln(stdout, evt.Line())
					}
					cursor = resp.Cursor
				}
			})
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep streaming new log lines")
	cmd.Flags().IntVar(&limit, "limit", 100, "Maximum lines per fetch")
	return cmd
}

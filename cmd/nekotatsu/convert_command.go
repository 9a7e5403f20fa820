package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"nekotatsu/internal/ipc"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var noScript bool

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert the selected backup and write the archive",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Convert(noScript)
				if err != nil && isScriptMissing(err) {
					ok, promptErr := confirm(cmd, "No correction script is cached. Convert without it?")
					if promptErr != nil {
						return promptErr
					}
					if !ok {
						fmt.Fprintln(cmd.OutOrStdout(), "Conversion cancelled")
						return nil
					}
					resp, err = client.Convert(true)
				}
				if err != nil {
					return err
				}

				stdout := cmd.OutOrStdout()
				colorize := shouldColorize(stdout)
				for _, line := range renderSectionHeader("Conversion", colorize) {
					fmt.Fprintln(stdout, line)
				}
				fmt.Fprintln(stdout, renderStatusLine("Archive", statusOK, resp.SavePath, colorize))
				fmt.Fprintln(stdout, renderStatusLine("Manga", statusInfo,
					fmt.Sprintf("%d converted, %d skipped", resp.MangaConverted, resp.MangaSkipped), colorize))
				fmt.Fprintln(stdout, renderStatusLine("Sections", statusInfo,
					fmt.Sprintf("history %d, categories %d, favourites %d, bookmarks %d",
						resp.HistoryCount, resp.CategoryCount, resp.FavouriteCount, resp.BookmarkCount), colorize))
				fmt.Fprintln(stdout, renderStatusLine("Request", statusInfo, resp.RequestID, colorize))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&noScript, "no-script", false, "Convert without the optional correction script, skipping the prompt")
	return cmd
}

// isScriptMissing matches the daemon's missing-script refusal across the RPC
// boundary, where only the error string survives.
func isScriptMissing(err error) bool {
	return err != nil && strings.Contains(err.Error(), "correction script is not downloaded")
}

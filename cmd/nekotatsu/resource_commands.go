package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"nekotatsu/internal/download"
	"nekotatsu/internal/ipc"
	"nekotatsu/internal/kotatsu"
	"nekotatsu/internal/logging"
	"nekotatsu/internal/resources"
)

func newResourcesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "resources",
		Short: "List conversion resources and their cache state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Resources()
				if err != nil {
					return err
				}

				rows := make([][]string, 0, len(resp.Resources))
				for _, res := range resp.Resources {
					cached := yesNo(res.Cached)
					if res.DerivedName != "" {
						cached = fmt.Sprintf("%s (derived: %s)", cached, yesNo(res.DerivedCached))
					}
					required := "required"
					if res.Optional {
						required = "optional"
					}
					rows = append(rows, []string{res.Key, res.Title, required, cached, res.URL})
				}

				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Key", "Title", "Need", "Cached", "URL"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
}

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	var (
		force  bool
		direct bool
		link   string
	)

	cmd := &cobra.Command{
		Use:   "download <resource-key>",
		Short: "Download a conversion resource into the cache",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := strings.TrimSpace(args[0])
			desc, err := resources.Lookup(key)
			if err != nil {
				return err
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			resolved := link
			if resolved == "" {
				if resolved, err = cfg.ResolveURL(key); err != nil {
					return err
				}
			}
			if resolved == "" {
				return fmt.Errorf("resource %q has no default URL; pass --link", key)
			}

			if !force {
				if _, statErr := os.Stat(cfg.CachePath(desc.CacheFileName)); statErr == nil {
					ok, promptErr := confirm(cmd, fmt.Sprintf("%s is already cached. Overwrite?", desc.CacheFileName))
					if promptErr != nil {
						return promptErr
					}
					if !ok {
						fmt.Fprintln(cmd.OutOrStdout(), "Download cancelled")
						return nil
					}
				}
			}

			if !direct && ctx.daemonAvailable() {
				err = ctx.withClient(func(client *ipc.Client) error {
					return client.Download(ipc.DownloadRequest{Key: key, Link: link})
				})
			} else {
				err = directDownload(cmd, ctx, desc.CacheFileName, resolved)
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Downloaded %s\n", desc.CacheFileName)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing cache file without asking")
	cmd.Flags().BoolVar(&direct, "direct", false, "Fetch in-process instead of through the daemon")
	cmd.Flags().StringVar(&link, "link", "", "Override the download URL for this fetch")
	return cmd
}

type cliNormalizer struct{}

func (cliNormalizer) Normalize(archivePath, destPath string) error {
	return kotatsu.NormalizeParsers(archivePath, destPath)
}

// directDownload fetches without a daemon, rendering a progress bar when
// stdout is a terminal.
func directDownload(cmd *cobra.Command, ctx *commandContext, fileName, link string) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	manager := download.NewManager(cfg.Paths.CacheDir, logging.NewNop(), cliNormalizer{})
	if shouldColorize(cmd.OutOrStdout()) {
		var bar *progressbar.ProgressBar
		manager.SetProgress(func(name string, read, total int64) {
			if bar == nil {
				bar = progressbar.DefaultBytes(total, "downloading "+name)
			}
			_ = bar.Set64(read)
		})
	}
	return manager.Fetch(cmd.Context(), fileName, link)
}

func confirm(cmd *cobra.Command, question string) (bool, error) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N]: ", question)
	reader := bufio.NewReader(cmd.InOrStdin())
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("read confirmation: %w", err)
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes", nil
}

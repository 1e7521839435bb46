package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yourusername/nyaa-go/internal/domain"
	"github.com/yourusername/nyaa-go/internal/normalize"
)

var downloadCmd = &cobra.Command{
	Use:   "download [magnet|torrent-url]",
	Short: "Hand a torrent to a download client",
	Long: `Hand a magnet link or torrent file URL to a configured download client.
With --pick N the arguments are a search term instead, and the N-th result
of that search is sent.`,
	Example: `  nyaa download "magnet:?xt=urn:btih:..." --client qbit
  nyaa download --pick 1 --filter trusted_only frieren 1080p`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := loadServices()
		if err != nil {
			return err
		}
		defer services.Close()

		var item domain.ResultItem
		if pick, _ := cmd.Flags().GetInt("pick"); pick > 0 {
			q, err := queryFromFlags(cmd, services.Config.Search, strings.Join(args, " "))
			if err != nil {
				return err
			}
			item, err = pickResult(cmd.Context(), services.Search, q, pick)
			if err != nil {
				return err
			}
		} else {
			if len(args) != 1 {
				return fmt.Errorf("expected one magnet link or torrent URL, got %d arguments", len(args))
			}
			title, _ := cmd.Flags().GetString("title")
			item, err = itemFromReference(args[0], title)
			if err != nil {
				return err
			}
		}

		client, _ := cmd.Flags().GetString("client")
		options, err := optionsFromFlags(cmd)
		if err != nil {
			return err
		}
		req := domain.NewDownloadRequest(item, client, options)

		ctx := cmd.Context()
		if timeout := services.Config.Requests.SubmitTimeout; timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		outcome := services.Downloads.Submit(ctx, req)
		if !outcome.Succeeded {
			return fmt.Errorf("sending %q to %s failed (%s): %w", outcome.Title, outcome.Client, outcome.Cause, outcome.Err)
		}
		fmt.Printf("Sent %q to %s\n", outcome.Title, outcome.Client)
		fmt.Printf("ID: %s\n", outcome.RequestID)
		return nil
	},
}

func init() {
	addQueryFlags(downloadCmd)
	downloadCmd.Flags().Int("pick", 0, "Search for the arguments and send the N-th result")
	downloadCmd.Flags().String("client", "", "Client name (default from config)")
	downloadCmd.Flags().String("title", "", "Display name for a bare magnet or URL")
	downloadCmd.Flags().String("save-path", "", "Download directory on the client")
	downloadCmd.Flags().String("client-category", "", "Client-side category")
	downloadCmd.Flags().StringSlice("tags", nil, "Client-side tags")
	downloadCmd.Flags().String("rename", "", "Torrent name on the client")
	downloadCmd.Flags().Bool("paused", false, "Add the torrent paused")
	downloadCmd.Flags().Bool("sequential", false, "Download pieces in order")
}

// itemFromReference builds a result for a magnet link or a torrent URL
// given on the command line
func itemFromReference(ref, title string) (domain.ResultItem, error) {
	ref = strings.TrimSpace(ref)
	item := domain.ResultItem{Title: title}

	if strings.HasPrefix(ref, "magnet:") {
		hash, ok := normalize.MagnetInfoHash(ref)
		if !ok {
			return item, fmt.Errorf("invalid magnet link: %s", ref)
		}
		item.Magnet = ref
		item.InfoHash = hash
		if item.Title == "" {
			item.Title = magnetName(ref, hash)
		}
		return item, nil
	}

	u, err := url.Parse(ref)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return item, fmt.Errorf("not a magnet link or http(s) URL: %s", ref)
	}
	item.TorrentURL = ref
	if item.Title == "" {
		item.Title = ref
	}
	return item, nil
}

// magnetName returns the dn parameter of a magnet link, or the hash
func magnetName(magnet, hash string) string {
	if u, err := url.Parse(magnet); err == nil {
		if dn := u.Query().Get("dn"); dn != "" {
			return dn
		}
	}
	return hash
}

// optionsFromFlags collects the submit options that were set explicitly
func optionsFromFlags(cmd *cobra.Command) (domain.SubmitOptions, error) {
	var opts domain.SubmitOptions
	flags := cmd.Flags()

	str := func(name string) *string {
		if !flags.Changed(name) {
			return nil
		}
		v, _ := flags.GetString(name)
		return &v
	}
	boolean := func(name string) *bool {
		if !flags.Changed(name) {
			return nil
		}
		v, _ := flags.GetBool(name)
		return &v
	}

	opts.SavePath = str("save-path")
	opts.Category = str("client-category")
	opts.Rename = str("rename")
	opts.Paused = boolean("paused")
	opts.SequentialDownload = boolean("sequential")
	if flags.Changed("tags") {
		tags, err := flags.GetStringSlice("tags")
		if err != nil {
			return opts, err
		}
		opts.Tags = tags
	}
	return opts, nil
}

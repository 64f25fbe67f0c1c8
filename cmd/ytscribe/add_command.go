package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ytscribe/internal/playlist"
	"ytscribe/internal/queue"
	"ytscribe/internal/services/innertube"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <url...>",
		Short: "Queue videos or playlists for transcription",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueue(func(client *daemonClient, store *queue.Store) error {
				out := cmd.OutOrStdout()
				for _, arg := range args {
					target := strings.TrimSpace(arg)
					if target == "" {
						continue
					}
					// Watch URLs often carry a list parameter next to the
					// video id; the named video wins over the playlist.
					if playlist.IsPlaylistURL(target) && !innertube.IsVideoURL(target) {
						count, err := enqueuePlaylist(cmd, client, store, target)
						if err != nil {
							return err
						}
						fmt.Fprintf(out, "Queued %d videos from playlist\n", count)
						continue
					}
					id, err := enqueueVideo(cmd, client, store, target)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Queued item %d: %s\n", id, target)
				}
				return nil
			})
		},
	}
}

func enqueueVideo(cmd *cobra.Command, client *daemonClient, store *queue.Store, target string) (int64, error) {
	if client != nil {
		resp, err := client.addVideo(cmd.Context(), target)
		if err != nil {
			return 0, err
		}
		return resp.Item.ID, nil
	}

	videoID, err := innertube.ExtractVideoID(target)
	if err != nil {
		videoID = ""
	}
	item, err := store.NewVideo(cmd.Context(), target, videoID, "")
	if err != nil {
		return 0, fmt.Errorf("enqueue video: %w", err)
	}
	return item.ID, nil
}

func enqueuePlaylist(cmd *cobra.Command, client *daemonClient, store *queue.Store, target string) (int, error) {
	entries, err := playlist.NewExpander().Expand(cmd.Context(), target)
	if err != nil {
		return 0, fmt.Errorf("expand playlist: %w", err)
	}
	count := 0
	for _, entry := range entries {
		if client != nil {
			if _, err := client.addVideo(cmd.Context(), entry.URL); err != nil {
				return count, err
			}
		} else {
			if _, err := store.NewVideo(cmd.Context(), entry.URL, entry.VideoID, entry.Title); err != nil {
				return count, fmt.Errorf("enqueue playlist entry %q: %w", entry.VideoID, err)
			}
		}
		count++
	}
	return count, nil
}

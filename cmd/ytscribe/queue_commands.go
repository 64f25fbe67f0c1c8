package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ytscribe/internal/api"
	"ytscribe/internal/queue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the work queue",
	}

	queueCmd.AddCommand(newQueueStatusCommand(ctx))
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))
	queueCmd.AddCommand(newQueueResetCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))
	queueCmd.AddCommand(newQueueStopCommand(ctx))
	queueCmd.AddCommand(newQueueRemoveCommand(ctx))
	queueCmd.AddCommand(newQueueHealthCommand(ctx))

	return queueCmd
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show queue status summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueue(func(client *daemonClient, store *queue.Store) error {
				stats := make(map[string]int)
				if client != nil {
					status, err := client.status(cmd.Context())
					if err != nil {
						return err
					}
					stats = status.Workflow.QueueStats
				} else {
					raw, err := store.Stats(cmd.Context())
					if err != nil {
						return err
					}
					for status, count := range raw {
						stats[string(status)] = count
					}
				}

				rows := buildQueueStatusRows(stats)
				if len(rows) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				rendered := renderTable([]tableColumn{{Title: "Status"}, {Title: "Count", Numeric: true}}, rows)
				fmt.Fprintln(cmd.OutOrStdout(), rendered)
				return nil
			})
		},
	}
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queue items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withQueue(func(client *daemonClient, store *queue.Store) error {
				var items []api.QueueItem
				if client != nil {
					resp, err := client.queueList(cmd.Context(), listStatuses)
					if err != nil {
						return err
					}
					items = resp.Items
				} else {
					var statuses []queue.Status
					for _, statusStr := range listStatuses {
						status, ok := queue.ParseStatus(statusStr)
						if !ok {
							return fmt.Errorf("unknown queue status %q", statusStr)
						}
						statuses = append(statuses, status)
					}
					records, err := store.List(cmd.Context(), statuses...)
					if err != nil {
						return err
					}
					items = api.FromQueueItems(records)
				}

				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
					return nil
				}
				rendered := renderTable(
					[]tableColumn{
						{Title: "ID", Numeric: true},
						{Title: "Title"},
						{Title: "Status"},
						{Title: "Source"},
						{Title: "Created"},
					},
					buildQueueListRows(api.SortQueueItemsNewestFirst(items)),
				)
				fmt.Fprintln(cmd.OutOrStdout(), rendered)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVarP(&listStatuses, "status", "s", nil, "Filter by queue status (repeatable)")
	return cmd
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var clearCompleted bool
	var clearFailed bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove queue items",
		RunE: func(cmd *cobra.Command, args []string) error {
			if clearCompleted && clearFailed {
				return errors.New("specify only one of --completed or --failed")
			}
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			switch {
			case clearCompleted:
				removed, err := store.ClearCompleted(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Cleared %d completed items\n", removed)
			case clearFailed:
				removed, err := store.ClearFailed(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Cleared %d failed items\n", removed)
			default:
				removed, err := store.Clear(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Cleared %d queue items\n", removed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&clearCompleted, "completed", false, "Remove only completed items")
	cmd.Flags().BoolVar(&clearFailed, "failed", false, "Remove only failed items")
	return cmd
}

func newQueueResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-stuck",
		Short: "Return in-flight items to pending",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			updated, err := store.ResetStuckProcessing(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reset %d items\n", updated)
			return nil
		},
	}
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [itemID...]",
		Short: "Retry failed queue items",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := strconv.ParseInt(arg, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid item id %q", arg)
				}
				ids = append(ids, id)
			}

			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			if len(ids) == 0 {
				updated, err := store.RetryFailed(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Retried %d failed items\n", updated)
				return nil
			}

			for _, id := range ids {
				item, err := store.GetByID(cmd.Context(), id)
				if err != nil {
					return err
				}
				if item == nil {
					fmt.Fprintf(out, "Item %d not found\n", id)
					continue
				}
				if item.Status != queue.StatusFailed && item.Status != queue.StatusReview {
					fmt.Fprintf(out, "Item %d is not in a retryable state\n", id)
					continue
				}
				updated, err := store.RetryFailed(cmd.Context(), id)
				if err != nil {
					return err
				}
				if updated > 0 {
					fmt.Fprintf(out, "Item %d reset for retry\n", id)
				} else {
					fmt.Fprintf(out, "Item %d is not in a retryable state\n", id)
				}
			}
			return nil
		},
	}
}

func newQueueStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop <itemID...>",
		Short: "Stop queue items before their next stage",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			for _, arg := range args {
				id, err := strconv.ParseInt(arg, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid item id %q", arg)
				}
				item, err := store.GetByID(cmd.Context(), id)
				if err != nil {
					return err
				}
				if item == nil {
					fmt.Fprintf(out, "Item %d not found\n", id)
					continue
				}
				if queue.IsTerminal(item.Status) {
					fmt.Fprintf(out, "Item %d is already finished (%s)\n", id, item.Status)
					continue
				}
				inFlight := item.IsProcessing()
				item.SetFailed(queue.UserStopReason)
				item.NeedsReview = true
				item.ReviewReason = queue.UserStopReason
				item.ProgressStage = "Stopped"
				if err := store.Update(cmd.Context(), item); err != nil {
					return err
				}
				if inFlight {
					fmt.Fprintf(out, "Item %d stop requested; will halt after current stage\n", id)
				} else {
					fmt.Fprintf(out, "Item %d stopped\n", id)
				}
			}
			return nil
		},
	}
}

func newQueueRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <itemID...>",
		Short: "Remove specific queue items",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			for _, arg := range args {
				id, err := strconv.ParseInt(arg, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid item id %q", arg)
				}
				removed, err := store.Remove(cmd.Context(), id)
				if err != nil {
					return err
				}
				if removed {
					fmt.Fprintf(out, "Item %d removed\n", id)
				} else {
					fmt.Fprintf(out, "Item %d not found\n", id)
				}
			}
			return nil
		},
	}
}

func newQueueHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show queue health summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			health, err := store.Health(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Total: %d\nPending: %d\nProcessing: %d\nFailed: %d\nReview: %d\nCompleted: %d\n",
				health.Total,
				health.Pending,
				health.Processing,
				health.Failed,
				health.Review,
				health.Completed,
			)
			return nil
		},
	}
}

func buildQueueStatusRows(stats map[string]int) [][]string {
	if len(stats) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(stats))
	for _, status := range queue.AllStatuses() {
		count, ok := stats[string(status)]
		if !ok || count == 0 {
			continue
		}
		rows = append(rows, []string{string(status), strconv.Itoa(count)})
	}
	return rows
}

func buildQueueListRows(items []api.QueueItem) [][]string {
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			title = item.SourceURL
		}
		created := ""
		if t := api.ParseQueueTime(item.CreatedAt); !t.IsZero() {
			created = t.Local().Format(time.DateTime)
		}
		rows = append(rows, []string{
			strconv.FormatInt(item.ID, 10),
			title,
			item.Status,
			item.TranscriptSource,
			created,
		})
	}
	return rows
}

package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"ytscribe/internal/api"
	"ytscribe/internal/deps"
	"ytscribe/internal/queue"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and pipeline status",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			if client := ctx.daemonClient(); client != nil {
				status, err := client.status(cmd.Context())
				if err != nil {
					return err
				}
				printDaemonStatus(cmd, status, colorize)
				return nil
			}

			return printLocalStatus(cmd, ctx, colorize)
		},
	}
}

func printDaemonStatus(cmd *cobra.Command, status api.DaemonStatus, colorize bool) {
	out := cmd.OutOrStdout()
	for _, line := range renderSectionHeader("Daemon", colorize) {
		fmt.Fprintln(out, line)
	}
	runningKind := statusError
	if status.Running {
		runningKind = statusOK
	}
	fmt.Fprintln(out, renderStatusLine("Running", runningKind, fmt.Sprintf("pid %d", status.PID), colorize))
	fmt.Fprintln(out, renderStatusLine("Queue DB", statusInfo, status.QueueDBPath, colorize))
	fmt.Fprintln(out, renderStatusLine("Lock file", statusInfo, status.LockFilePath, colorize))

	fmt.Fprintln(out)
	for _, line := range renderSectionHeader("Stages", colorize) {
		fmt.Fprintln(out, line)
	}
	for _, health := range status.Workflow.StageHealth {
		kind := statusOK
		message := "ready"
		if !health.Ready {
			kind = statusWarn
			message = health.Detail
		}
		fmt.Fprintln(out, renderStatusLine(health.Name, kind, message, colorize))
	}

	fmt.Fprintln(out)
	for _, line := range renderSectionHeader("Queue", colorize) {
		fmt.Fprintln(out, line)
	}
	printQueueStats(cmd, status.Workflow.QueueStats, colorize)

	fmt.Fprintln(out)
	for _, line := range renderSectionHeader("Dependencies", colorize) {
		fmt.Fprintln(out, line)
	}
	for _, dep := range status.Dependencies {
		kind := statusOK
		message := dep.Command
		if !dep.Available {
			kind = statusError
			message = dep.Detail
		}
		fmt.Fprintln(out, renderStatusLine(dep.Name, kind, message, colorize))
	}
}

func printLocalStatus(cmd *cobra.Command, ctx *commandContext, colorize bool) error {
	out := cmd.OutOrStdout()
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}

	for _, line := range renderSectionHeader("Daemon", colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, renderStatusLine("Running", statusWarn, "daemon not reachable; showing local state", colorize))

	store, err := ctx.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	stats, err := store.Stats(cmd.Context())
	if err != nil {
		return err
	}
	stringStats := make(map[string]int, len(stats))
	for status, count := range stats {
		stringStats[string(status)] = count
	}

	fmt.Fprintln(out)
	for _, line := range renderSectionHeader("Queue", colorize) {
		fmt.Fprintln(out, line)
	}
	printQueueStats(cmd, stringStats, colorize)

	fmt.Fprintln(out)
	for _, line := range renderSectionHeader("Dependencies", colorize) {
		fmt.Fprintln(out, line)
	}
	for _, status := range deps.CheckBinaries(deps.Requirements(cfg)) {
		kind := statusOK
		message := status.Command
		if !status.Available {
			kind = statusError
			message = status.Detail
		}
		fmt.Fprintln(out, renderStatusLine(status.Name, kind, message, colorize))
	}
	return nil
}

func printQueueStats(cmd *cobra.Command, stats map[string]int, colorize bool) {
	out := cmd.OutOrStdout()
	if len(stats) == 0 {
		fmt.Fprintln(out, renderStatusLine("Items", statusInfo, "queue is empty", colorize))
		return
	}

	keys := make([]string, 0, len(stats))
	for key := range stats {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	total := 0
	for _, key := range keys {
		count := stats[key]
		total += count
		if count == 0 {
			continue
		}
		kind := statusInfo
		switch queue.Status(strings.ToLower(key)) {
		case queue.StatusCompleted:
			kind = statusOK
		case queue.StatusFailed:
			kind = statusError
		case queue.StatusReview:
			kind = statusWarn
		}
		fmt.Fprintln(out, renderStatusLine(key, kind, fmt.Sprintf("%d", count), colorize))
	}
	fmt.Fprintln(out, renderStatusLine("Total", statusInfo, fmt.Sprintf("%d", total), colorize))
}

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"dihi/internal/ident"
)

// newStatusCommand polls either pool; collection IDs route to the collection
// endpoint, everything else to the item endpoint.
func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status <id>",
		Short: "Show job status for an item or collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			if ident.IsItemID(id) {
				return runItemStatus(ctx, cmd, id)
			}
			return runCollectionStatus(ctx, cmd, id)
		},
	}
}

func runItemStatus(ctx *commandContext, cmd *cobra.Command, id string) error {
	resp, err := ctx.client().ItemStatus(id)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	switch {
	case resp.Downloading:
		fmt.Fprintln(out, renderStatusLine(id, statusInfo, "downloading", colorize))
	case resp.Result == "completed":
		fmt.Fprintln(out, renderStatusLine(id, statusOK, "completed", colorize))
	case resp.Result == "failed":
		fmt.Fprintln(out, renderStatusLine(id, statusError, "failed", colorize))
	default:
		fmt.Fprintln(out, renderStatusLine(id, statusInfo, "idle", colorize))
	}
	if resp.InArchive {
		fmt.Fprintln(out, renderStatusLine("Archive", statusOK, "present", colorize))
	}
	return nil
}

func runCollectionStatus(ctx *commandContext, cmd *cobra.Command, id string) error {
	resp, err := ctx.client().CollectionStatus(id)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	if !resp.Known && !resp.Downloading {
		fmt.Fprintln(out, renderStatusLine(id, statusInfo, "no record", colorize))
		return nil
	}

	kind := statusInfo
	switch resp.Phase {
	case "completed":
		kind = statusOK
	case "failed":
		kind = statusError
	}
	fmt.Fprintln(out, renderStatusLine(id, kind, resp.Phase, colorize))

	rows := [][]string{
		{"Total", strconv.Itoa(resp.Total)},
		{"Completed", strconv.Itoa(resp.CompletedCount)},
		{"Failed", strconv.Itoa(resp.FailedCount)},
	}
	fmt.Fprintln(out, renderTable([]string{"Metric", "Count"}, rows))

	if len(resp.FailedIDs) > 0 {
		fmt.Fprintln(out, renderStatusLine("Failed items", statusWarn, strings.Join(resp.FailedIDs, ", "), colorize))
	}
	return nil
}

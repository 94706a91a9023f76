package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dihi/internal/api"
)

func newFetchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch <item-id>",
		Short: "Trigger an item download",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := ctx.client().FetchItem(args[0])
			if err != nil {
				return err
			}
			printFetchResult(cmd, args[0], resp)
			return nil
		},
	}
}

func newFetchCollectionCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "fetch-collection <collection-id>",
		Short: "Trigger a collection download",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := ctx.client().FetchCollection(args[0])
			if err != nil {
				return err
			}
			printFetchResult(cmd, args[0], resp)
			return nil
		},
	}
}

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check <item-id>",
		Short: "Check whether an item is already archived",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := ctx.client().ItemLookup(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			if resp.Result {
				fmt.Fprintln(out, renderStatusLine(args[0], statusOK, "archived", colorize))
			} else {
				fmt.Fprintln(out, renderStatusLine(args[0], statusInfo, "not archived", colorize))
			}
			return nil
		},
	}
}

func printFetchResult(cmd *cobra.Command, id string, resp *api.FetchResponse) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	switch {
	case resp.Started:
		fmt.Fprintln(out, renderStatusLine(id, statusOK, "download started ("+resp.RunID+")", colorize))
	case resp.AlreadyActive:
		fmt.Fprintln(out, renderStatusLine(id, statusInfo, "already downloading ("+resp.RunID+")", colorize))
	default:
		fmt.Fprintln(out, renderStatusLine(id, statusWarn, "not started", colorize))
	}
}

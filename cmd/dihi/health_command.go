package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show daemon health and pool utilization",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			health, err := ctx.client().Health()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			archiveKind := statusOK
			archiveMsg := "manifest present"
			if !health.ArchiveExists {
				archiveKind = statusWarn
				archiveMsg = "manifest missing"
			}
			fmt.Fprintln(out, renderStatusLine("Archive", archiveKind, archiveMsg, colorize))
			fmt.Fprintln(out, renderStatusLine("Items", statusInfo,
				fmt.Sprintf("%d/%d active", health.ItemsActive, health.ItemLimit), colorize))
			fmt.Fprintln(out, renderStatusLine("Collections", statusInfo,
				fmt.Sprintf("%d/%d active", health.CollectionsActive, health.CollectionLimit), colorize))
			return nil
		},
	}
}

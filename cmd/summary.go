package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const summaryLongDescription = `Summarize TAP streams: one table row per input, then every failing
test point with its diagnostics and stack. Exits non-zero when any input
failed, bailed out or ended early.

` + pathPatternsHelp

func newSummaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary [paths...]",
		Short: "Report the failing test points of TAP streams",
		Long:  summaryLongDescription,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := workflowFor(cmd).Summarize(cmd.Context(), workflowArgs(args))
			return err
		},
	}

	configureSummaryFlags(cmd)

	return cmd
}

func configureSummaryFlags(cmd *cobra.Command) {
	cmd.Flags().Bool(pagerFlagName, viper.GetBool(summaryPagerKey), "page long summaries on a terminal")
	bindFlagToConfig(cmd.Flags().Lookup(pagerFlagName), summaryPagerKey)
}

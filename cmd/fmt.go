package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const fmtLongDescription = `Re-render TAP streams as normalized TAP 14 text. Subtests get a
"# Subtest" header and diagnostics are cleaned. With --flat every test point
is renumbered into one flat plan. With --output each input is saved to the
directory instead of being printed.

` + pathPatternsHelp

func newFmtCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fmt [paths...]",
		Short: "Normalize TAP streams",
		Long:  fmtLongDescription,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := workflowFor(cmd).Format(cmd.Context(), workflowArgs(args))
			return err
		},
	}

	configureFmtFlags(cmd)

	return cmd
}

func configureFmtFlags(cmd *cobra.Command) {
	cmd.Flags().StringP(outputFlagName, "o", viper.GetString(outputDirKey), "directory the formatted streams are saved to")
	bindFlagToConfig(cmd.Flags().Lookup(outputFlagName), outputDirKey)
}

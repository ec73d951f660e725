package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const parseLongDescription = `Parse TAP streams and print their events, one YAML document or one
JSON line per input. Subtests appear as child events holding their own
stream. With --flat the subtests are inlined and renumbered.

` + pathPatternsHelp

func newParseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse [paths...]",
		Short: "Print the events of TAP streams",
		Long:  parseLongDescription,
		RunE: func(cmd *cobra.Command, args []string) error {
			wargs := workflowArgs(args)
			wargs.Parser.Flat = wargs.Flat

			_, err := workflowFor(cmd).Parse(cmd.Context(), wargs)

			return err
		},
	}

	configureParseFlags(cmd)

	return cmd
}

func configureParseFlags(cmd *cobra.Command) {
	cmd.Flags().StringP(formatFlagName, "f", viper.GetString(outputFormatKey), "event format: yaml or json")
	bindFlagToConfig(cmd.Flags().Lookup(formatFlagName), outputFormatKey)
}

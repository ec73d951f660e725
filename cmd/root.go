// Package cmd provides the root command and CLI setup for taptree.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"taptree.dev/pkg/taptree/internal/adapter"
	"taptree.dev/pkg/taptree/internal/controller"
	"taptree.dev/pkg/taptree/internal/domain"
	m "taptree.dev/pkg/taptree/internal/model"
	"taptree.dev/pkg/taptree/internal/parser"
)

var streamAdapter adapter.StreamAdapter
var reportStore adapter.ReportStore

// rootCmd represents the base command when called without any subcommands.
// It is built after the configuration defaults are registered.
var rootCmd *cobra.Command

func init() {
	// Initialize shared dependencies.
	streamAdapter = adapter.NewLocalStreamAdapter(adapter.DefaultChunkSize)
	reportStore = adapter.NewReportStore()

	rootCmd = newRootCmd()
}

const pathPatternsHelp = `Inputs are TAP files, directories or patterns:
  - -              read standard input (the default)
  - ./results      every .tap file in results
  - ./results/...  every .tap file below results`

const rootLongDescription = `taptree reads Test Anything Protocol streams, nested subtests included,
and turns them into structured events, normalized TAP text or a summary of
the failing test points with their cleaned diagnostics.

` + pathPatternsHelp

func baseRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "taptree",
		Short:        "TAP stream parser and reporter",
		Long:         rootLongDescription,
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			configureLogger(viper.GetString(logFilenameKey), viper.GetBool(logVerboseKey))
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
}

func newRootCmd() *cobra.Command {
	cmd := baseRootCmd()
	configureRootFlags(cmd)

	cmd.AddCommand(newParseCmd(), newFmtCmd(), newSummaryCmd(), newVersionCmd())

	return cmd
}

func configureRootFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()

	flags.BoolP(verboseFlagName, "v", viper.GetBool(logVerboseKey), "log at debug level")
	bindFlagToConfig(flags.Lookup(verboseFlagName), logVerboseKey)

	flags.String(logFlagName, viper.GetString(logFilenameKey), "log file path")
	bindFlagToConfig(flags.Lookup(logFlagName), logFilenameKey)

	flags.Bool(strictFlagName, viper.GetBool(parseStrictKey), "treat non-TAP lines as failures")
	bindFlagToConfig(flags.Lookup(strictFlagName), parseStrictKey)

	flags.Bool(bailFlagName, viper.GetBool(parseBailKey), "bail out on the first failing test point")
	bindFlagToConfig(flags.Lookup(bailFlagName), parseBailKey)

	flags.Bool(passesFlagName, viper.GetBool(parsePassesKey), "keep passing test points in summaries")
	bindFlagToConfig(flags.Lookup(passesFlagName), parsePassesKey)

	flags.StringArray(denyFlagName, viper.GetStringSlice(cleanDenyKey), "diagnostic key to hide (can be repeated)")
	bindFlagToConfig(flags.Lookup(denyFlagName), cleanDenyKey)

	flags.Bool(flatFlagName, viper.GetBool(outputFlatKey), "inline subtests into one renumbered stream")
	bindFlagToConfig(flags.Lookup(flatFlagName), outputFlatKey)

	flags.IntP(parallelFlagName, "p", viper.GetInt(summaryParallelKey), "number of inputs parsed concurrently")
	bindFlagToConfig(flags.Lookup(parallelFlagName), summaryParallelKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		os.Exit(1)
	}
}

// workflowFor wires a workflow reading standard input from cmd and writing
// to its output.
func workflowFor(cmd *cobra.Command) domain.Workflow {
	ui := controller.NewUI(
		cmd.OutOrStdout(),
		controller.WithFormat(controller.ParseFormat(viper.GetString(outputFormatKey))),
		controller.WithPager(viper.GetBool(summaryPagerKey)),
	)

	return domain.NewWorkflow(adapter.NewLocalSourceFSAdapter(cmd.InOrStdin()), streamAdapter, reportStore, ui)
}

func workflowArgs(args []string) domain.Args {
	return domain.Args{
		Paths: parsePaths(args),
		Parser: parser.Options{
			Strict: viper.GetBool(parseStrictKey),
			Bail:   viper.GetBool(parseBailKey),
			Passes: viper.GetBool(parsePassesKey),
		},
		Deny:     viper.GetStringSlice(cleanDenyKey),
		Parallel: viper.GetInt(summaryParallelKey),
		Flat:     viper.GetBool(outputFlatKey),
		Output:   m.Path(viper.GetString(outputDirKey)),
	}
}

// parsePaths maps arguments to inputs; no arguments reads standard input.
func parsePaths(args []string) []m.Path {
	if len(args) == 0 {
		return []m.Path{m.Stdin}
	}

	paths := make([]m.Path, 0, len(args))
	for _, arg := range args {
		paths = append(paths, m.Path(arg))
	}

	return paths
}

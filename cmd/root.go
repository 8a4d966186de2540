package cmd

import (
	"os"

	log "github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/maxgio92/wasmprof/cmd/names"
	"github.com/maxgio92/wasmprof/cmd/report"
	"github.com/maxgio92/wasmprof/internal/commands/options"
)

func NewRootCmd(opts *options.CommonOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wasmprof",
		Short: "wasmprof reports where a WebAssembly program spent its time",
		Long: `wasmprof aggregates the per-function execution times recorded by a profiling run
of a WebAssembly program, resolves function names from the modules' name sections
and prints the functions sorted by total time.`,
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}
	cmd.AddCommand(report.NewCommand(opts))
	cmd.AddCommand(names.NewCommand(opts))
	cmd.PersistentFlags().BoolVar(&opts.Debug, "debug", false, "Sets log level to debug")

	return cmd
}

// Execute adds all child commands to the root commands and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	logger := log.New(os.Stderr).Level(log.InfoLevel)

	opts := options.NewCommonOptions(
		options.WithLogger(logger),
		options.WithOutput(os.Stdout),
	)

	if err := NewRootCmd(opts).Execute(); err != nil {
		logger.Error().Err(err).Msg("wasmprof failed")
		os.Exit(1)
	}
}

package report

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	log "github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/maxgio92/wasmprof/internal/commands/options"
	"github.com/maxgio92/wasmprof/pkg/profile"
	"github.com/maxgio92/wasmprof/pkg/report"
	"github.com/maxgio92/wasmprof/pkg/resolve"
)

type Options struct {
	labels   []string
	flavor   string
	demangle bool
	*options.CommonOptions
}

func NewCommand(opts *options.CommonOptions) *cobra.Command {
	o := &Options{CommonOptions: opts}

	cmd := &cobra.Command{
		Use:   "report PROFILE [MODULE...]",
		Short: "report prints the total time and the share of it taken by each function of a profile",
		Long: `report reads a profile in CSV format and prints the time taken by each function,
sorted by descending time.

The profile has a header row naming the columns func_index and duration (in
microseconds), plus module_index when more than one module was profiled.
Profiles whose file name ends in .gz are decompressed.

Modules are the wasm binaries the profile was recorded on, in module index order:
the first is module 0. Function names are read from their name section.`,
		Args: cobra.MinimumNArgs(1),
		RunE: o.Run,
	}
	cmd.Flags().StringArrayVar(&o.labels, "label", nil, "display label of the module at the same position, repeatable (default: the module file name)")
	cmd.Flags().StringVar(&o.flavor, "flavor", profile.FlavorAuto.String(), "profile flavor: auto, single or modules")
	cmd.Flags().BoolVar(&o.demangle, "demangle", false, "demangle Rust and C++ function names")

	return cmd
}

func (o *Options) Run(_ *cobra.Command, args []string) error {
	if o.Debug {
		o.Logger = o.Logger.Level(log.DebugLevel)
	}

	flavor, err := profile.ParseFlavor(o.flavor)
	if err != nil {
		return err
	}
	modules := args[1:]
	if uint64(len(modules)) > math.MaxUint32 {
		return errors.Errorf("too many modules: %d", len(modules))
	}
	if len(o.labels) > len(modules) {
		return errors.Errorf("%d labels given for %d modules", len(o.labels), len(modules))
	}

	// Import the profile before any module.
	reader := profile.NewReader(
		profile.WithLogger(o.Logger),
		profile.WithFlavor(flavor),
	)
	prof, err := reader.ReadFile(args[0])
	if err != nil {
		return err
	}
	if !prof.ModuleAware() && len(modules) > 1 {
		o.Logger.Warn().Int("modules", len(modules)).Msg("the profile has no module index, names are read from the first module only")
	}

	resolver := resolve.NewResolver(
		resolve.WithLogger(o.Logger),
		resolve.WithDemangle(o.demangle),
	)
	for i, path := range modules {
		var label string
		if i < len(o.labels) {
			label = o.labels[i]
		}
		if err := resolver.RegisterFile(uint32(i), path, label); err != nil {
			return err
		}
	}

	// Print total time and time per function.
	_, err = fmt.Fprint(o.Out, report.Render(prof, resolver))

	return errors.Wrap(err, "error writing report")
}

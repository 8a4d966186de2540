package names

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
	log "github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/maxgio92/wasmprof/internal/commands/options"
	"github.com/maxgio92/wasmprof/pkg/symtable"
)

type Options struct {
	demangle bool
	*options.CommonOptions
}

func NewCommand(opts *options.CommonOptions) *cobra.Command {
	o := &Options{CommonOptions: opts}

	cmd := &cobra.Command{
		Use:   "names MODULE",
		Short: "names prints the function names declared by the name section of a wasm module",
		Args:  cobra.ExactArgs(1),
		RunE:  o.Run,
	}
	cmd.Flags().BoolVar(&o.demangle, "demangle", false, "demangle Rust and C++ function names")

	return cmd
}

func (o *Options) Run(_ *cobra.Command, args []string) error {
	if o.Debug {
		o.Logger = o.Logger.Level(log.DebugLevel)
	}

	st := symtable.NewWasmSymTab(
		symtable.WithLogger(o.Logger),
		symtable.WithDemangle(o.demangle),
	)
	if err := st.Load(args[0]); err != nil {
		return errors.Wrapf(err, "error loading %s", args[0])
	}
	if !st.HasNames() {
		o.Logger.Info().Str("path", args[0]).Msg("module has no name section")
		return nil
	}

	syms := st.Symbols()
	indices := make([]uint32, 0, len(syms))
	for i := range syms {
		indices = append(indices, i)
	}
	sort.Slice(indices, func(a, b int) bool { return indices[a] < indices[b] })

	for _, i := range indices {
		if _, err := fmt.Fprintf(o.Out, "%d\t%s\n", i, syms[i]); err != nil {
			return errors.Wrap(err, "error writing names")
		}
	}

	return nil
}

package resolve

import (
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/rs/zerolog"

	"github.com/maxgio92/wasmprof/pkg/profile"
	"github.com/maxgio92/wasmprof/pkg/symcache"
	"github.com/maxgio92/wasmprof/pkg/symtable"
)

// Resolver maps module indices to display labels and profile keys to the
// function names declared by the modules' name sections.
type Resolver struct {
	modules  map[uint32]string
	names    *symcache.SymCache
	logger   log.Logger
	demangle bool
}

func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		modules: make(map[uint32]string),
		names:   symcache.NewSymCache(),
		logger:  log.Nop(),
	}
	for _, f := range opts {
		f(r)
	}

	return r
}

// Register decodes the wasm module binary and records its label and function
// names under moduleIndex. Registering an index again replaces its label and
// names.
//
// It fails with a *symtable.DecodeError if binary is not a wasm module and
// with a *symtable.NameSectionError if its name section is malformed.
func (r *Resolver) Register(moduleIndex uint32, label string, binary []byte) error {
	st := r.newSymTab()
	if err := st.LoadBytes(binary); err != nil {
		return errors.Wrapf(err, "error registering module %d (%s)", moduleIndex, label)
	}
	r.register(moduleIndex, label, st)

	return nil
}

// RegisterFile is like Register for the module stored at path.
// An empty label defaults to the file name.
func (r *Resolver) RegisterFile(moduleIndex uint32, path, label string) error {
	if label == "" {
		label = filepath.Base(path)
	}
	st := r.newSymTab()
	if err := st.Load(path); err != nil {
		return errors.Wrapf(err, "error registering module %d (%s)", moduleIndex, path)
	}
	r.register(moduleIndex, label, st)

	return nil
}

func (r *Resolver) newSymTab() *symtable.WasmSymTab {
	return symtable.NewWasmSymTab(
		symtable.WithLogger(r.logger),
		symtable.WithDemangle(r.demangle),
	)
}

func (r *Resolver) register(moduleIndex uint32, label string, st *symtable.WasmSymTab) {
	if prev, ok := r.modules[moduleIndex]; ok {
		r.logger.Debug().Uint32("module_index", moduleIndex).Str("previous", prev).Msg("replacing module")
	}
	r.modules[moduleIndex] = label

	r.names.Drop(moduleIndex)
	syms := st.Symbols()
	for fn, name := range syms {
		r.names.Set(moduleIndex, fn, name)
	}

	e := r.logger.Debug().Uint32("module_index", moduleIndex).Str("label", label).Int("functions", len(syms))
	if !st.HasNames() {
		e = e.Bool("name_section", false)
	}
	e.Msg("module registered")
}

// ModuleName returns the label of the module.
func (r *Resolver) ModuleName(moduleIndex uint32) (string, bool) {
	label, ok := r.modules[moduleIndex]
	return label, ok
}

// FunctionName returns the name the module of the key gives to its function.
func (r *Resolver) FunctionName(k profile.Key) (string, bool) {
	name, err := r.names.Get(k.Module, k.Func)
	if err != nil {
		return "", false
	}

	return name, true
}

package symtable

import (
	"os"

	"github.com/ianlancetaylor/demangle"
	"github.com/pkg/errors"
	log "github.com/rs/zerolog"
	"github.com/tetratelabs/wabin/binary"
	"github.com/tetratelabs/wabin/wasm"
)

var (
	ErrSymtableEmpty = errors.New("symtable is empty")
)

// features are the wasm core features accepted when decoding modules.
var features = wasm.CoreFeaturesV2

// WasmSymTab is the function name table of a wasm module,
// read from the optional "name" custom section.
type WasmSymTab struct {
	symtab     map[uint32]string
	moduleName string
	hasNames   bool
	demangle   bool
	logger     log.Logger
}

func NewWasmSymTab(opts ...Option) *WasmSymTab {
	w := &WasmSymTab{logger: log.Nop()}
	for _, f := range opts {
		f(w)
	}

	return w
}

// Load reads the wasm module at pathname and loads its name table.
func (w *WasmSymTab) Load(pathname string) error {
	// Skip load if a module has already been loaded.
	if w.symtab != nil {
		return nil
	}
	data, err := os.ReadFile(pathname)
	if err != nil {
		return errors.Wrap(err, "error reading wasm module")
	}
	w.logger.Debug().Str("path", pathname).Int("size", len(data)).Msg("wasm module read")

	return w.LoadBytes(data)
}

// LoadBytes decodes the wasm module binary and loads its name table.
// A module without a name section loads an empty table.
// Custom sections other than "name" are ignored.
func (w *WasmSymTab) LoadBytes(data []byte) error {
	if w.symtab != nil {
		return nil
	}

	l, err := splitSections(data)
	if err != nil {
		return &DecodeError{Err: err}
	}
	if _, err := binary.DecodeModule(l.core, features); err != nil {
		return &DecodeError{Err: err}
	}

	symtab := make(map[uint32]string)
	if len(l.names) == 0 {
		w.logger.Debug().Msg("wasm module has no name section")
		w.symtab = symtab
		return nil
	}
	if len(l.names) > 1 {
		return &NameSectionError{Err: errors.Wrapf(ErrDuplicateNameSection, "%d name sections", len(l.names))}
	}
	if err := validateNameSection(l.namePayload); err != nil {
		return &NameSectionError{Err: err}
	}

	m, err := binary.DecodeModule(l.withNames(), features)
	if err != nil {
		return &NameSectionError{Err: err}
	}
	if m.NameSection != nil {
		w.moduleName = m.NameSection.ModuleName
		for _, n := range m.NameSection.FunctionNames {
			symtab[n.Index] = w.symbolName(n.Name)
		}
	}
	w.symtab = symtab
	w.hasNames = true
	w.logger.Debug().Str("module", w.moduleName).Int("functions", len(symtab)).Msg("wasm name section loaded")

	return nil
}

func (w *WasmSymTab) symbolName(name string) string {
	if !w.demangle {
		return name
	}

	return demangle.Filter(name)
}

// GetSymbol returns the name of the function at the index in the function
// index space of the module, or an empty string if the module does not name it.
func (w *WasmSymTab) GetSymbol(index uint32) (string, error) {
	if w.symtab == nil {
		return "", ErrSymtableEmpty
	}

	return w.symtab[index], nil
}

// Symbols returns a copy of the function name table.
func (w *WasmSymTab) Symbols() map[uint32]string {
	syms := make(map[uint32]string, len(w.symtab))
	for i, s := range w.symtab {
		syms[i] = s
	}

	return syms
}

// ModuleName is the module name declared in the name section, if any.
func (w *WasmSymTab) ModuleName() string {
	return w.moduleName
}

// HasNames reports whether the loaded module carries a name section.
func (w *WasmSymTab) HasNames() bool {
	return w.hasNames
}

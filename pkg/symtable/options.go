package symtable

import (
	log "github.com/rs/zerolog"
)

type Option func(w *WasmSymTab)

func WithLogger(logger log.Logger) Option {
	return func(w *WasmSymTab) {
		w.logger = logger
	}
}

// WithDemangle demangles Rust and C++ symbol names.
func WithDemangle(demangle bool) Option {
	return func(w *WasmSymTab) {
		w.demangle = demangle
	}
}

// Package wasmtest builds small wasm binaries for tests.
package wasmtest

import (
	"sort"

	"github.com/tetratelabs/wabin/leb128"
)

const (
	sectionIDCustom   = 0
	sectionIDType     = 1
	sectionIDFunction = 3
	sectionIDCode     = 10

	subsectionModuleName    = 0
	subsectionFunctionNames = 1
)

var header = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

// Module returns a wasm binary defining funcs functions of type [] -> [].
// A name section is appended when names is not nil.
func Module(funcs int, moduleName string, names map[uint32]string) []byte {
	bin := body(funcs)
	if names == nil {
		return bin
	}

	var payload []byte
	if moduleName != "" {
		payload = append(payload, subsection(subsectionModuleName, str(moduleName))...)
	}
	payload = append(payload, subsection(subsectionFunctionNames, nameMap(names))...)

	return append(bin, custom("name", payload)...)
}

// TruncatedNames returns a wasm binary whose trailing name section declares
// more function names than it holds.
func TruncatedNames(funcs int) []byte {
	// Five names announced, only the index of the first one and the size of
	// its name are present.
	content := []byte{0x05, 0x00, 0x09}

	return append(body(funcs), custom("name", subsection(subsectionFunctionNames, content))...)
}

// Custom returns a wasm binary with an extra custom section.
func Custom(funcs int, name string, payload []byte) []byte {
	return append(body(funcs), custom(name, payload)...)
}

func body(funcs int) []byte {
	bin := append([]byte{}, header...)
	if funcs == 0 {
		return bin
	}

	// One type: no params, no results.
	bin = append(bin, section(sectionIDType, []byte{0x01, 0x60, 0x00, 0x00})...)

	fns := leb128.EncodeUint32(uint32(funcs))
	code := leb128.EncodeUint32(uint32(funcs))
	for i := 0; i < funcs; i++ {
		fns = append(fns, 0x00)
		// Body size 2: no locals, end.
		code = append(code, 0x02, 0x00, 0x0b)
	}
	bin = append(bin, section(sectionIDFunction, fns)...)

	return append(bin, section(sectionIDCode, code)...)
}

func nameMap(names map[uint32]string) []byte {
	indices := make([]uint32, 0, len(names))
	for i := range names {
		indices = append(indices, i)
	}
	sort.Slice(indices, func(a, b int) bool { return indices[a] < indices[b] })

	out := leb128.EncodeUint32(uint32(len(indices)))
	for _, i := range indices {
		out = append(out, leb128.EncodeUint32(i)...)
		out = append(out, str(names[i])...)
	}

	return out
}

func custom(name string, payload []byte) []byte {
	return section(sectionIDCustom, append(str(name), payload...))
}

func subsection(id byte, content []byte) []byte {
	out := append([]byte{id}, leb128.EncodeUint32(uint32(len(content)))...)
	return append(out, content...)
}

func section(id byte, payload []byte) []byte {
	out := append([]byte{id}, leb128.EncodeUint32(uint32(len(payload)))...)
	return append(out, payload...)
}

func str(s string) []byte {
	return append(leb128.EncodeUint32(uint32(len(s))), s...)
}

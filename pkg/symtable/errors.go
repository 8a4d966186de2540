package symtable

import "fmt"

// DecodeError reports bytes that are not a valid wasm module.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("invalid wasm module: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// NameSectionError reports a valid wasm module whose name section is malformed.
type NameSectionError struct {
	Err error
}

func (e *NameSectionError) Error() string {
	return fmt.Sprintf("malformed name section: %v", e.Err)
}

func (e *NameSectionError) Unwrap() error {
	return e.Err
}

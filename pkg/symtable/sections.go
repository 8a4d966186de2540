package symtable

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
	"github.com/tetratelabs/wabin/leb128"
)

const (
	sectionIDCustom = 0

	// nameSectionName is the name of the custom section carrying debug names.
	nameSectionName = "name"

	subsectionModuleName    = 0
	subsectionFunctionNames = 1
	subsectionLocalNames    = 2
)

var (
	wasmMagic   = []byte{0x00, 0x61, 0x73, 0x6d}
	wasmVersion = []byte{0x01, 0x00, 0x00, 0x00}

	ErrInvalidMagic   = errors.New("invalid magic number")
	ErrInvalidVersion = errors.New("invalid version header")

	ErrCustomSectionName    = errors.New("unreadable custom section name")
	ErrDuplicateNameSection = errors.New("duplicate name section")
	ErrSubsectionSize       = errors.New("name subsection size mismatch")
	ErrSubsectionOrder      = errors.New("name subsections out of order")
)

// section locates a top-level section inside a wasm binary.
// The section spans [start, end), its payload [payload, end).
type section struct {
	id      byte
	start   int
	payload int
	end     int
}

// walkSections splits a wasm binary into its top-level sections,
// without decoding their content.
func walkSections(data []byte) ([]section, error) {
	if len(data) < len(wasmMagic) || !bytes.Equal(data[:len(wasmMagic)], wasmMagic) {
		return nil, ErrInvalidMagic
	}
	header := len(wasmMagic) + len(wasmVersion)
	if len(data) < header || !bytes.Equal(data[len(wasmMagic):header], wasmVersion) {
		return nil, ErrInvalidVersion
	}

	var sections []section
	r := bytes.NewReader(data[header:])
	for r.Len() > 0 {
		start := len(data) - r.Len()
		id, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		size, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return nil, errors.Wrapf(err, "error reading size of section at offset %d", start)
		}
		if uint64(size) > uint64(r.Len()) {
			return nil, errors.Errorf("section at offset %d: size %d exceeds the %d remaining bytes", start, size, r.Len())
		}
		payload := len(data) - r.Len()
		if _, err := r.Seek(int64(size), io.SeekCurrent); err != nil {
			return nil, err
		}
		sections = append(sections, section{id: id, start: start, payload: payload, end: payload + int(size)})
	}

	return sections, nil
}

// customName returns the name of a custom section and the offset in data
// where its content starts.
func (s section) customName(data []byte) (string, int, bool) {
	if s.id != sectionIDCustom {
		return "", 0, false
	}
	r := bytes.NewReader(data[s.payload:s.end])
	n, _, err := leb128.DecodeUint32(r)
	if err != nil || uint64(n) > uint64(r.Len()) {
		return "", 0, false
	}
	off := s.end - r.Len()

	return string(data[off : off+int(n)]), off + int(n), true
}

// layout is a wasm binary split for decoding.
// core holds the header and the non-custom sections, in their order.
// names holds every "name" custom section, whole.
type layout struct {
	core  []byte
	names [][]byte
	// namePayload is the content of the first name section, after its name.
	namePayload []byte
}

// splitSections separates the name sections of a wasm binary from its
// core sections. Custom sections other than "name" are dropped.
func splitSections(data []byte) (*layout, error) {
	sections, err := walkSections(data)
	if err != nil {
		return nil, err
	}

	l := &layout{core: make([]byte, 0, len(data))}
	l.core = append(l.core, data[:len(wasmMagic)+len(wasmVersion)]...)
	for _, s := range sections {
		if s.id != sectionIDCustom {
			l.core = append(l.core, data[s.start:s.end]...)
			continue
		}
		name, content, ok := s.customName(data)
		if !ok {
			return nil, errors.Wrapf(ErrCustomSectionName, "custom section at offset %d", s.start)
		}
		if name != nameSectionName {
			continue
		}
		if l.names == nil {
			l.namePayload = data[content:s.end]
		}
		l.names = append(l.names, data[s.start:s.end])
	}

	return l, nil
}

// withNames returns the core sections followed by the name section.
func (l *layout) withNames() []byte {
	bin := make([]byte, 0, len(l.core)+len(l.names[0]))
	bin = append(bin, l.core...)

	return append(bin, l.names[0]...)
}

// validateNameSection checks the subsections of a name section payload:
// each one lies within the payload, in increasing id order, and the
// module, function and local names subsections hold exactly their content.
func validateNameSection(payload []byte) error {
	r := bytes.NewReader(payload)
	last := -1
	for r.Len() > 0 {
		off := len(payload) - r.Len()
		id, err := r.ReadByte()
		if err != nil {
			return err
		}
		size, _, err := leb128.DecodeUint32(r)
		if err != nil {
			return errors.Wrapf(err, "error reading size of subsection %d at offset %d", id, off)
		}
		if uint64(size) > uint64(r.Len()) {
			return errors.Wrapf(ErrSubsectionSize, "subsection %d at offset %d: size %d exceeds the %d remaining bytes", id, off, size, r.Len())
		}
		if int(id) <= last {
			return errors.Wrapf(ErrSubsectionOrder, "subsection %d at offset %d follows subsection %d", id, off, last)
		}
		last = int(id)

		start := len(payload) - r.Len()
		content := payload[start : start+int(size)]
		if _, err := r.Seek(int64(size), io.SeekCurrent); err != nil {
			return err
		}
		if err := validateSubsection(id, content); err != nil {
			return errors.Wrapf(err, "subsection %d at offset %d", id, off)
		}
	}

	return nil
}

func validateSubsection(id byte, content []byte) error {
	r := bytes.NewReader(content)
	var err error
	switch id {
	case subsectionModuleName:
		err = skipName(r)
	case subsectionFunctionNames:
		err = skipNameMap(r)
	case subsectionLocalNames:
		err = skipVec(r, func(r *bytes.Reader) error {
			if _, _, err := leb128.DecodeUint32(r); err != nil {
				return err
			}
			return skipNameMap(r)
		})
	default:
		return nil
	}
	if err != nil {
		return errors.Wrapf(ErrSubsectionSize, "content does not fit its size %d: %v", len(content), err)
	}
	if r.Len() > 0 {
		return errors.Wrapf(ErrSubsectionSize, "%d trailing bytes", r.Len())
	}

	return nil
}

func skipNameMap(r *bytes.Reader) error {
	return skipVec(r, func(r *bytes.Reader) error {
		if _, _, err := leb128.DecodeUint32(r); err != nil {
			return err
		}
		return skipName(r)
	})
}

func skipVec(r *bytes.Reader, elem func(*bytes.Reader) error) error {
	n, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		if err := elem(r); err != nil {
			return errors.Wrapf(err, "element %d of %d", i, n)
		}
	}

	return nil
}

func skipName(r *bytes.Reader) error {
	n, _, err := leb128.DecodeUint32(r)
	if err != nil {
		return err
	}
	if uint64(n) > uint64(r.Len()) {
		return io.ErrUnexpectedEOF
	}
	_, err = r.Seek(int64(n), io.SeekCurrent)

	return err
}

package profile

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
	log "github.com/rs/zerolog"
)

// Flavor selects whether samples are keyed by module as well as by function.
type Flavor int

const (
	// FlavorAuto is module-aware iff the header has a module_index column.
	FlavorAuto Flavor = iota
	// FlavorSingle attributes every sample to module 0.
	FlavorSingle
	// FlavorModules requires a module_index column.
	FlavorModules
)

var flavorNames = map[Flavor]string{
	FlavorAuto:    "auto",
	FlavorSingle:  "single",
	FlavorModules: "modules",
}

func (f Flavor) String() string {
	if s, ok := flavorNames[f]; ok {
		return s
	}
	return fmt.Sprintf("Flavor(%d)", int(f))
}

func ParseFlavor(s string) (Flavor, error) {
	for f, name := range flavorNames {
		if name == s {
			return f, nil
		}
	}
	return FlavorAuto, errors.Errorf("unknown profile flavor %q (valid: auto, single, modules)", s)
}

const (
	ColumnModule   = "module_index"
	ColumnFunc     = "func_index"
	ColumnDuration = "duration"
)

// maxDurationMicros is the largest duration, in microseconds, that fits a time.Duration.
const maxDurationMicros = math.MaxInt64 / int64(time.Microsecond)

var (
	ErrMissingColumn   = errors.New("missing column")
	ErrDuplicateColumn = errors.New("duplicate column")
)

// Reader decodes profiles in CSV format.
//
// The first row is a header naming the columns func_index and duration,
// plus module_index for profiles of multiple modules. Each following row
// is one sample. Durations are in microseconds.
type Reader struct {
	logger log.Logger
	flavor Flavor
}

func NewReader(opts ...ReaderOption) *Reader {
	r := &Reader{logger: log.Nop()}
	for _, f := range opts {
		f(r)
	}

	return r
}

// ReadFile reads and aggregates the profile stored at path.
// Files whose name ends in .gz are decompressed.
func (r *Reader) ReadFile(path string) (*Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "error opening profile")
	}
	defer f.Close()

	var in io.Reader = f
	if filepath.Ext(path) == ".gz" {
		gr, err := gzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrapf(err, "error decompressing profile %s", path)
		}
		defer gr.Close()
		in = gr
	}
	r.logger.Debug().Str("path", path).Msg("reading profile")

	p, err := r.Read(in)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading profile %s", path)
	}

	return p, nil
}

// Read reads and aggregates the samples of a profile.
// A single malformed record fails the whole read.
func (r *Reader) Read(in io.Reader) (*Profile, error) {
	cr := csv.NewReader(in)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		// No header and no samples: an empty profile.
		return NewAggregator(r.flavor == FlavorModules).Profile(), nil
	}
	if err != nil {
		return nil, formatError(err)
	}

	cols, err := r.parseHeader(header)
	if err != nil {
		return nil, err
	}
	moduleAware := cols.module >= 0
	r.logger.Debug().Bool("module_aware", moduleAware).Str("flavor", r.flavor.String()).Msg("profile header decoded")

	agg := NewAggregator(moduleAware)
	records := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, formatError(err)
		}
		line, _ := cr.FieldPos(0)

		s, err := cols.sample(record, line)
		if err != nil {
			return nil, err
		}
		if err := agg.Add(s); err != nil {
			return nil, &FormatError{Line: line, Column: ColumnDuration, Err: err}
		}
		records++
	}

	p := agg.Profile()
	r.logger.Debug().Int("records", records).Int("functions", p.Len()).Msg("profile aggregated")

	return p, nil
}

// columns holds the position of each known column in a record, -1 if absent.
type columns struct {
	module   int
	fn       int
	duration int
}

func (r *Reader) parseHeader(header []string) (columns, error) {
	cols := columns{module: -1, fn: -1, duration: -1}
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		var dst *int
		switch name {
		case ColumnModule:
			dst = &cols.module
		case ColumnFunc:
			dst = &cols.fn
		case ColumnDuration:
			dst = &cols.duration
		default:
			continue
		}
		if *dst >= 0 {
			return cols, &FormatError{Line: 1, Column: name, Err: ErrDuplicateColumn}
		}
		*dst = i
	}

	if cols.fn < 0 {
		return cols, &FormatError{Line: 1, Column: ColumnFunc, Err: ErrMissingColumn}
	}
	if cols.duration < 0 {
		return cols, &FormatError{Line: 1, Column: ColumnDuration, Err: ErrMissingColumn}
	}

	switch r.flavor {
	case FlavorSingle:
		cols.module = -1
	case FlavorModules:
		if cols.module < 0 {
			return cols, &FormatError{Line: 1, Column: ColumnModule, Err: ErrMissingColumn}
		}
	}

	return cols, nil
}

func (c columns) sample(record []string, line int) (Sample, error) {
	var s Sample

	fn, err := strconv.ParseUint(record[c.fn], 10, 32)
	if err != nil {
		return s, &FormatError{Line: line, Column: ColumnFunc, Err: err}
	}
	s.Func = uint32(fn)

	if c.module >= 0 {
		module, err := strconv.ParseUint(record[c.module], 10, 32)
		if err != nil {
			return s, &FormatError{Line: line, Column: ColumnModule, Err: err}
		}
		s.Module = uint32(module)
	}

	micros, err := strconv.ParseUint(record[c.duration], 10, 64)
	if err != nil {
		return s, &FormatError{Line: line, Column: ColumnDuration, Err: err}
	}
	if micros > uint64(maxDurationMicros) {
		return s, &FormatError{Line: line, Column: ColumnDuration, Err: ErrDurationRange}
	}
	s.Duration = time.Duration(micros) * time.Microsecond

	return s, nil
}

func formatError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return &FormatError{Line: pe.Line, Err: pe.Err}
	}

	return &FormatError{Err: err}
}

package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/maxgio92/wasmprof/pkg/profile"
)

// Names resolves display names for the report.
type Names interface {
	ModuleName(moduleIndex uint32) (string, bool)
	FunctionName(k profile.Key) (string, bool)
}

// Entry is a row of the report.
type Entry struct {
	Key      profile.Key
	Duration time.Duration
	// Percent is the floored share of the total time.
	Percent uint64
}

// Entries returns the rows of the profile sorted by descending duration.
// Rows with the same duration are sorted by ascending key.
// A profile whose total is under one microsecond has no rows.
func Entries(p *profile.Profile) []Entry {
	total := micros(p.Total())
	if total == 0 {
		return nil
	}

	keys := p.Keys()
	entries := make([]Entry, 0, len(keys))
	for _, k := range keys {
		d, _ := p.Duration(k)
		entries = append(entries, Entry{
			Key:      k,
			Duration: d,
			Percent:  residency(micros(d), total),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Duration > entries[j].Duration })

	return entries
}

// Render returns the text report of the profile.
// names may be nil, in which case every label is a placeholder.
func Render(p *profile.Profile, names Names) string {
	var b strings.Builder
	// Writing to a strings.Builder does not fail.
	_ = Write(&b, p, names)

	return b.String()
}

// Write writes the text report of the profile to w.
func Write(w io.Writer, p *profile.Profile, names Names) error {
	if _, err := fmt.Fprintf(w, "Total time taken %dus\n", micros(p.Total())); err != nil {
		return err
	}

	for _, e := range Entries(p) {
		label := functionLabel(names, e.Key)
		if p.ModuleAware() {
			label = moduleLabel(names, e.Key.Module) + ":" + label
		}
		if _, err := fmt.Fprintf(w, "Function %s took %dus (%d%%)\n", label, micros(e.Duration), e.Percent); err != nil {
			return err
		}
	}

	return nil
}

func moduleLabel(names Names, moduleIndex uint32) string {
	if names != nil {
		if label, ok := names.ModuleName(moduleIndex); ok {
			return label
		}
	}

	return fmt.Sprintf("<module:%d>", moduleIndex)
}

func functionLabel(names Names, k profile.Key) string {
	if names != nil {
		if name, ok := names.FunctionName(k); ok {
			return name
		}
	}

	return fmt.Sprintf("<index:%d>", k.Func)
}

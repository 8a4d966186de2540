package profile

import (
	"math"
	"sort"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrDurationRange    = errors.New("duration out of range")
	ErrNegativeDuration = errors.New("negative duration")
)

// Key identifies one aggregation bucket: a function inside a module.
type Key struct {
	Module uint32
	Func   uint32
}

// Less orders keys by module index first, then by function index.
func (k Key) Less(o Key) bool {
	if k.Module != o.Module {
		return k.Module < o.Module
	}
	return k.Func < o.Func
}

// Sample is a single execution-time measurement of a function.
type Sample struct {
	Module   uint32
	Func     uint32
	Duration time.Duration
}

func (s Sample) Key() Key {
	return Key{Module: s.Module, Func: s.Func}
}

// Profile is the cumulative duration per Key of one profiling run.
// It is read-only once built.
type Profile struct {
	durations   map[Key]time.Duration
	total       time.Duration
	moduleAware bool
}

// Len returns the number of distinct keys.
func (p *Profile) Len() int {
	return len(p.durations)
}

// Duration returns the cumulative duration of the key.
func (p *Profile) Duration(k Key) (time.Duration, bool) {
	d, ok := p.durations[k]
	return d, ok
}

// Total returns the sum of all the durations.
func (p *Profile) Total() time.Duration {
	return p.total
}

// Keys returns the keys in ascending order.
func (p *Profile) Keys() []Key {
	keys := make([]Key, 0, len(p.durations))
	for k := range p.durations {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	return keys
}

// ModuleAware reports whether the samples carried a module index.
// Reports of single-module profiles omit the module label.
func (p *Profile) ModuleAware() bool {
	return p.moduleAware
}

// Aggregator folds samples into a Profile, summing the durations of
// samples that share the same Key.
// The sum of all the durations must fit a time.Duration.
type Aggregator struct {
	durations   map[Key]time.Duration
	total       time.Duration
	moduleAware bool
}

func NewAggregator(moduleAware bool) *Aggregator {
	return &Aggregator{
		durations:   make(map[Key]time.Duration),
		moduleAware: moduleAware,
	}
}

// Add adds the duration of the sample to its bucket.
// A sample that is negative or that would overflow the total is not added.
func (a *Aggregator) Add(s Sample) error {
	if s.Duration < 0 {
		return ErrNegativeDuration
	}
	// No bucket exceeds the total, so a total that fits means every bucket fits.
	if s.Duration > math.MaxInt64-a.total {
		return errors.Wrapf(ErrDurationRange, "total exceeds %v", time.Duration(math.MaxInt64))
	}
	a.durations[s.Key()] += s.Duration
	a.total += s.Duration

	return nil
}

// Profile returns a snapshot of the samples added so far.
// Later calls to Add do not affect the returned Profile.
func (a *Aggregator) Profile() *Profile {
	durations := make(map[Key]time.Duration, len(a.durations))
	for k, d := range a.durations {
		durations[k] = d
	}

	return &Profile{durations: durations, total: a.total, moduleAware: a.moduleAware}
}

// Build aggregates the samples of a module-aware run.
func Build(samples []Sample) (*Profile, error) {
	a := NewAggregator(true)
	for i, s := range samples {
		if err := a.Add(s); err != nil {
			return nil, errors.Wrapf(err, "sample %d", i)
		}
	}

	return a.Profile(), nil
}

// BuildSingle aggregates the samples of a run that profiled a single module.
// The module index of the samples is ignored.
func BuildSingle(samples []Sample) (*Profile, error) {
	a := NewAggregator(false)
	for i, s := range samples {
		s.Module = 0
		if err := a.Add(s); err != nil {
			return nil, errors.Wrapf(err, "sample %d", i)
		}
	}

	return a.Profile(), nil
}

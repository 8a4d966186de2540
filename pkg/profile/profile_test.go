package profile_test

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/maxgio92/wasmprof/pkg/profile"
)

func build(t *testing.T, samples []profile.Sample) *profile.Profile {
	t.Helper()
	p, err := profile.Build(samples)
	require.NoError(t, err)
	return p
}

func buildSingle(t *testing.T, samples []profile.Sample) *profile.Profile {
	t.Helper()
	p, err := profile.BuildSingle(samples)
	require.NoError(t, err)
	return p
}

func durations(p *profile.Profile) map[profile.Key]time.Duration {
	m := make(map[profile.Key]time.Duration, p.Len())
	for _, k := range p.Keys() {
		d, _ := p.Duration(k)
		m[k] = d
	}
	return m
}

func TestBuildSumsDuplicateKeys(t *testing.T) {
	p := build(t, []profile.Sample{
		{Module: 0, Func: 0, Duration: 1000 * time.Microsecond},
		{Module: 0, Func: 0, Duration: 234 * time.Microsecond},
	})

	require.Equal(t, 1, p.Len())
	d, ok := p.Duration(profile.Key{Module: 0, Func: 0})
	require.True(t, ok)
	require.Equal(t, 1234*time.Microsecond, d)
	require.True(t, p.ModuleAware())
}

func TestBuildKeepsModulesApart(t *testing.T) {
	p := build(t, []profile.Sample{
		{Module: 0, Func: 3, Duration: time.Millisecond},
		{Module: 1, Func: 3, Duration: 2 * time.Millisecond},
		{Module: 1, Func: 3, Duration: 3 * time.Millisecond},
	})

	want := map[profile.Key]time.Duration{
		{Module: 0, Func: 3}: time.Millisecond,
		{Module: 1, Func: 3}: 5 * time.Millisecond,
	}
	if diff := cmp.Diff(want, durations(p)); diff != "" {
		t.Errorf("unexpected profile (-want +got):\n%s", diff)
	}
	require.Equal(t, 6*time.Millisecond, p.Total())
}

func TestBuildIsOrderIndependent(t *testing.T) {
	samples := make([]profile.Sample, 0, 200)
	for i := 0; i < 200; i++ {
		samples = append(samples, profile.Sample{
			Module:   uint32(i % 3),
			Func:     uint32(i % 7),
			Duration: time.Duration(i*13+1) * time.Microsecond,
		})
	}
	want := durations(build(t, samples))

	rnd := rand.New(rand.NewSource(42))
	for i := 0; i < 10; i++ {
		shuffled := make([]profile.Sample, len(samples))
		copy(shuffled, samples)
		rnd.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		if diff := cmp.Diff(want, durations(build(t, shuffled))); diff != "" {
			t.Fatalf("permutation %d changed the profile (-want +got):\n%s", i, diff)
		}
	}
}

func TestBuildSingleIgnoresModule(t *testing.T) {
	p := buildSingle(t, []profile.Sample{
		{Module: 4, Func: 1, Duration: time.Microsecond},
		{Module: 0, Func: 1, Duration: time.Microsecond},
	})

	require.False(t, p.ModuleAware())
	d, ok := p.Duration(profile.Key{Func: 1})
	require.True(t, ok)
	require.Equal(t, 2*time.Microsecond, d)
}

func TestAggregatorSnapshot(t *testing.T) {
	a := profile.NewAggregator(true)
	require.NoError(t, a.Add(profile.Sample{Func: 1, Duration: time.Microsecond}))
	p := a.Profile()
	require.NoError(t, a.Add(profile.Sample{Func: 1, Duration: time.Microsecond}))
	require.NoError(t, a.Add(profile.Sample{Func: 2, Duration: time.Microsecond}))

	require.Equal(t, 1, p.Len())
	d, _ := p.Duration(profile.Key{Func: 1})
	require.Equal(t, time.Microsecond, d)
	require.Equal(t, 2, a.Profile().Len())
}

func TestEmptyProfile(t *testing.T) {
	p := build(t, nil)

	require.Zero(t, p.Len())
	require.Zero(t, p.Total())
	require.Empty(t, p.Keys())
}

func TestKeysAscending(t *testing.T) {
	p := build(t, []profile.Sample{
		{Module: 1, Func: 0, Duration: 1},
		{Module: 0, Func: 9, Duration: 1},
		{Module: 0, Func: 2, Duration: 1},
	})

	require.Equal(t, []profile.Key{
		{Module: 0, Func: 2},
		{Module: 0, Func: 9},
		{Module: 1, Func: 0},
	}, p.Keys())
}

func TestAggregatorRejectsOverflow(t *testing.T) {
	half := time.Duration(math.MaxInt64/2 + 1)

	tests := []struct {
		name    string
		samples []profile.Sample
	}{
		{"same key", []profile.Sample{{Func: 0, Duration: half}, {Func: 0, Duration: half}}},
		{"distinct keys", []profile.Sample{{Func: 0, Duration: half}, {Func: 1, Duration: half}}},
		{"distinct modules", []profile.Sample{{Module: 0, Duration: half}, {Module: 1, Duration: half}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := profile.Build(tt.samples)
			require.ErrorIs(t, err, profile.ErrDurationRange)
			require.Nil(t, p)
		})
	}
}

func TestAggregatorKeepsStateOnRejectedSample(t *testing.T) {
	a := profile.NewAggregator(true)
	require.NoError(t, a.Add(profile.Sample{Func: 0, Duration: math.MaxInt64 - 1}))
	require.ErrorIs(t, a.Add(profile.Sample{Func: 1, Duration: 2}), profile.ErrDurationRange)
	require.ErrorIs(t, a.Add(profile.Sample{Func: 1, Duration: -1}), profile.ErrNegativeDuration)
	require.NoError(t, a.Add(profile.Sample{Func: 1, Duration: 1}))

	p := a.Profile()
	require.Equal(t, time.Duration(math.MaxInt64), p.Total())
	d, _ := p.Duration(profile.Key{Func: 1})
	require.Equal(t, time.Duration(1), d)
}

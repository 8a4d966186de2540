package report_test

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/maxgio92/wasmprof/internal/wasmtest"
	"github.com/maxgio92/wasmprof/pkg/profile"
	"github.com/maxgio92/wasmprof/pkg/report"
	"github.com/maxgio92/wasmprof/pkg/resolve"
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

type names struct {
	modules   map[uint32]string
	functions map[profile.Key]string
}

func (n names) ModuleName(moduleIndex uint32) (string, bool) {
	s, ok := n.modules[moduleIndex]
	return s, ok
}

func (n names) FunctionName(k profile.Key) (string, bool) {
	s, ok := n.functions[k]
	return s, ok
}

func us(n int64) time.Duration {
	return time.Duration(n) * time.Microsecond
}

func TestRenderSingleModule(t *testing.T) {
	p := buildSingle(t, []profile.Sample{
		{Func: 0, Duration: us(1234)},
		{Func: 1, Duration: us(555)},
	})

	want := "Total time taken 1789us\n" +
		"Function <index:0> took 1234us (68%)\n" +
		"Function <index:1> took 555us (31%)\n"
	require.Equal(t, want, report.Render(p, nil))
}

func TestRenderEmpty(t *testing.T) {
	require.Equal(t, "Total time taken 0us\n", report.Render(build(t, nil), nil))
	require.Equal(t, "Total time taken 0us\n", report.Render(buildSingle(t, nil), names{}))
}

func TestRenderZeroTotal(t *testing.T) {
	p := build(t, []profile.Sample{{Func: 1, Duration: 0}, {Func: 2, Duration: 999 * time.Nanosecond}})

	require.Equal(t, "Total time taken 0us\n", report.Render(p, nil))
}

func TestRenderModules(t *testing.T) {
	p := build(t, []profile.Sample{
		{Module: 0, Func: 0, Duration: us(500)},
		{Module: 0, Func: 0, Duration: us(100)},
		{Module: 1, Func: 3, Duration: us(300)},
		{Module: 2, Func: 7, Duration: us(100)},
	})
	n := names{
		modules:   map[uint32]string{0: "app.wasm", 2: "lib.wasm"},
		functions: map[profile.Key]string{{Module: 0, Func: 0}: "main"},
	}

	want := "Total time taken 1000us\n" +
		"Function app.wasm:main took 600us (60%)\n" +
		"Function <module:1>:<index:3> took 300us (30%)\n" +
		"Function lib.wasm:<index:7> took 100us (10%)\n"
	require.Equal(t, want, report.Render(p, n))
}

func TestRenderSingleModuleOmitsModuleLabel(t *testing.T) {
	p := buildSingle(t, []profile.Sample{{Func: 2, Duration: us(10)}})
	n := names{
		modules:   map[uint32]string{0: "app.wasm"},
		functions: map[profile.Key]string{{Module: 0, Func: 2}: "run"},
	}

	require.Equal(t, "Total time taken 10us\nFunction run took 10us (100%)\n", report.Render(p, n))
}

func TestRenderWithResolver(t *testing.T) {
	r := resolve.NewResolver()
	require.NoError(t, r.Register(0, "app.wasm", wasmtest.Module(2, "", map[uint32]string{1: "hot_loop"})))
	p := build(t, []profile.Sample{
		{Module: 0, Func: 1, Duration: us(3)},
		{Module: 0, Func: 0, Duration: us(1)},
	})

	want := "Total time taken 4us\n" +
		"Function app.wasm:hot_loop took 3us (75%)\n" +
		"Function app.wasm:<index:0> took 1us (25%)\n"
	require.Equal(t, want, report.Render(p, r))
}

func TestEntriesTieBreak(t *testing.T) {
	p := build(t, []profile.Sample{
		{Module: 1, Func: 0, Duration: us(5)},
		{Module: 0, Func: 9, Duration: us(5)},
		{Module: 0, Func: 2, Duration: us(5)},
		{Module: 3, Func: 0, Duration: us(6)},
	})

	var keys []profile.Key
	for _, e := range report.Entries(p) {
		keys = append(keys, e.Key)
	}
	require.Equal(t, []profile.Key{
		{Module: 3, Func: 0},
		{Module: 0, Func: 2},
		{Module: 0, Func: 9},
		{Module: 1, Func: 0},
	}, keys)

	first := report.Render(p, nil)
	for i := 0; i < 20; i++ {
		require.Equal(t, first, report.Render(p, nil))
	}
}

func TestEntriesPercentSum(t *testing.T) {
	samples := make([]profile.Sample, 0, 37)
	for i := 0; i < 37; i++ {
		samples = append(samples, profile.Sample{Func: uint32(i), Duration: us(int64(i*i + 7))})
	}
	entries := report.Entries(build(t, samples))
	require.Len(t, entries, 37)

	var sum uint64
	for _, e := range entries {
		sum += e.Percent
	}
	require.LessOrEqual(t, sum, uint64(100))
	require.GreaterOrEqual(t, sum+uint64(len(entries)), uint64(100))
}

func TestEntriesLargeDurations(t *testing.T) {
	big := us(math.MaxInt64 / 4 / int64(time.Microsecond))
	p := build(t, []profile.Sample{
		{Func: 0, Duration: big},
		{Func: 1, Duration: big},
	})

	entries := report.Entries(p)
	require.Len(t, entries, 2)
	require.Equal(t, uint64(50), entries[0].Percent)
	require.Equal(t, uint64(50), entries[1].Percent)
}

func TestWrite(t *testing.T) {
	p := buildSingle(t, []profile.Sample{{Func: 0, Duration: us(1)}})
	var b strings.Builder

	require.NoError(t, report.Write(&b, p, nil))
	require.Equal(t, report.Render(p, nil), b.String())
}

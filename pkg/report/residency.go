package report

import (
	"math/bits"
	"time"
)

// micros returns the duration in whole microseconds.
func micros(d time.Duration) uint64 {
	if d < 0 {
		return 0
	}
	return uint64(d / time.Microsecond)
}

// residency returns the floored percentage of total that d accounts for.
// d must not exceed total, and total must not be zero.
func residency(d, total uint64) uint64 {
	hi, lo := bits.Mul64(d, 100)
	q, _ := bits.Div64(hi, lo, total)

	return q
}

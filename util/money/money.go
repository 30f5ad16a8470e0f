// Package money provides checked fixed-point arithmetic over smallest-unit
// amounts and second-granularity time spans. No floating point anywhere;
// overflow is an error, never a silent wrap.
package money

import "errors"

// DaySeconds is the rental day length used for proration and lateness.
const DaySeconds int64 = 86400

var ErrOverflow = errors.New("arithmetic overflow")

func Add(a, b uint64) (uint64, error) {
	sum := a + b
	if sum < a {
		return 0, ErrOverflow
	}
	return sum, nil
}

func Mul(a, b uint64) (uint64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	prod := a * b
	if prod/a != b {
		return 0, ErrOverflow
	}
	return prod, nil
}

// CeilDiv rounds a/b up. b must be positive.
func CeilDiv(a, b uint64) uint64 {
	if a == 0 {
		return 0
	}
	return (a-1)/b + 1
}

// Days converts an elapsed span in seconds to whole billing days, rounding
// up. Negative spans count as zero.
func Days(elapsed int64) uint64 {
	if elapsed <= 0 {
		return 0
	}
	return CeilDiv(uint64(elapsed), uint64(DaySeconds))
}

package sample

import "math"

// Scalar is the set of real element types a stream can carry.
type Scalar interface {
	int8 | uint8 | int16 | uint16 | int32 | float32 | float64
}

// Signed is the set of integer component types accepted by the fixed-point
// FM demodulator.
type Signed interface {
	int8 | int16
}

// IQ is a single complex sample: in-phase and quadrature components.
type IQ[T Scalar] struct {
	I T
	Q T
}

// IsFloat reports whether T is a floating point type.
func IsFloat[T Scalar]() bool {
	switch any(T(0)).(type) {
	case float32, float64:
		return true
	}
	return false
}

// Saturate converts v to T, truncating toward zero and clamping to the
// representable range of integer types.
func Saturate[T Scalar](v float64) T {
	var lo, hi float64
	switch any(T(0)).(type) {
	case int8:
		lo, hi = math.MinInt8, math.MaxInt8
	case uint8:
		lo, hi = 0, math.MaxUint8
	case int16:
		lo, hi = math.MinInt16, math.MaxInt16
	case uint16:
		lo, hi = 0, math.MaxUint16
	case int32:
		lo, hi = math.MinInt32, math.MaxInt32
	default:
		return T(v)
	}
	switch {
	case math.IsNaN(v):
		return 0
	case v < lo:
		return T(lo)
	case v > hi:
		return T(hi)
	}
	return T(v)
}

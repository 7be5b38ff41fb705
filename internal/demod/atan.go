package demod

import "math"

// FixedAngle is a piecewise-linear fixed-point approximation of atan2.
//
// Bits is the angular resolution: ±π maps to ±2^(Bits-2). Both arguments are
// shifted right by PreShift bits (left for negative values) before the
// angle is taken, which brings wide products into the range the fixed-point
// division handles. The approximation is monotone in the angle and its error
// stays below 0.072 rad.
type FixedAngle struct {
	Bits     int
	PreShift int
}

// Atan2 returns the angle of the vector (x, y) in fixed-point units. The
// zero vector yields 0.
func (f FixedAngle) Atan2(y, x int64) int64 {
	if f.PreShift >= 0 {
		y >>= f.PreShift
		x >>= f.PreShift
	} else {
		y <<= -f.PreShift
		x <<= -f.PreShift
	}
	if y == 0 && x == 0 {
		return 0
	}

	pi4 := int64(1) << (f.Bits - 4)
	pi34 := 3 * pi4
	ay := y
	if ay < 0 {
		ay = -ay
	}

	var angle int64
	if x >= 0 {
		angle = pi4 - pi4*(x-ay)/(x+ay)
	} else {
		angle = pi34 - pi4*(x+ay)/(ay-x)
	}
	if y < 0 {
		return -angle
	}
	return angle
}

// Radians converts a fixed-point angle to radians.
func (f FixedAngle) Radians(v int64) float64 {
	return float64(v) * math.Pi / float64(int64(1)<<(f.Bits-2))
}

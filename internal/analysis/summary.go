package analysis

import (
	"math"

	"go.uber.org/zap/zapcore"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes the level of a real signal.
type Summary struct {
	Count  int
	Mean   float64
	StdDev float64
	RMS    float64
	Min    float64
	Max    float64
}

// Summarize computes the level statistics of x. An empty x yields the zero
// Summary.
func Summarize(x []float64) Summary {
	if len(x) == 0 {
		return Summary{}
	}
	s := Summary{
		Count: len(x),
		RMS:   floats.Norm(x, 2) / math.Sqrt(float64(len(x))),
		Min:   floats.Min(x),
		Max:   floats.Max(x),
	}
	if len(x) > 1 {
		s.Mean, s.StdDev = stat.MeanStdDev(x, nil)
	} else {
		s.Mean = x[0]
	}
	return s
}

// MarshalLogObject lets a Summary be logged with zap.Object.
func (s Summary) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddInt("count", s.Count)
	enc.AddFloat64("mean", s.Mean)
	enc.AddFloat64("stddev", s.StdDev)
	enc.AddFloat64("rms", s.RMS)
	enc.AddFloat64("min", s.Min)
	enc.AddFloat64("max", s.Max)
	return nil
}

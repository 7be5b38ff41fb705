// Package metrics accounts for the samples each demodulator processes and
// drops.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder receives per-node sample accounting. Implementations must not
// block; they are called from the processing path.
type Recorder interface {
	Processed(node string, samples int)
	Dropped(node string, samples int)
}

type nop struct{}

func (nop) Processed(string, int) {}
func (nop) Dropped(string, int)   {}

// Nop returns a Recorder that discards everything.
func Nop() Recorder {
	return nop{}
}

// Prometheus exports sample and block counters labelled by node.
type Prometheus struct {
	processedSamples *prometheus.CounterVec
	processedBlocks  *prometheus.CounterVec
	droppedSamples   *prometheus.CounterVec
	droppedBlocks    *prometheus.CounterVec
}

// NewPrometheus registers the demodulator counters with reg.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	factory := promauto.With(reg)
	return &Prometheus{
		processedSamples: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "iqdemod",
			Name:      "processed_samples_total",
			Help:      "Input samples demodulated",
		}, []string{"node"}),
		processedBlocks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "iqdemod",
			Name:      "processed_blocks_total",
			Help:      "Input blocks demodulated",
		}, []string{"node"}),
		droppedSamples: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "iqdemod",
			Name:      "dropped_samples_total",
			Help:      "Input samples dropped because the output buffer was still in use",
		}, []string{"node"}),
		droppedBlocks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "iqdemod",
			Name:      "dropped_blocks_total",
			Help:      "Input blocks dropped because the output buffer was still in use",
		}, []string{"node"}),
	}
}

func (p *Prometheus) Processed(node string, samples int) {
	p.processedBlocks.WithLabelValues(node).Inc()
	p.processedSamples.WithLabelValues(node).Add(float64(samples))
}

func (p *Prometheus) Dropped(node string, samples int) {
	p.droppedBlocks.WithLabelValues(node).Inc()
	p.droppedSamples.WithLabelValues(node).Add(float64(samples))
}

// Package scoring computes per-student aggregates and the weighted composite
// from raw self, peer and teacher records.
package scoring

import (
	"fmt"
	"math"

	"github.com/okian/peereval/internal/domain/model"
)

// Default composition parameters.
const (
	DefaultTeacherWeight   = 0.40
	DefaultSelfWeight      = 0.20
	DefaultPeerWeight      = 0.40
	DefaultMinPeerReceived = 1

	compositePlaces = 2
	weightTolerance = 1e-9
)

// Weights are the linear coefficients of the composite.
type Weights struct {
	Teacher float64 `json:"teacher"`
	Self    float64 `json:"self"`
	Peer    float64 `json:"peer"`
}

// DefaultWeights returns teacher 0.40, self 0.20, peer 0.40.
func DefaultWeights() Weights {
	return Weights{Teacher: DefaultTeacherWeight, Self: DefaultSelfWeight, Peer: DefaultPeerWeight}
}

// Validate checks that weights are non-negative and sum to 1.
func (w Weights) Validate() error {
	if w.Teacher < 0 || w.Self < 0 || w.Peer < 0 {
		return fmt.Errorf("negative weight in %+v", w)
	}
	if sum := w.Teacher + w.Self + w.Peer; math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("weights sum to %.4f, must sum to 1", sum)
	}
	return nil
}

// Round rounds x half away from zero to the given number of decimal places.
func Round(x float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(x*p) / p
}

// Compose returns round(w.Teacher*teacher + w.Self*self + w.Peer*peer, 2) per metric.
func Compose(w Weights, teacher, self, peer model.Vector) model.Vector {
	t, s, p := teacher.Values(), self.Values(), peer.Values()
	var out [model.MetricCount]float64
	for i := range out {
		out[i] = Round(w.Teacher*t[i]+w.Self*s[i]+w.Peer*p[i], compositePlaces)
	}
	return model.VectorOf(out)
}

// Mean returns the rounded arithmetic mean of the six components.
func Mean(v model.Vector) float64 {
	var sum float64
	for _, x := range v.Values() {
		sum += x
	}
	return Round(sum/float64(model.MetricCount), compositePlaces)
}

// Average returns the component-wise mean of vs. It returns false when vs is empty.
func Average(vs []model.Vector) (model.Vector, bool) {
	if len(vs) == 0 {
		return model.Vector{}, false
	}
	var sum [model.MetricCount]float64
	for _, v := range vs {
		for i, x := range v.Values() {
			sum[i] += x
		}
	}
	n := float64(len(vs))
	for i := range sum {
		sum[i] /= n
	}
	return model.VectorOf(sum), true
}

package hpt

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/neurlang/rltune/space"
)

// Sampler draws a parameter set for a trial.
type Sampler interface {
	Sample(params []space.Dimension, seed int64) map[string]float64
}

// RandomSampler draws every parameter independently and uniformly within its
// boundaries. Integer parameters include both boundaries.
type RandomSampler struct{}

func (RandomSampler) Sample(params []space.Dimension, seed int64) map[string]float64 {
	src := rand.NewPCG(uint64(seed), uint64(len(params)))
	out := make(map[string]float64, len(params))
	for _, p := range params {
		if !p.Bounded() {
			out[p.Name] = p.Low
			continue
		}
		if p.Kind == space.Integer {
			u := distuv.Uniform{Min: math.Ceil(p.Low), Max: math.Floor(p.High) + 1, Src: src}
			out[p.Name] = math.Min(math.Floor(u.Rand()), math.Floor(p.High))
			continue
		}
		u := distuv.Uniform{Min: p.Low, Max: p.High, Src: src}
		out[p.Name] = u.Rand()
	}
	return out
}

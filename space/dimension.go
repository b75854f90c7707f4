// Package space implements dimensions, dimension sets and their elements.
// States, actions and hyperparameter tuples are all elements of a Set.
package space

import "math"
import "sync/atomic"

// Kind is the base set of a dimension.
type Kind byte

const (
	// Integer dimensions hold whole numbers ('Z').
	Integer Kind = 'Z'
	// Real dimensions hold real numbers ('R').
	Real Kind = 'R'
)

var lastID atomic.Int64

// Dimension describes one axis of a Set.
type Dimension struct {
	ID   int
	Name string
	Kind Kind
	Unit string
	Low  float64
	High float64
}

// NewDimension creates a dimension with a process-wide unique id.
func NewDimension(name string, kind Kind, low, high float64) Dimension {
	return Dimension{
		ID:   int(lastID.Add(1)),
		Name: name,
		Kind: kind,
		Low:  low,
		High: high,
	}
}

// Bounded reports whether the dimension has a non-empty boundary interval.
func (d Dimension) Bounded() bool {
	return d.High > d.Low
}

// Clamp clips v into the boundaries and rounds integer dimensions.
func (d Dimension) Clamp(v float64) float64 {
	if d.Kind == Integer {
		v = math.Round(v)
	}
	if !d.Bounded() {
		return v
	}
	if v < d.Low {
		v = d.Low
	}
	if v > d.High {
		v = d.High
	}
	return v
}

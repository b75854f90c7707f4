// Package hpt tunes hyperparameters by running an objective over sampled
// trials, in the manner of an Optuna study: a study owns numbered trials,
// each trial carries the sampled parameters and the objective value, and the
// study reports the best trial for its direction.
package hpt

import (
	"crypto/sha256"
	"encoding/binary"
	"math"
	"sort"
	"time"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

// ErrNoTrials is returned when a study has no complete trial.
var ErrNoTrials = errors.New("study has no complete trial")

// Direction of the optimization.
type Direction string

const (
	Maximize Direction = "maximize"
	Minimize Direction = "minimize"
)

// TrialState is the final state of a trial.
type TrialState string

const (
	TrialComplete TrialState = "complete"
	TrialFailed   TrialState = "failed"
)

// Trial is one evaluation of the objective.
type Trial struct {
	Number   int                `json:"number"`
	Params   map[string]float64 `json:"params"`
	Value    float64            `json:"value"`
	State    TrialState         `json:"state"`
	Seed     int64              `json:"seed"`
	Started  time.Time          `json:"started"`
	Duration time.Duration      `json:"duration"`
	Error    string             `json:"error,omitempty"`
}

// Param returns a sampled parameter.
func (t *Trial) Param(name string) (float64, bool) {
	v, ok := t.Params[name]
	return v, ok
}

// Study is a set of trials optimized in one direction.
type Study struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Direction Direction `json:"direction"`
	Created   time.Time `json:"created"`
	Trials    []Trial   `json:"trials"`
}

func (s *Study) better(a, b float64) bool {
	if s.Direction == Minimize {
		return a < b
	}
	return a > b
}

// Complete returns the complete trials in number order.
func (s *Study) Complete() []Trial {
	var out []Trial
	for _, t := range s.Trials {
		if t.State == TrialComplete {
			out = append(out, t)
		}
	}
	return out
}

// Best returns the best complete trial; ties go to the lower number.
func (s *Study) Best() (Trial, error) {
	var best Trial
	var found bool
	for _, t := range s.Complete() {
		if !found || s.better(t.Value, best.Value) {
			best, found = t, true
		}
	}
	if !found {
		return Trial{}, ErrNoTrials
	}
	return best, nil
}

// Median returns the median value of the complete trials.
func (s *Study) Median() (float64, error) {
	values := make([]float64, 0, len(s.Trials))
	for _, t := range s.Complete() {
		values = append(values, t.Value)
	}
	if len(values) == 0 {
		return math.NaN(), ErrNoTrials
	}
	sort.Float64s(values)
	return stat.Quantile(0.5, stat.Empirical, values, nil), nil
}

// NextNumber is the number the next trial gets.
func (s *Study) NextNumber() int {
	n := 0
	for _, t := range s.Trials {
		if t.Number >= n {
			n = t.Number + 1
		}
	}
	return n
}

func (s *Study) sortTrials() {
	sort.Slice(s.Trials, func(i, j int) bool { return s.Trials[i].Number < s.Trials[j].Number })
}

// Fingerprint identifies a parameter set independent of map order.
func Fingerprint(params map[string]float64) [32]byte {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	h := sha256.New()
	var buf [8]byte
	for _, name := range names {
		h.Write([]byte(name))
		h.Write([]byte{0})
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(params[name]))
		h.Write(buf[:])
	}
	var fp [32]byte
	copy(fp[:], h.Sum(nil))
	return fp
}

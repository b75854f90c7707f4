package main

import (
	"crypto/rand"
	"encoding/binary"
	"io"
	mrand "math/rand/v2"

	"github.com/go-logr/logr"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/neurlang/rltune/hyperparam"
	"github.com/neurlang/rltune/rl"
	"github.com/neurlang/rltune/space"
)

// policyDefaults are stored as given; several lie outside their sampling bounds.
var policyDefaults = []struct {
	name      string
	kind      space.Kind
	low, high float64
	value     float64
}{
	{"num_states", space.Integer, 1, 100, 100},
	{"smoothing", space.Real, 0.1, 0.5, 0.035},
	{"lr_rate", space.Real, 0.001, 0.1, 0.0001},
	{"buffer_size", space.Integer, 10000, 100000, 100000},
	{"update_rate", space.Integer, 5, 20, 100},
	{"sampling_size", space.Integer, 64, 256, 256},
}

// randomPolicy draws every action value uniformly within its dimension,
// reseeding from entropy before each draw. It never adapts.
type randomPolicy struct {
	obs, act *space.Set
	hp       hyperparam.Tuple
	entropy  io.Reader
	seed     int64
	log      logr.Logger
}

func newRandomPolicy(obs, act *space.Set, log logr.Logger) (*randomPolicy, error) {
	s := space.NewSet()
	for _, d := range policyDefaults {
		s.Add(hyperparam.New(d.name, d.kind, d.low, d.high))
	}
	hp := hyperparam.NewTuple(s)
	for i, id := range hp.IDs() {
		if err := hp.SetValue(id, policyDefaults[i].value); err != nil {
			return nil, err
		}
	}
	return &randomPolicy{obs: obs, act: act, hp: hp, entropy: rand.Reader, log: log}, nil
}

func (p *randomPolicy) ObservationSpace() *space.Set  { return p.obs }
func (p *randomPolicy) ActionSpace() *space.Set       { return p.act }
func (p *randomPolicy) HyperParams() hyperparam.Tuple { return p.hp }

// SetRandomSeed is recorded only; draws are seeded from entropy.
func (p *randomPolicy) SetRandomSeed(seed int64) {
	p.seed = seed
}

func (p *randomPolicy) ComputeAction(*rl.State) (*space.Element, error) {
	var buf [16]byte
	values := make([]float64, 0, p.act.Len())
	for _, d := range p.act.Dims() {
		if _, err := io.ReadFull(p.entropy, buf[:]); err != nil {
			return nil, errors.Wrap(err, "read entropy")
		}
		u := distuv.Uniform{
			Min: 0,
			Max: 1,
			Src: mrand.NewPCG(binary.LittleEndian.Uint64(buf[:8]), binary.LittleEndian.Uint64(buf[8:])),
		}
		v := u.Rand()
		if d.Bounded() {
			v = d.Low + v*(d.High-d.Low)
		}
		values = append(values, v)
	}
	return space.NewElementFrom(p.act, values)
}

func (p *randomPolicy) Adapt(rl.SARSElement) (bool, error) {
	p.log.Info("Sorry, I am a stupid agent...")
	return false, nil
}

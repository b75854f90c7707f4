package rl

import (
	"github.com/go-logr/logr"
	"github.com/pkg/errors"

	"github.com/neurlang/rltune/logging"
)

// Mode selects where a scenario runs.
type Mode int

const (
	// ModeSim runs against a simulated environment.
	ModeSim Mode = iota
	// ModeReal runs against a real process; no environment here supports it.
	ModeReal
)

func (m Mode) String() string {
	if m == ModeReal {
		return "real"
	}
	return "sim"
}

// SetupFunc builds the environment and the model of a scenario.
type SetupFunc func(mode Mode, ada bool, log logr.Logger) (Environment, Model, error)

// CycleResult describes one scenario cycle.
type CycleResult struct {
	Cycle     int
	State     *State
	Action    *Action
	Reward    *Reward
	NextState *State
	// Score is the model's scalar reward of the cycle.
	Score   float64
	Adapted bool
}

// Scenario binds an environment to a model.
type Scenario struct {
	name  string
	mode  Mode
	env   Environment
	model Model
	cycle int
	log   logr.Logger
}

// NewScenario runs setup and returns the resulting scenario.
func NewScenario(name string, mode Mode, ada bool, setup SetupFunc, log logr.Logger) (*Scenario, error) {
	log = log.WithName("scenario")
	env, model, err := setup(mode, ada, log)
	if err != nil {
		return nil, errors.Wrapf(err, "setup scenario %s", name)
	}
	if env == nil || model == nil {
		return nil, errors.Errorf("setup scenario %s returned no environment or model", name)
	}
	log.V(logging.DEBUG).Info("scenario ready", "name", name, "mode", mode.String(),
		"env", env.Name(), "model", model.Name())
	return &Scenario{name: name, mode: mode, env: env, model: model, log: log}, nil
}

func (s *Scenario) Name() string {
	return s.name
}

func (s *Scenario) Mode() Mode {
	return s.mode
}

func (s *Scenario) Env() Environment {
	return s.env
}

func (s *Scenario) Model() Model {
	return s.model
}

// Cycle is the number of cycles since the last reset.
func (s *Scenario) Cycle() int {
	return s.cycle
}

// Reset resets the environment and reseeds the model.
func (s *Scenario) Reset(seed int64) error {
	if err := s.env.Reset(seed); err != nil {
		return errors.Wrap(err, "reset environment")
	}
	s.model.SetRandomSeed(seed)
	s.cycle = 0
	return nil
}

type weighted interface {
	WeightedReward(r *Reward) float64
}

// RunCycle computes an action for the current state, lets the environment
// process it and, if the model is adaptive, adapts the model on the transition.
func (s *Scenario) RunCycle() (CycleResult, error) {
	state := s.env.State().Copy()
	action, err := s.model.ComputeAction(state)
	if err != nil {
		return CycleResult{}, err
	}
	if err := s.env.Process(action); err != nil {
		return CycleResult{}, errors.Wrap(err, "process action")
	}
	next := s.env.State().Copy()
	next.Cycle = s.cycle + 1
	reward, err := s.env.ComputeReward(action, state, next)
	if err != nil {
		return CycleResult{}, errors.Wrap(err, "compute reward")
	}
	adapted, err := s.model.Adapt(SARSElement{State: state, Action: action, Reward: reward, NextState: next})
	if err != nil {
		return CycleResult{}, err
	}

	score := reward.Overall()
	if w, ok := s.model.(weighted); ok {
		score = w.WeightedReward(reward)
	}
	s.cycle++
	s.log.V(logging.TRACE).Info("cycle", "cycle", s.cycle, "score", score, "adapted", adapted)
	return CycleResult{
		Cycle:     s.cycle,
		State:     state,
		Action:    action,
		Reward:    reward,
		NextState: next,
		Score:     score,
		Adapted:   adapted,
	}, nil
}

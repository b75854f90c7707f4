package rl

import "github.com/neurlang/rltune/hyperparam"
import "github.com/neurlang/rltune/space"

// Environment is a simulated (or real) process controlled by a model.
type Environment interface {
	Name() string
	StateSpace() *space.Set
	ActionSpace() *space.Set
	// Reset restores an initial state drawn from seed.
	Reset(seed int64) error
	// State returns the current state.
	State() *State
	// Process applies an action and advances the environment by one cycle.
	Process(action *Action) error
	// ComputeReward rates the transition from old to new caused by action.
	ComputeReward(action *Action, old, new *State) (*Reward, error)
}

// Policy maps observations to actions and may adapt from transitions.
type Policy interface {
	ObservationSpace() *space.Set
	ActionSpace() *space.Set
	ComputeAction(obs *State) (*space.Element, error)
	// Adapt reports whether the policy changed.
	Adapt(sars SARSElement) (bool, error)
	// HyperParams may return nil for policies without hyperparameters.
	HyperParams() hyperparam.Tuple
	SetRandomSeed(seed int64)
}

// Model is what a scenario drives: a single agent or a multi-agent.
type Model interface {
	Name() string
	ComputeAction(state *State) (*Action, error)
	Adapt(sars SARSElement) (bool, error)
	HyperParams() hyperparam.Tuple
	SetAdaptive(ada bool)
	SetRandomSeed(seed int64)
}

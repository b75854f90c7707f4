package rl

import (
	"github.com/go-logr/logr"
	"github.com/pkg/errors"

	"github.com/neurlang/rltune/hyperparam"
	"github.com/neurlang/rltune/logging"
)

// Agent runs a policy on its own view of the environment.
type Agent struct {
	name   string
	policy Policy
	ada    bool
	log    logr.Logger
}

// NewAgent wraps policy under name. The name doubles as the agent id.
func NewAgent(name string, policy Policy, ada bool, log logr.Logger) *Agent {
	return &Agent{
		name:   name,
		policy: policy,
		ada:    ada,
		log:    log.WithName(name),
	}
}

func (a *Agent) Name() string {
	return a.name
}

// Policy returns the wrapped policy.
func (a *Agent) Policy() Policy {
	return a.policy
}

func (a *Agent) SetAdaptive(ada bool) {
	a.ada = ada
}

func (a *Agent) Adaptive() bool {
	return a.ada
}

func (a *Agent) HyperParams() hyperparam.Tuple {
	return a.policy.HyperParams()
}

func (a *Agent) SetRandomSeed(seed int64) {
	a.policy.SetRandomSeed(seed)
}

func (a *Agent) observe(state *State) (*State, error) {
	e, err := state.Element.Project(a.policy.ObservationSpace())
	if err != nil {
		return nil, errors.Wrapf(err, "agent %s observation", a.name)
	}
	obs := *state
	obs.Element = e
	return &obs, nil
}

// ComputeAction projects state onto the policy's observation space and tags
// the policy's action with the agent id.
func (a *Agent) ComputeAction(state *State) (*Action, error) {
	obs, err := a.observe(state)
	if err != nil {
		return nil, err
	}
	e, err := a.policy.ComputeAction(obs)
	if err != nil {
		return nil, errors.Wrapf(err, "agent %s compute action", a.name)
	}
	return NewAction(a.name, e), nil
}

// Adapt passes the agent's share of the transition to the policy. Nothing
// happens while the agent is not adaptive.
func (a *Agent) Adapt(sars SARSElement) (bool, error) {
	if !a.ada {
		return false, nil
	}
	obs, err := a.observe(sars.State)
	if err != nil {
		return false, err
	}
	next, err := a.observe(sars.NextState)
	if err != nil {
		return false, err
	}
	own := &Action{}
	for _, e := range sars.Action.Elements() {
		if e.AgentID == a.name {
			own.elems = append(own.elems, e)
		}
	}
	adapted, err := a.policy.Adapt(SARSElement{
		State:     obs,
		Action:    own,
		Reward:    NewReward(sars.Reward.Agent(a.name)),
		NextState: next,
	})
	if err != nil {
		return false, errors.Wrapf(err, "agent %s adapt", a.name)
	}
	a.log.V(logging.TRACE).Info("adapted", "changed", adapted)
	return adapted, nil
}

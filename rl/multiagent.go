package rl

import (
	"github.com/go-logr/logr"
	"github.com/pkg/errors"

	"github.com/neurlang/rltune/hyperparam"
)

type weightedAgent struct {
	agent  *Agent
	weight float64
}

// MultiAgent composes independent agents into one model. Each agent sees its
// own projection of the state and contributes its own action element.
type MultiAgent struct {
	name   string
	agents []weightedAgent
	ada    bool
	log    logr.Logger
}

// NewMultiAgent creates an empty multi-agent.
func NewMultiAgent(name string, ada bool, log logr.Logger) *MultiAgent {
	return &MultiAgent{name: name, ada: ada, log: log.WithName("multiagent")}
}

func (m *MultiAgent) Name() string {
	return m.name
}

// AddAgent adds an agent whose reward counts with weight in the overall reward.
func (m *MultiAgent) AddAgent(a *Agent, weight float64) error {
	for _, w := range m.agents {
		if w.agent.Name() == a.Name() {
			return errors.Errorf("agent %q already added", a.Name())
		}
	}
	a.SetAdaptive(a.Adaptive() && m.ada)
	m.agents = append(m.agents, weightedAgent{agent: a, weight: weight})
	m.log.V(1).Info("agent added", "agent", a.Name(), "weight", weight)
	return nil
}

// Agents returns the sub-agents in order.
func (m *MultiAgent) Agents() []*Agent {
	out := make([]*Agent, len(m.agents))
	for i, w := range m.agents {
		out[i] = w.agent
	}
	return out
}

func (m *MultiAgent) ComputeAction(state *State) (*Action, error) {
	if len(m.agents) == 0 {
		return nil, errors.Errorf("multi-agent %q has no agents", m.name)
	}
	action := &Action{}
	for _, w := range m.agents {
		a, err := w.agent.ComputeAction(state)
		if err != nil {
			return nil, err
		}
		action.Add(a)
	}
	return action, nil
}

// Adapt dispatches the transition to all sub-agents and reports whether any changed.
func (m *MultiAgent) Adapt(sars SARSElement) (bool, error) {
	var adapted bool
	for _, w := range m.agents {
		ok, err := w.agent.Adapt(sars)
		if err != nil {
			return adapted, err
		}
		adapted = adapted || ok
	}
	return adapted, nil
}

// WeightedReward is the weighted sum of the sub-agents' rewards.
func (m *MultiAgent) WeightedReward(r *Reward) float64 {
	var sum float64
	for _, w := range m.agents {
		sum += w.weight * r.Agent(w.agent.Name())
	}
	return sum
}

// HyperParams joins the sub-agents' tuples, qualified by agent name.
func (m *MultiAgent) HyperParams() hyperparam.Tuple {
	d := hyperparam.NewDispatcher()
	for _, w := range m.agents {
		d.Add(w.agent.Name(), w.agent.HyperParams())
	}
	return d
}

func (m *MultiAgent) SetAdaptive(ada bool) {
	m.ada = ada
	for _, w := range m.agents {
		w.agent.SetAdaptive(ada)
	}
}

// SetRandomSeed seeds the sub-agents with consecutive seeds.
func (m *MultiAgent) SetRandomSeed(seed int64) {
	for i, w := range m.agents {
		w.agent.SetRandomSeed(seed + int64(i))
	}
}

// Package rl implements the states, actions, agents and scenarios of a
// reinforcement learning run. Environments and policies plug in through the
// Environment and Policy interfaces.
package rl

import "github.com/neurlang/rltune/space"

// State is an environment state.
type State struct {
	*space.Element
	Cycle  int
	Done   bool // goal reached, episode may end
	Broken bool // environment failed, episode must end
}

// NewState creates a zero state of s.
func NewState(s *space.Set) *State {
	return &State{Element: space.NewElement(s)}
}

// Copy returns an independent copy of the state.
func (s *State) Copy() *State {
	out := *s
	out.Element = s.Element.Copy()
	return &out
}

// ActionElement is the part of an action computed by one agent.
type ActionElement struct {
	AgentID string
	*space.Element
}

// Action collects the action elements of one or more agents.
type Action struct {
	elems []ActionElement
}

// NewAction creates an action holding a single agent's element.
func NewAction(agentID string, e *space.Element) *Action {
	return &Action{elems: []ActionElement{{AgentID: agentID, Element: e}}}
}

// Add appends the elements of other.
func (a *Action) Add(other *Action) {
	if other == nil {
		return
	}
	a.elems = append(a.elems, other.elems...)
}

// Elements returns the per-agent elements in order.
func (a *Action) Elements() []ActionElement {
	return a.elems
}

// AgentIDs returns the ids of the contributing agents in order.
func (a *Action) AgentIDs() []string {
	ids := make([]string, len(a.elems))
	for i, e := range a.elems {
		ids[i] = e.AgentID
	}
	return ids
}

// Value finds the value of action dimension id in any element.
func (a *Action) Value(id int) (float64, bool) {
	for _, e := range a.elems {
		if v, err := e.Element.Value(id); err == nil {
			return v, true
		}
	}
	return 0, false
}

// Reward is an overall reward plus optional per-agent rewards.
type Reward struct {
	overall float64
	agents  map[string]float64
	order   []string
}

// NewReward creates a reward with the given overall value.
func NewReward(overall float64) *Reward {
	return &Reward{overall: overall}
}

// SetAgent stores the reward of one agent.
func (r *Reward) SetAgent(agentID string, v float64) {
	if r.agents == nil {
		r.agents = make(map[string]float64)
	}
	if _, ok := r.agents[agentID]; !ok {
		r.order = append(r.order, agentID)
	}
	r.agents[agentID] = v
}

// Agent returns the reward of one agent. Without per-agent values the overall reward applies.
func (r *Reward) Agent(agentID string) float64 {
	if v, ok := r.agents[agentID]; ok {
		return v
	}
	return r.overall
}

// AgentIDs lists the agents with own values, in insertion order.
func (r *Reward) AgentIDs() []string {
	return r.order
}

// Overall returns the overall reward.
func (r *Reward) Overall() float64 {
	return r.overall
}

// SARSElement is one state-action-reward-state transition.
type SARSElement struct {
	State     *State
	Action    *Action
	Reward    *Reward
	NextState *State
}

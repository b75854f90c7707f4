package trainer

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"

	"github.com/neurlang/rltune/config"
	"github.com/neurlang/rltune/rl"
	"github.com/neurlang/rltune/space"
)

// Collector file names.
const (
	StatesFile  = "env_states.csv"
	ActionsFile = "agent_actions.csv"
	RewardsFile = "env_rewards.csv"
)

type table struct {
	f      *os.File
	w      *csv.Writer
	header bool
}

func (t *table) write(header func() []string, row []string) error {
	if t == nil {
		return nil
	}
	if !t.header {
		if err := t.w.Write(header()); err != nil {
			return err
		}
		t.header = true
	}
	return t.w.Write(row)
}

func (t *table) close() error {
	if t == nil {
		return nil
	}
	t.w.Flush()
	if err := t.w.Error(); err != nil {
		_ = t.f.Close()
		return err
	}
	return t.f.Close()
}

// Collector records training cycles as CSV. A nil *Collector records nothing.
type Collector struct {
	states  *table
	actions *table
	rewards *table
}

// NewCollector opens the tables enabled in p under dir. Without any enabled
// table it returns nil.
func NewCollector(dir string, p config.Training) (*Collector, error) {
	if dir == "" || !(p.CollectStates || p.CollectActions || p.CollectRewards) {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "collector.mkdir")
	}
	c := &Collector{}
	open := func(enabled bool, name string) (*table, error) {
		if !enabled {
			return nil, nil
		}
		f, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			return nil, errors.Wrapf(err, "create %s", name)
		}
		return &table{f: f, w: csv.NewWriter(f)}, nil
	}
	var err error
	if c.states, err = open(p.CollectStates, StatesFile); err != nil {
		return nil, err
	}
	if c.actions, err = open(p.CollectActions, ActionsFile); err != nil {
		_ = c.Close()
		return nil, err
	}
	if c.rewards, err = open(p.CollectRewards, RewardsFile); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

func itoa(i int) string {
	return strconv.Itoa(i)
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func dimNames(s *space.Set) []string {
	names := []string{"episode", "cycle"}
	for _, d := range s.Dims() {
		names = append(names, d.Name)
	}
	return names
}

// Record writes one cycle of a training episode.
func (c *Collector) Record(episode int, res rl.CycleResult) error {
	if c == nil {
		return nil
	}
	prefix := []string{itoa(episode), itoa(res.Cycle)}

	if res.NextState != nil {
		row := append([]string(nil), prefix...)
		for _, v := range res.NextState.Values() {
			row = append(row, ftoa(v))
		}
		set := res.NextState.Set()
		if err := c.states.write(func() []string { return dimNames(set) }, row); err != nil {
			return errors.Wrap(err, "collect state")
		}
	}

	if res.Action != nil {
		var header = []string{"episode", "cycle"}
		var row = append([]string(nil), prefix...)
		for _, e := range res.Action.Elements() {
			values := e.Values()
			for i, d := range e.Set().Dims() {
				header = append(header, e.AgentID+"/"+d.Name)
				row = append(row, ftoa(values[i]))
			}
		}
		if err := c.actions.write(func() []string { return header }, row); err != nil {
			return errors.Wrap(err, "collect action")
		}
	}

	if res.Reward != nil {
		var header = []string{"episode", "cycle", "overall"}
		var row = append(append([]string(nil), prefix...), ftoa(res.Reward.Overall()))
		for _, id := range res.Reward.AgentIDs() {
			header = append(header, id)
			row = append(row, ftoa(res.Reward.Agent(id)))
		}
		if err := c.rewards.write(func() []string { return header }, row); err != nil {
			return errors.Wrap(err, "collect reward")
		}
	}
	return nil
}

// Close flushes and closes all tables.
func (c *Collector) Close() error {
	if c == nil {
		return nil
	}
	var first error
	for _, t := range []*table{c.states, c.actions, c.rewards} {
		if err := t.close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

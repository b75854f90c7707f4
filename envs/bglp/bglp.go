package bglp

import (
	"math"
	"math/rand/v2"

	"github.com/go-logr/logr"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/neurlang/rltune/logging"
	"github.com/neurlang/rltune/rl"
	"github.com/neurlang/rltune/space"
)

// Reservoirs in flow order.
var Reservoirs = []string{"SILO_A", "HOPPER_A", "SILO_B", "HOPPER_B", "SILO_C", "HOPPER_C"}

// Actuators in flow order; actuator k moves material from reservoir k to k+1.
var Actuators = []string{"BELT_CONVEYOR_A", "VACUUM_PUMP_B", "VIBRATORY_CONVEYOR_B", "VACUUM_PUMP_C", "ROTARY_FEEDER_C"}

// Config holds the plant constants. Amounts are in liters, flows in liters per second.
type Config struct {
	CycleSeconds float64
	Capacity     [6]float64
	MaxFlow      [5]float64
	Power        [5]float64 // kW at full drive
	Supply       float64    // inflow into SILO_A
	Demand       float64    // production draw from HOPPER_C
	MarginLow    float64    // normalized fill band without penalty
	MarginHigh   float64
	EnergyWeight float64
	LossWeight   float64
	InitLow      float64 // initial fill levels are drawn from [InitLow, InitHigh]
	InitHigh     float64
}

// DefaultConfig returns the constants of the reference plant.
func DefaultConfig() Config {
	return Config{
		CycleSeconds: 0.5,
		Capacity:     [6]float64{17.42, 9.10, 17.42, 9.10, 17.42, 9.10},
		MaxFlow:      [5]float64{2.70, 2.50, 2.60, 2.50, 2.40},
		Power:        [5]float64{0.34, 1.10, 0.40, 1.10, 0.37},
		Supply:       1.20,
		Demand:       1.10,
		MarginLow:    0.1,
		MarginHigh:   0.9,
		EnergyWeight: 0.1,
		LossWeight:   1.0,
		InitLow:      0.2,
		InitHigh:     0.8,
	}
}

// BGLP is the plant simulation. It implements rl.Environment.
type BGLP struct {
	cfg     Config
	states  *space.Set
	actions *space.Set
	amount  [6]float64
	drive   [5]float64
	lost    [5]float64 // material lost per actuator in the last cycle
	state   *rl.State
	log     logr.Logger
}

// New creates a plant with levels at the middle of the init band.
func New(cfg Config, log logr.Logger) *BGLP {
	b := &BGLP{
		cfg:     cfg,
		states:  space.NewSet(),
		actions: space.NewSet(),
		log:     log.WithName("bglp"),
	}
	for _, name := range Reservoirs {
		d := space.NewDimension(name, space.Real, 0, 1)
		d.Unit = "%"
		b.states.Add(d)
	}
	for _, name := range Actuators {
		b.actions.Add(space.NewDimension(name, space.Real, 0, 1))
	}
	mid := (cfg.InitLow + cfg.InitHigh) / 2
	for i := range b.amount {
		b.amount[i] = mid * cfg.Capacity[i]
	}
	b.updateState(0)
	return b
}

func (b *BGLP) Name() string {
	return "BGLP"
}

func (b *BGLP) StateSpace() *space.Set {
	return b.states
}

func (b *BGLP) ActionSpace() *space.Set {
	return b.actions
}

func (b *BGLP) State() *rl.State {
	return b.state
}

// Levels returns the normalized fill levels.
func (b *BGLP) Levels() [6]float64 {
	var out [6]float64
	for i := range b.amount {
		out[i] = b.amount[i] / b.cfg.Capacity[i]
	}
	return out
}

// Reset draws initial fill levels from seed.
func (b *BGLP) Reset(seed int64) error {
	if b.cfg.InitHigh < b.cfg.InitLow {
		return errors.Errorf("bglp: init band [%v, %v] is empty", b.cfg.InitLow, b.cfg.InitHigh)
	}
	u := distuv.Uniform{
		Min: b.cfg.InitLow,
		Max: b.cfg.InitHigh,
		Src: rand.NewPCG(uint64(seed), 0x9e3779b97f4a7c15),
	}
	for i := range b.amount {
		b.amount[i] = u.Rand() * b.cfg.Capacity[i]
	}
	b.drive = [5]float64{}
	b.lost = [5]float64{}
	b.updateState(0)
	b.log.V(logging.DEBUG).Info("reset", "seed", seed, "levels", b.Levels())
	return nil
}

// Process drives every actuator for one cycle. Downstream actuators move
// first so material moved in this cycle is not moved twice.
func (b *BGLP) Process(action *rl.Action) error {
	ids := b.actions.IDs()
	for k, id := range ids {
		v, ok := action.Value(id)
		if !ok {
			return errors.Errorf("bglp: action has no value for %s", Actuators[k])
		}
		d, _ := b.actions.Dim(id)
		b.drive[k] = d.Clamp(v)
	}

	dt := b.cfg.CycleSeconds
	b.lost = [5]float64{}
	for k := len(ids) - 1; k >= 0; k-- {
		want := b.drive[k] * b.cfg.MaxFlow[k] * dt
		room := b.cfg.Capacity[k+1] - b.amount[k+1]
		moved := math.Max(0, math.Min(want, math.Min(b.amount[k], room)))
		b.amount[k] -= moved
		b.amount[k+1] += moved
	}

	// supply overflow is charged to the first actuator
	b.amount[0] += b.cfg.Supply * dt
	if over := b.amount[0] - b.cfg.Capacity[0]; over > 0 {
		b.amount[0] = b.cfg.Capacity[0]
		b.lost[0] = over
	}
	// unmet demand is charged to the last actuator
	last := len(b.amount) - 1
	need := b.cfg.Demand * dt
	taken := math.Min(need, b.amount[last])
	b.amount[last] -= taken
	b.lost[len(b.lost)-1] = need - taken

	b.updateState(b.state.Cycle + 1)
	return nil
}

func (b *BGLP) updateState(cycle int) {
	levels := b.Levels()
	e, _ := space.NewElementFrom(b.states, levels[:])
	b.state = &rl.State{Element: e, Cycle: cycle}
}

func (b *BGLP) penalty(level float64) float64 {
	var p float64
	if level < b.cfg.MarginLow && b.cfg.MarginLow > 0 {
		p += (b.cfg.MarginLow - level) / b.cfg.MarginLow
	}
	if level > b.cfg.MarginHigh && b.cfg.MarginHigh < 1 {
		p += (level - b.cfg.MarginHigh) / (1 - b.cfg.MarginHigh)
	}
	return p
}

// ActuatorRewards rates every actuator on the levels of its two reservoirs,
// its energy use and the material lost on its account.
func (b *BGLP) ActuatorRewards(levels [6]float64) [5]float64 {
	var maxPower float64
	for _, p := range b.cfg.Power {
		maxPower = math.Max(maxPower, p)
	}
	var out [5]float64
	for k := range out {
		energy := 0.0
		if maxPower > 0 {
			energy = b.drive[k] * b.cfg.Power[k] / maxPower
		}
		flow := b.cfg.MaxFlow[k] * b.cfg.CycleSeconds
		loss := 0.0
		if flow > 0 {
			loss = b.lost[k] / flow
		}
		out[k] = 1 - b.penalty(levels[k]) - b.penalty(levels[k+1]) -
			b.cfg.EnergyWeight*energy - b.cfg.LossWeight*loss
	}
	return out
}

// ComputeReward sums the actuator rewards per agent element of action. The
// overall reward is the sum over all actuators.
func (b *BGLP) ComputeReward(action *rl.Action, _, next *rl.State) (*rl.Reward, error) {
	var levels [6]float64
	for i, id := range b.states.IDs() {
		v, err := next.Value(id)
		if err != nil {
			return nil, errors.Wrap(err, "bglp reward")
		}
		levels[i] = v
	}
	rewards := b.ActuatorRewards(levels)

	var overall float64
	for _, r := range rewards {
		overall += r
	}
	reward := rl.NewReward(overall)
	for _, el := range action.Elements() {
		var sum float64
		for k, id := range b.actions.IDs() {
			if _, err := el.Element.Value(id); err == nil {
				sum += rewards[k]
			}
		}
		reward.SetAgent(el.AgentID, sum)
	}
	return reward, nil
}

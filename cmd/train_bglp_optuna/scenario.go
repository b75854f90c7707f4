package main

import (
	"github.com/go-logr/logr"
	"github.com/pkg/errors"

	"github.com/neurlang/rltune/envs/bglp"
	"github.com/neurlang/rltune/rl"
)

const scenarioName = "BGLP_Dummy"

// setupScenario builds the plant and a multi-agent with one random policy
// per actuator. Actuator k observes reservoirs k and k+1.
func setupScenario(mode rl.Mode, ada bool, log logr.Logger) (rl.Environment, rl.Model, error) {
	if mode != rl.ModeSim {
		return nil, nil, errors.Errorf("%s supports simulation only, got %s", scenarioName, mode)
	}
	env := bglp.New(bglp.DefaultConfig(), log)
	model := rl.NewMultiAgent("Dummy Policy", ada, log)

	sids, aids := env.StateSpace().IDs(), env.ActionSpace().IDs()
	for k, name := range bglp.Actuators {
		obs, err := env.StateSpace().Spawn([]int{sids[k], sids[k+1]})
		if err != nil {
			return nil, nil, err
		}
		act, err := env.ActionSpace().Spawn([]int{aids[k]})
		if err != nil {
			return nil, nil, err
		}
		policy, err := newRandomPolicy(obs, act, log.WithName(name))
		if err != nil {
			return nil, nil, err
		}
		if err := model.AddAgent(rl.NewAgent(name, policy, true, log), 1.0); err != nil {
			return nil, nil, err
		}
	}
	return env, model, nil
}

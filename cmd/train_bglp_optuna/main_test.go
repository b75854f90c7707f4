package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurlang/rltune/config"
	"github.com/neurlang/rltune/hpt"
	"github.com/neurlang/rltune/hyperparam"
	"github.com/neurlang/rltune/rl"
	"github.com/neurlang/rltune/space"
	"github.com/neurlang/rltune/trainer"
)

func TestTestModeCompletes(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs([]string{"--mode", "test"})
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "best trial")
}

func TestTestModeWritesRunDirectory(t *testing.T) {
	path := t.TempDir()
	cmd := newRootCmd(&bytes.Buffer{})
	cmd.SetArgs([]string{"--mode", "test", "--path", path, "--trials", "3", "--jobs", "0"})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	runs, err := os.ReadDir(filepath.Join(path, "rltune", scenarioName))
	require.NoError(t, err)
	require.Len(t, runs, 1)
	dir := filepath.Join(path, "rltune", scenarioName, runs[0].Name())
	for _, name := range []string{"config.yaml", "study.json", "metrics.prom",
		"trial_0/training.json", "trial_2/" + trainer.StatesFile} {
		assert.FileExists(t, filepath.Join(dir, name))
	}

	study, err := trainer.Resume(path, scenarioName, logr.Discard())
	require.NoError(t, err)
	require.NotNil(t, study)
	assert.Len(t, study.Trials, 3)
}

func TestUnknownMode(t *testing.T) {
	cmd := newRootCmd(&bytes.Buffer{})
	cmd.SetArgs([]string{"--mode", "prod"})
	assert.Error(t, cmd.Execute())
}

func TestScenarioLayout(t *testing.T) {
	env, model, err := setupScenario(rl.ModeSim, true, logr.Discard())
	require.NoError(t, err)

	ma := model.(*rl.MultiAgent)
	assert.Equal(t, "Dummy Policy", ma.Name())
	require.Len(t, ma.Agents(), 5)
	states := env.StateSpace().Dims()
	for k, a := range ma.Agents() {
		obs := a.Policy().ObservationSpace().Dims()
		require.Len(t, obs, 2)
		assert.Equal(t, states[k].ID, obs[0].ID)
		assert.Equal(t, states[k+1].ID, obs[1].ID)
		assert.Equal(t, env.ActionSpace().Dims()[k].ID, a.Policy().ActionSpace().Dims()[0].ID)
	}
	assert.Len(t, model.HyperParams().Space().Dims(), 30)

	_, _, err = setupScenario(rl.ModeReal, true, logr.Discard())
	assert.Error(t, err)
}

func TestRandomPolicy(t *testing.T) {
	env, model, err := setupScenario(rl.ModeSim, true, logr.Discard())
	require.NoError(t, err)
	p := model.(*rl.MultiAgent).Agents()[0].Policy().(*randomPolicy)

	values := hyperparam.Values(p.HyperParams())
	assert.Equal(t, 0.035, values["smoothing"], "defaults are kept outside the bounds")
	assert.Equal(t, 100.0, values["update_rate"])

	e, err := p.ComputeAction(env.State())
	require.NoError(t, err)
	v := e.Values()
	require.Len(t, v, 1)
	assert.GreaterOrEqual(t, v[0], 0.0)
	assert.Less(t, v[0], 1.0)

	adapted, err := p.Adapt(rl.SARSElement{})
	require.NoError(t, err)
	assert.False(t, adapted)
}

// countingReader fills every read with its read number.
type countingReader struct {
	reads int
}

func (r *countingReader) Read(p []byte) (int, error) {
	r.reads++
	for i := range p {
		p[i] = byte(r.reads)
	}
	return len(p), nil
}

func TestRandomPolicyReseedsEveryDimension(t *testing.T) {
	obs := space.NewSet(space.NewDimension("level", space.Real, 0, 1))
	act := space.NewSet(
		space.NewDimension("a", space.Real, 0, 1),
		space.NewDimension("b", space.Real, 0, 1),
		space.NewDimension("c", space.Real, 10, 20),
	)
	p, err := newRandomPolicy(obs, act, logr.Discard())
	require.NoError(t, err)
	entropy := &countingReader{}
	p.entropy = entropy

	e, err := p.ComputeAction(rl.NewState(obs))
	require.NoError(t, err)
	assert.Equal(t, 3, entropy.reads)
	v := e.Values()
	require.Len(t, v, 3)
	assert.NotEqual(t, v[0], v[1], "each dimension draws from its own seed")
	assert.GreaterOrEqual(t, v[2], 10.0)
	assert.Less(t, v[2], 20.0)

	// equal entropy gives equal draws, so the policy carries no state of its own
	again := &countingReader{}
	p.entropy = again
	e2, err := p.ComputeAction(rl.NewState(obs))
	require.NoError(t, err)
	assert.Equal(t, v, e2.Values())
}

func TestFinishedSummaryFallsBackToStudy(t *testing.T) {
	study := &hpt.Study{ID: "resumed", Direction: hpt.Maximize, Trials: []hpt.Trial{
		{Number: 0, Params: map[string]float64{"x": 1}, Value: 0.9, State: hpt.TrialComplete},
		{Number: 1, Params: map[string]float64{"x": 2}, Value: 0.2, State: hpt.TrialComplete},
	}}
	out := &trainer.Outcome{Study: study, Trials: map[int]*trainer.Results{1: {Trial: 1, Highscore: 0.2}}}
	trial, value, ok := finishedSummary(out)
	require.True(t, ok)
	assert.Equal(t, 0, trial)
	assert.Equal(t, 0.9, value)

	out.Trials[0] = &trainer.Results{Trial: 0, Highscore: 0.9}
	trial, value, ok = finishedSummary(out)
	require.True(t, ok)
	assert.Equal(t, 0, trial)
	assert.Equal(t, 0.9, value)

	_, _, ok = finishedSummary(&trainer.Outcome{})
	assert.False(t, ok)
}

func TestResumeContinuesNumbering(t *testing.T) {
	path := t.TempDir()
	first := newRootCmd(&bytes.Buffer{})
	first.SetArgs([]string{"--mode", "test", "--path", path, "--trials", "2"})
	require.NoError(t, first.ExecuteContext(context.Background()))
	prior, err := trainer.Resume(path, scenarioName, logr.Discard())
	require.NoError(t, err)
	require.NotNil(t, prior)

	// the stamp layout has second resolution; move the first run back in time
	base := filepath.Join(path, "rltune", scenarioName)
	runs, err := os.ReadDir(base)
	require.NoError(t, err)
	require.NoError(t, os.Rename(filepath.Join(base, runs[0].Name()), filepath.Join(base, "20000101_000000")))

	var out bytes.Buffer
	second := newRootCmd(&out)
	second.SetArgs([]string{"--mode", "test", "--path", path, "--trials", "2", "--resume"})
	require.NoError(t, second.ExecuteContext(context.Background()))

	study, err := trainer.Resume(path, scenarioName, logr.Discard())
	require.NoError(t, err)
	require.Len(t, study.Trials, 4)
	assert.Equal(t, prior.ID, study.ID)
	assert.Equal(t, 3, study.Trials[3].Number)
}

func TestConfigFileOverrides(t *testing.T) {
	file := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(file, []byte("tuning:\n  trials: 2\ntraining:\n  cycle_limit: 2\n"), 0o644))
	v := config.NewViper(config.Test())
	run, err := config.Load(v, file)
	require.NoError(t, err)
	assert.Equal(t, 2, run.Tuning.Trials)
	assert.Equal(t, 2, run.Training.CycleLimit)
	assert.Equal(t, 1, run.Training.CyclesPerEpisode)
}

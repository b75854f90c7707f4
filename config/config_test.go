package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestPresetsAreValid(t *testing.T) {
	require.NoError(t, Demo().Validate())
	require.NoError(t, Test().Validate())

	test := Test()
	assert.Equal(t, 3, test.Training.CycleLimit)
	assert.Equal(t, 1, test.Training.CyclesPerEpisode)
	assert.Equal(t, "", test.Path)
	assert.Equal(t, 10, test.Tuning.Trials)

	demo := Demo()
	assert.Equal(t, 100, demo.Training.CycleLimit)
	assert.Equal(t, 5, demo.Training.EvalGroupSize)
}

func TestTrainingValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Training)
		wantErr error
	}{
		{name: "zero cycles per episode", mutate: func(tr *Training) { tr.CyclesPerEpisode = 0 }},
		{name: "eval without group", mutate: func(tr *Training) { tr.EvalGroupSize = 0 }},
		{name: "negative limit", mutate: func(tr *Training) { tr.CycleLimit = -1 }},
		{
			name:    "unbounded",
			mutate:  func(tr *Training) { tr.CycleLimit = 0; tr.StagnationLimit = 0 },
			wantErr: ErrUnbounded,
		},
		{
			name:    "stagnation without evaluation is unbounded",
			mutate:  func(tr *Training) { tr.CycleLimit = 0; tr.StagnationLimit = 3; tr.EvalFrequency = 0 },
			wantErr: ErrUnbounded,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := Test().Training
			tt.mutate(&tr)
			err := tr.Validate()
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), err.Error())
			}
		})
	}

	bounded := Test().Training
	bounded.CycleLimit = 0
	bounded.AdaptationLimit = 4
	assert.NoError(t, bounded.Validate())
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "run.yaml")
	require.NoError(t, os.WriteFile(file, []byte("training:\n  cycle_limit: 42\ntuning:\n  trials: 4\n  ids: [BELT_CONVEYOR_A/num_states]\n"), 0o644))
	t.Setenv("RLTUNE_TRAINING_EVAL_GROUP_SIZE", "3")

	r, err := Load(NewViper(Test()), file)
	require.NoError(t, err)
	assert.Equal(t, 42, r.Training.CycleLimit)
	assert.Equal(t, 3, r.Training.EvalGroupSize)
	assert.Equal(t, 4, r.Tuning.Trials)
	assert.Equal(t, []string{"BELT_CONVEYOR_A/num_states"}, r.Tuning.IDs)
	assert.Equal(t, 1, r.Training.CyclesPerEpisode, "preset default kept")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(NewViper(Test()), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Test().Save(dir))

	b, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	var r Run
	require.NoError(t, yaml.Unmarshal(b, &r))
	assert.Equal(t, Test(), r)
}

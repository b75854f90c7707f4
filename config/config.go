// Package config holds the parameter sets of a tuned training run.
package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/neurlang/rltune/logging"
)

// ErrUnbounded is returned for training parameters that would never stop.
var ErrUnbounded = errors.New("training has no cycle, stagnation or adaptation limit")

// Training controls one RL training.
type Training struct {
	// CycleLimit bounds the number of training cycles (0 = no limit).
	CycleLimit int `mapstructure:"cycle_limit" yaml:"cycle_limit"`
	// CyclesPerEpisode bounds the length of one episode.
	CyclesPerEpisode int `mapstructure:"cycles_per_episode" yaml:"cycles_per_episode"`
	// EvalFrequency runs an evaluation after every n-th training episode (0 = never).
	EvalFrequency int `mapstructure:"eval_frequency" yaml:"eval_frequency"`
	// EvalGroupSize is the number of episodes of one evaluation.
	EvalGroupSize int `mapstructure:"eval_group_size" yaml:"eval_group_size"`
	// AdaptationLimit stops training after this many adaptations (0 = no limit).
	AdaptationLimit int `mapstructure:"adaptation_limit" yaml:"adaptation_limit"`
	// StagnationLimit stops training after this many evaluations without a new high score (0 = off).
	StagnationLimit int `mapstructure:"stagnation_limit" yaml:"stagnation_limit"`
	// ScoreMAHorizon is the moving average horizon of evaluation scores (0 or 1 = raw).
	ScoreMAHorizon int `mapstructure:"score_ma_horizon" yaml:"score_ma_horizon"`

	CollectStates  bool `mapstructure:"collect_states" yaml:"collect_states"`
	CollectActions bool `mapstructure:"collect_actions" yaml:"collect_actions"`
	CollectRewards bool `mapstructure:"collect_rewards" yaml:"collect_rewards"`

	Seed int64 `mapstructure:"seed" yaml:"seed"`
}

// Tuning controls the hyperparameter tuner.
type Tuning struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Trials  int  `mapstructure:"trials" yaml:"trials"`
	// Jobs is the number of concurrent trials (0 = one per logical CPU).
	Jobs int `mapstructure:"jobs" yaml:"jobs"`
	// IDs restricts tuning to the named hyperparameters (empty = all).
	IDs    []string `mapstructure:"ids" yaml:"ids,omitempty"`
	Resume bool     `mapstructure:"resume" yaml:"resume"`
}

// Run is the full parameter set of the demo.
type Run struct {
	Mode      string   `mapstructure:"mode" yaml:"mode"`
	Logging   string   `mapstructure:"logging" yaml:"logging"`
	Visualize bool     `mapstructure:"visualize" yaml:"visualize"`
	Path      string   `mapstructure:"path" yaml:"path,omitempty"`
	Training  Training `mapstructure:"training" yaml:"training"`
	Tuning    Tuning   `mapstructure:"tuning" yaml:"tuning"`
}

// Demo returns the parameters for interactive runs.
func Demo() Run {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return Run{
		Mode:    "demo",
		Logging: string(logging.LevelAll),
		Path:    home,
		Training: Training{
			CycleLimit:       100,
			CyclesPerEpisode: 10,
			EvalFrequency:    2,
			EvalGroupSize:    5,
			AdaptationLimit:  0,
			StagnationLimit:  5,
			ScoreMAHorizon:   5,
			CollectStates:    true,
			CollectActions:   true,
			CollectRewards:   true,
		},
		Tuning: Tuning{Enabled: true, Trials: 10, Jobs: 1},
	}
}

// Test returns the reduced parameters used for smoke testing.
func Test() Run {
	return Run{
		Mode:    "test",
		Logging: string(logging.LevelNothing),
		Training: Training{
			CycleLimit:       3,
			CyclesPerEpisode: 1,
			EvalFrequency:    2,
			EvalGroupSize:    1,
			AdaptationLimit:  0,
			StagnationLimit:  0,
			ScoreMAHorizon:   0,
			CollectStates:    true,
			CollectActions:   true,
			CollectRewards:   true,
		},
		Tuning: Tuning{Enabled: true, Trials: 10, Jobs: 1},
	}
}

// Preset returns the named preset.
func Preset(mode string) (Run, error) {
	switch mode {
	case "demo", "":
		return Demo(), nil
	case "test":
		return Test(), nil
	}
	return Run{}, errors.Errorf("unknown mode %q (expected demo|test)", mode)
}

// Validate checks the training parameters.
func (t Training) Validate() error {
	if t.CycleLimit < 0 || t.AdaptationLimit < 0 || t.StagnationLimit < 0 || t.ScoreMAHorizon < 0 {
		return errors.New("limits and horizons must be >= 0")
	}
	if t.CyclesPerEpisode < 1 {
		return errors.Errorf("cycles_per_episode must be >= 1, got %d", t.CyclesPerEpisode)
	}
	if t.EvalFrequency < 0 {
		return errors.Errorf("eval_frequency must be >= 0, got %d", t.EvalFrequency)
	}
	if t.EvalFrequency > 0 && t.EvalGroupSize < 1 {
		return errors.Errorf("eval_group_size must be >= 1 when evaluating, got %d", t.EvalGroupSize)
	}
	stagnation := t.StagnationLimit > 0 && t.EvalFrequency > 0
	if t.CycleLimit == 0 && !stagnation && t.AdaptationLimit == 0 {
		return ErrUnbounded
	}
	return nil
}

// Validate checks the whole run.
func (r Run) Validate() error {
	if _, err := logging.ParseLevel(r.Logging); err != nil {
		return err
	}
	if err := r.Training.Validate(); err != nil {
		return errors.Wrap(err, "training")
	}
	if r.Tuning.Enabled && r.Tuning.Trials < 1 {
		return errors.Errorf("tuning.trials must be >= 1, got %d", r.Tuning.Trials)
	}
	if r.Tuning.Jobs < 0 {
		return errors.Errorf("tuning.jobs must be >= 0, got %d", r.Tuning.Jobs)
	}
	return nil
}

// Save writes the run parameters as YAML to <dir>/config.yaml.
func (r Run) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "config.mkdir")
	}
	b, err := yaml.Marshal(r)
	if err != nil {
		return errors.Wrap(err, "config.marshal")
	}
	return errors.Wrap(os.WriteFile(filepath.Join(dir, "config.yaml"), b, 0o644), "config.write")
}

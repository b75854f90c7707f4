package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. RLTUNE_TRAINING_CYCLE_LIMIT.
const EnvPrefix = "RLTUNE"

// NewViper returns a viper instance whose defaults are the given preset.
// Flags bound to it by the caller take precedence over file and environment.
func NewViper(preset Run) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("mode", preset.Mode)
	v.SetDefault("logging", preset.Logging)
	v.SetDefault("visualize", preset.Visualize)
	v.SetDefault("path", preset.Path)

	t := preset.Training
	v.SetDefault("training.cycle_limit", t.CycleLimit)
	v.SetDefault("training.cycles_per_episode", t.CyclesPerEpisode)
	v.SetDefault("training.eval_frequency", t.EvalFrequency)
	v.SetDefault("training.eval_group_size", t.EvalGroupSize)
	v.SetDefault("training.adaptation_limit", t.AdaptationLimit)
	v.SetDefault("training.stagnation_limit", t.StagnationLimit)
	v.SetDefault("training.score_ma_horizon", t.ScoreMAHorizon)
	v.SetDefault("training.collect_states", t.CollectStates)
	v.SetDefault("training.collect_actions", t.CollectActions)
	v.SetDefault("training.collect_rewards", t.CollectRewards)
	v.SetDefault("training.seed", t.Seed)

	h := preset.Tuning
	v.SetDefault("tuning.enabled", h.Enabled)
	v.SetDefault("tuning.trials", h.Trials)
	v.SetDefault("tuning.jobs", h.Jobs)
	v.SetDefault("tuning.ids", h.IDs)
	v.SetDefault("tuning.resume", h.Resume)
	return v
}

// Load reads an optional YAML file into v and decodes the result.
func Load(v *viper.Viper, file string) (Run, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Run{}, errors.Wrapf(err, "read config %s", file)
		}
	}
	var r Run
	if err := v.Unmarshal(&r); err != nil {
		return Run{}, errors.Wrap(err, "decode config")
	}
	if err := r.Validate(); err != nil {
		return Run{}, err
	}
	return r, nil
}

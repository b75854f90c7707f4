package trainer

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/go-logr/logr"
	"github.com/pkg/errors"

	"github.com/neurlang/rltune/config"
	"github.com/neurlang/rltune/hpt"
	"github.com/neurlang/rltune/hyperparam"
	"github.com/neurlang/rltune/metrics"
	"github.com/neurlang/rltune/rl"
	"github.com/neurlang/rltune/space"
)

// Training runs a scenario, optionally wrapped in a hyperparameter tuning study.
type Training struct {
	Name   string
	Setup  rl.SetupFunc
	Mode   rl.Mode
	Params config.Training
	// Path is the run directory; empty disables all file output.
	Path string

	// Tuner, when set, runs Trials trainings over the hyperparameters named in
	// TuneIDs (all when empty) and maximizes their high score.
	Tuner   hpt.Tuner
	Trials  int
	TuneIDs []string

	Log     logr.Logger
	Metrics *metrics.Metrics
}

// Outcome is the result of Training.Run.
type Outcome struct {
	// Results is set for a training without tuner.
	Results *Results
	// Study and Trials are set for a tuned training; Trials is keyed by trial number.
	Study  *hpt.Study
	Trials map[int]*Results
}

// Best returns the results of the best trial of a tuned training, or the
// results of a plain training.
func (o *Outcome) Best() (*Results, error) {
	if o.Study == nil {
		if o.Results == nil {
			return nil, errors.New("no results")
		}
		return o.Results, nil
	}
	best, err := o.Study.Best()
	if err != nil {
		return nil, err
	}
	r, ok := o.Trials[best.Number]
	if !ok {
		return nil, errors.Errorf("no results of trial %d", best.Number)
	}
	return r, nil
}

func (t *Training) validate() error {
	if t.Setup == nil {
		return errors.New("training has no scenario setup")
	}
	if err := t.Params.Validate(); err != nil {
		return err
	}
	if t.Tuner != nil && t.Trials < 1 {
		return errors.Errorf("trials must be >= 1, got %d", t.Trials)
	}
	return nil
}

// Run trains once, or runs the tuning study when a tuner is set.
func (t *Training) Run(ctx context.Context) (*Outcome, error) {
	if err := t.validate(); err != nil {
		return nil, errors.Wrapf(err, "training %s", t.Name)
	}
	if t.Tuner == nil {
		r, err := t.train(ctx, t.Path, nil, t.Params.Seed)
		return &Outcome{Results: r}, err
	}
	return t.tune(ctx)
}

// train builds a fresh scenario, applies params and runs one training into dir.
func (t *Training) train(ctx context.Context, dir string, params map[string]float64, seed int64) (*Results, error) {
	log := t.Log.WithName("training")
	sc, err := rl.NewScenario(t.Name, t.Mode, true, t.Setup, t.Log)
	if err != nil {
		return nil, err
	}
	if len(params) > 0 {
		hp := sc.Model().HyperParams()
		if hp == nil {
			return nil, errors.Errorf("model %s has no hyperparameters", sc.Model().Name())
		}
		if err := hyperparam.Apply(hp, params); err != nil {
			return nil, err
		}
	}

	p := t.Params
	p.Seed = seed
	collect, err := NewCollector(dir, p)
	if err != nil {
		return nil, err
	}

	var evaluate func(context.Context) (float64, int, error)
	if p.EvalFrequency > 0 {
		evaluate = NewEvaluateFunc(sc, p, t.Metrics, log)
	}
	res, err := NewLoopFunc(sc, p, evaluate, collect, t.Metrics, log)(ctx)
	if cerr := collect.Close(); cerr != nil && err == nil {
		err = errors.Wrap(cerr, "close collector")
	}
	if res != nil {
		res.Params = params
	}
	if err != nil {
		return res, err
	}
	if dir != "" {
		if err := res.Save(dir); err != nil {
			return res, err
		}
	}
	return res, nil
}

// Dimensions returns the hyperparameters of the scenario's model, restricted
// to ids when given. Names are matched as by hyperparam.Lookup.
func Dimensions(hp hyperparam.Tuple, ids []string) ([]space.Dimension, error) {
	if hp == nil {
		return nil, errors.New("model has no hyperparameters")
	}
	if len(ids) == 0 {
		return hp.Space().Dims(), nil
	}
	out := make([]space.Dimension, 0, len(ids))
	for _, name := range ids {
		id, err := hyperparam.Lookup(hp, name)
		if err != nil {
			return nil, err
		}
		d, err := hp.Space().Dim(id)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// TrialDir is the directory of one tuning trial below the run directory.
func TrialDir(path string, number int) string {
	if path == "" {
		return ""
	}
	return filepath.Join(path, fmt.Sprintf("trial_%d", number))
}

func (t *Training) tune(ctx context.Context) (*Outcome, error) {
	probe, err := rl.NewScenario(t.Name, t.Mode, true, t.Setup, t.Log)
	if err != nil {
		return nil, err
	}
	params, err := Dimensions(probe.Model().HyperParams(), t.TuneIDs)
	if err != nil {
		return nil, errors.Wrapf(err, "training %s", t.Name)
	}

	var mu sync.Mutex
	var out = &Outcome{Trials: make(map[int]*Results)}
	objective := func(ctx context.Context, trial *hpt.Trial) (float64, error) {
		res, err := t.train(ctx, TrialDir(t.Path, trial.Number), trial.Params, trial.Seed)
		if res != nil {
			res.Trial = trial.Number
			mu.Lock()
			out.Trials[trial.Number] = res
			mu.Unlock()
		}
		if err != nil {
			return 0, err
		}
		return res.Highscore, nil
	}

	study, err := t.Tuner.Maximize(ctx, params, t.Trials, objective)
	out.Study = study
	if study != nil && t.Path != "" {
		if serr := study.Save(t.Path); serr != nil && err == nil {
			err = serr
		}
	}
	return out, err
}

package hpt

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/klauspost/cpuid/v2"
	"github.com/pkg/errors"

	"github.com/neurlang/rltune/logging"
	"github.com/neurlang/rltune/metrics"
	"github.com/neurlang/rltune/parallel"
	"github.com/neurlang/rltune/space"
)

// Objective evaluates one trial and returns its value.
type Objective func(ctx context.Context, trial *Trial) (float64, error)

// Tuner optimizes an objective over a parameter space.
type Tuner interface {
	Maximize(ctx context.Context, params []space.Dimension, trials int, objective Objective) (*Study, error)
	Minimize(ctx context.Context, params []space.Dimension, trials int, objective Objective) (*Study, error)
}

// Optuna is a Tuner with Optuna's study/trial semantics: independent trials
// drawn by a sampler, numbered in order, optionally continuing a prior study.
type Optuna struct {
	Sampler Sampler
	// Jobs is the number of concurrent trials; 0 means one per logical CPU.
	Jobs int
	Seed int64
	// Retries bounds resampling of parameter sets that were already tried.
	Retries int
	// Study, when set, is continued instead of starting a new one.
	Study   *Study
	Name    string
	Log     logr.Logger
	Metrics *metrics.Metrics
}

var _ Tuner = (*Optuna)(nil)

// NewOptuna returns a tuner with a random sampler and one job.
func NewOptuna(log logr.Logger) *Optuna {
	return &Optuna{Sampler: RandomSampler{}, Jobs: 1, Retries: 10, Log: log}
}

func (o *Optuna) Maximize(ctx context.Context, params []space.Dimension, trials int, objective Objective) (*Study, error) {
	return o.optimize(ctx, Maximize, params, trials, objective)
}

func (o *Optuna) Minimize(ctx context.Context, params []space.Dimension, trials int, objective Objective) (*Study, error) {
	return o.optimize(ctx, Minimize, params, trials, objective)
}

// Jobs resolves the number of concurrent trials.
func Jobs(n int) int {
	if n > 0 {
		return n
	}
	if cpuid.CPU.LogicalCores > 0 {
		return cpuid.CPU.LogicalCores
	}
	return runtime.NumCPU()
}

func (o *Optuna) newStudy(direction Direction) (*Study, error) {
	if o.Study != nil {
		if o.Study.Direction != direction {
			return nil, errors.Errorf("cannot continue %s study %s as %s", o.Study.Direction, o.Study.ID, direction)
		}
		return o.Study, nil
	}
	return &Study{
		ID:        uuid.New().String(),
		Name:      o.Name,
		Direction: direction,
		Created:   time.Now().UTC(),
	}, nil
}

func (o *Optuna) optimize(ctx context.Context, direction Direction, params []space.Dimension, trials int, objective Objective) (*Study, error) {
	if trials < 1 {
		return nil, errors.Errorf("trials must be >= 1, got %d", trials)
	}
	if len(params) == 0 {
		return nil, errors.New("no hyperparameters to tune")
	}
	sampler := o.Sampler
	if sampler == nil {
		sampler = RandomSampler{}
	}
	study, err := o.newStudy(direction)
	if err != nil {
		return nil, err
	}

	log := o.Log.WithName("hpt")
	jobs := Jobs(o.Jobs)
	log.Info("study started", "study", study.ID, "direction", direction, "trials", trials,
		"params", len(params), "jobs", jobs, "cpu", cpuid.CPU.BrandName)

	// trials are sampled upfront in number order, so results do not depend on scheduling
	seen := parallel.NewSet()
	for _, t := range study.Trials {
		seen.Insert(Fingerprint(t.Params))
	}
	first := study.NextNumber()
	seeds := trialSeeds(o.Seed, first, trials)
	pending := make([]Trial, trials)
	for i := range pending {
		p := sampler.Sample(params, seeds[i])
		for retry := 1; retry <= o.Retries && !seen.Insert(Fingerprint(p)); retry++ {
			log.V(logging.DEBUG).Info("duplicate parameters resampled", "trial", first+i, "retry", retry)
			p = sampler.Sample(params, seeds[i]+int64(retry)<<32)
		}
		seen.Insert(Fingerprint(p))
		pending[i] = Trial{Number: first + i, Params: p, Seed: seeds[i]}
	}

	var mu sync.Mutex
	var lastErr error
	runErr := parallel.ForEachContext(ctx, len(pending), jobs, func(ctx context.Context, i int) {
		t := &pending[i]
		t.Started = time.Now().UTC()
		value, err := objective(ctx, t)
		t.Duration = time.Since(t.Started)

		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			t.State, t.Error = TrialFailed, err.Error()
			lastErr = err
			o.Metrics.Trial(string(TrialFailed))
			log.Error(err, "trial failed", "trial", t.Number)
		} else {
			t.State, t.Value = TrialComplete, value
			o.Metrics.Trial(string(TrialComplete))
			log.Info("trial finished", "trial", t.Number, "value", value, "duration", t.Duration)
		}
		study.Trials = append(study.Trials, *t)
		if best, err := study.Best(); err == nil {
			o.Metrics.Best(best.Value)
		}
	})
	study.sortTrials()

	if runErr != nil {
		return study, errors.Wrap(runErr, "study interrupted")
	}
	best, err := study.Best()
	if err != nil {
		if lastErr != nil {
			return study, errors.Wrap(lastErr, "all trials failed")
		}
		return study, err
	}
	log.Info("study finished", "study", study.ID, "best trial", best.Number, "value", best.Value)
	return study, nil
}

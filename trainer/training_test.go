package trainer

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-logr/logr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/neurlang/rltune/config"
	"github.com/neurlang/rltune/hpt"
	"github.com/neurlang/rltune/hyperparam"
	"github.com/neurlang/rltune/metrics"
	"github.com/neurlang/rltune/rl"
	"github.com/neurlang/rltune/space"
)

// gainEnv rewards every agent with its own action value.
type gainEnv struct {
	states, actions *space.Set
	state           *rl.State
	resets          []int64
}

func newGainEnv() *gainEnv {
	states := space.NewSet(space.NewDimension("x", space.Real, 0, 1))
	actions := space.NewSet(space.NewDimension("a", space.Real, 0, 1))
	return &gainEnv{states: states, actions: actions, state: rl.NewState(states)}
}

func (e *gainEnv) Name() string            { return "gain" }
func (e *gainEnv) StateSpace() *space.Set  { return e.states }
func (e *gainEnv) ActionSpace() *space.Set { return e.actions }
func (e *gainEnv) State() *rl.State        { return e.state }

func (e *gainEnv) Reset(seed int64) error {
	e.resets = append(e.resets, seed)
	e.state = rl.NewState(e.states)
	return nil
}

func (e *gainEnv) Process(a *rl.Action) error {
	v, _ := a.Value(e.actions.IDs()[0])
	return e.state.SetValue(e.states.IDs()[0], v)
}

func (e *gainEnv) ComputeReward(a *rl.Action, _, _ *rl.State) (*rl.Reward, error) {
	var sum float64
	for _, el := range a.Elements() {
		sum += el.Values()[0]
	}
	r := rl.NewReward(sum)
	for _, el := range a.Elements() {
		r.SetAgent(el.AgentID, el.Values()[0])
	}
	return r, nil
}

// gainPolicy acts with its "gain" hyperparameter and adapts every cycle.
type gainPolicy struct {
	obs, act *space.Set
	hp       hyperparam.Tuple
}

func newGainPolicy(obs, act *space.Set) *gainPolicy {
	hp := hyperparam.NewTuple(space.NewSet(hyperparam.New("gain", space.Real, 0, 1)))
	_ = hp.SetValue(hp.IDs()[0], 0.5)
	return &gainPolicy{obs: obs, act: act, hp: hp}
}

func (p *gainPolicy) ObservationSpace() *space.Set  { return p.obs }
func (p *gainPolicy) ActionSpace() *space.Set       { return p.act }
func (p *gainPolicy) HyperParams() hyperparam.Tuple { return p.hp }
func (p *gainPolicy) SetRandomSeed(int64)           {}

func (p *gainPolicy) ComputeAction(*rl.State) (*space.Element, error) {
	g, err := p.hp.Value(p.hp.IDs()[0])
	if err != nil {
		return nil, err
	}
	return space.NewElementFrom(p.act, []float64{g})
}

func (p *gainPolicy) Adapt(rl.SARSElement) (bool, error) {
	return true, nil
}

func gainSetup(mode rl.Mode, ada bool, log logr.Logger) (rl.Environment, rl.Model, error) {
	return gainSetupWith(newGainEnv())(mode, ada, log)
}

func gainSetupWith(env *gainEnv) rl.SetupFunc {
	return func(_ rl.Mode, ada bool, log logr.Logger) (rl.Environment, rl.Model, error) {
		return gainModel(env, ada, log)
	}
}

// recordingSetup keeps every environment it builds.
func recordingSetup(mu *sync.Mutex, envs *[]*gainEnv) rl.SetupFunc {
	return func(mode rl.Mode, ada bool, log logr.Logger) (rl.Environment, rl.Model, error) {
		env := newGainEnv()
		mu.Lock()
		*envs = append(*envs, env)
		mu.Unlock()
		return gainModel(env, ada, log)
	}
}

func gainModel(env *gainEnv, ada bool, log logr.Logger) (rl.Environment, rl.Model, error) {
	m := rl.NewMultiAgent("gainers", ada, log)
	if err := m.AddAgent(rl.NewAgent("gainer", newGainPolicy(env.states, env.actions), true, log), 1.0); err != nil {
		return nil, nil, err
	}
	return env, m, nil
}

func readCSV(path string) [][]string {
	f, err := os.Open(path)
	Expect(err).NotTo(HaveOccurred())
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	Expect(err).NotTo(HaveOccurred())
	return rows
}

var _ = Describe("Training", func() {
	var (
		ctx context.Context
		tr  *Training
	)

	BeforeEach(func() {
		ctx = context.Background()
		tr = &Training{
			Name:    "gain",
			Setup:   gainSetup,
			Params:  config.Test().Training,
			Log:     testLog,
			Metrics: metrics.New(),
		}
	})

	Context("with the test parameters", func() {
		It("should stop at the cycle limit with two evaluations", func() {
			out, err := tr.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			r := out.Results
			Expect(r.StoppedBy).To(Equal(StopCycleLimit))
			Expect(r.Cycles).To(Equal(3))
			Expect(r.Episodes).To(Equal(3))
			Expect(r.Evaluations).To(Equal(2))
			Expect(r.EvalCycles).To(Equal(2))
			Expect(r.Highscore).To(BeNumerically("~", 0.5, 1e-12))
			Expect(r.Adaptations).To(Equal(3), "evaluation cycles must not adapt")
		})

		It("should write results and collected data", func() {
			tr.Path = GinkgoT().TempDir()
			_, err := tr.Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			loaded, err := LoadResults(tr.Path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Cycles).To(Equal(3))

			states := readCSV(filepath.Join(tr.Path, StatesFile))
			Expect(states).To(HaveLen(4))
			Expect(states[0]).To(Equal([]string{"episode", "cycle", "x"}))
			Expect(readCSV(filepath.Join(tr.Path, ActionsFile))[0]).To(Equal([]string{"episode", "cycle", "gainer/a"}))
			Expect(readCSV(filepath.Join(tr.Path, RewardsFile))[1]).To(Equal([]string{"0", "1", "0.5", "0.5"}))
		})
	})

	Context("with seeds", func() {
		It("should replay the evaluation seeds and advance the training seeds", func() {
			env := newGainEnv()
			tr.Setup = gainSetupWith(env)
			tr.Params.Seed = 7
			tr.Params.EvalGroupSize = 2
			_, err := tr.Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			eval := []int64{evalSeed(7, 0), evalSeed(7, 1)}
			Expect(eval).To(Equal([]int64{7, 8}))
			Expect(env.resets).To(Equal([]int64{
				eval[0], eval[1],
				trainSeed(7, 0), trainSeed(7, 1),
				eval[0], eval[1],
				trainSeed(7, 2),
			}))
		})

		It("should train every tuning trial on the trial seed", func() {
			var mu sync.Mutex
			var envs []*gainEnv
			tr.Setup = recordingSetup(&mu, &envs)
			tr.Tuner = hpt.NewOptuna(logr.Discard())
			tr.Trials = 3
			out, err := tr.Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			var want, got []int64
			for _, trial := range out.Study.Trials {
				want = append(want, evalSeed(trial.Seed, 0), trainSeed(trial.Seed, 0))
			}
			for _, env := range envs {
				if len(env.resets) > 1 {
					got = append(got, env.resets[0], env.resets[1])
				}
			}
			Expect(got).To(ConsistOf(want))
		})
	})

	Context("with stagnation", func() {
		It("should stop once the score stops improving", func() {
			tr.Params = config.Training{
				CyclesPerEpisode: 2,
				EvalFrequency:    1,
				EvalGroupSize:    2,
				StagnationLimit:  2,
				ScoreMAHorizon:   3,
			}
			out, err := tr.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Results.StoppedBy).To(Equal(StopStagnation))
			Expect(out.Results.Evaluations).To(Equal(3))
			Expect(out.Results.Episodes).To(Equal(2))
			Expect(out.Results.ScoresMA).To(HaveLen(3))
		})
	})

	Context("with an adaptation limit and no evaluation", func() {
		It("should stop after the limit and rate the training reward", func() {
			tr.Params = config.Training{CyclesPerEpisode: 3, AdaptationLimit: 4}
			out, err := tr.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Results.StoppedBy).To(Equal(StopAdaptationLimit))
			Expect(out.Results.Cycles).To(Equal(4))
			Expect(out.Results.Episodes).To(Equal(2))
			Expect(out.Results.Evaluations).To(BeZero())
			Expect(out.Results.Highscore).To(BeNumerically("~", 0.5, 1e-12))
		})
	})

	Context("with invalid parameters", func() {
		It("should reject an unbounded training", func() {
			tr.Params = config.Training{CyclesPerEpisode: 1}
			_, err := tr.Run(ctx)
			Expect(err).To(MatchError(ContainSubstring("no cycle, stagnation or adaptation limit")))
		})
	})

	Context("with a cancelled context", func() {
		It("should stop with the context error", func() {
			c, cancel := context.WithCancel(ctx)
			cancel()
			out, err := tr.Run(c)
			Expect(err).To(MatchError(context.Canceled))
			Expect(out.Results.StoppedBy).To(Equal(StopCancelled))
		})
	})

	Context("with a tuner", func() {
		BeforeEach(func() {
			tr.Tuner = hpt.NewOptuna(logr.Discard())
			tr.Trials = 4
			tr.Path = GinkgoT().TempDir()
		})

		It("should maximize the high score over the trials", func() {
			out, err := tr.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Study.Trials).To(HaveLen(4))
			Expect(out.Trials).To(HaveLen(4))

			best, err := out.Best()
			Expect(err).NotTo(HaveOccurred())
			Expect(best.Highscore).To(BeNumerically("~", best.Params["gainer/gain"], 1e-12))
			for _, r := range out.Trials {
				Expect(r.Highscore).To(BeNumerically("<=", best.Highscore))
				Expect(filepath.Join(TrialDir(tr.Path, r.Trial), "training.json")).To(BeAnExistingFile())
			}
			Expect(filepath.Join(tr.Path, "study.json")).To(BeAnExistingFile())
		})

		It("should restrict tuning to the named hyperparameters", func() {
			tr.TuneIDs = []string{"missing"}
			_, err := tr.Run(ctx)
			Expect(err).To(MatchError(hyperparam.ErrUnknownName))
		})
	})
})

var _ = Describe("Resume", func() {
	It("should load the study of the latest run", func() {
		path := GinkgoT().TempDir()
		Expect(Resume(path, "gain", logr.Discard())).To(BeNil())

		for i, stamp := range []string{"20250101_000000", "20250102_000000"} {
			study := &hpt.Study{ID: stamp, Direction: hpt.Maximize, Trials: []hpt.Trial{{Number: i, State: hpt.TrialComplete}}}
			Expect(study.Save(RunDir(path, "gain", stamp))).To(Succeed())
		}
		Expect(os.MkdirAll(RunDir(path, "gain", "20250103_000000"), 0o755)).To(Succeed())

		study, err := Resume(path, "gain", logr.Discard())
		Expect(err).NotTo(HaveOccurred())
		Expect(study.ID).To(Equal("20250102_000000"))
	})
})

var _ = Describe("movingAverage", func() {
	It("should average the horizon and fall back to the raw score", func() {
		Expect(movingAverage(nil, 3)).To(BeZero())
		Expect(movingAverage([]float64{1, 2, 3, 4}, 2)).To(Equal(3.5))
		Expect(movingAverage([]float64{1, 2}, 5)).To(Equal(1.5))
		Expect(movingAverage([]float64{1, 2}, 0)).To(Equal(2.0))
	})
})

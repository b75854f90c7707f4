package trainer

import "context"

import "github.com/go-logr/logr"
import "gonum.org/v1/gonum/stat"

import "github.com/neurlang/rltune/config"
import "github.com/neurlang/rltune/logging"
import "github.com/neurlang/rltune/metrics"
import "github.com/neurlang/rltune/rl"

// evalSeed is fixed per position in the evaluation group, so that successive
// evaluations of one training rate the model on the same initial states.
func evalSeed(base int64, group int) int64 {
	return base + int64(group)
}

// trainSeedOffset keeps training episode seeds apart from evaluation seeds.
const trainSeedOffset = 1 << 20

func trainSeed(base int64, episode int) int64 {
	return base + trainSeedOffset + int64(episode)
}

// NewEvaluateFunc returns a function running one evaluation: EvalGroupSize
// episodes with adaptation switched off. The score is the mean over the
// episodes of the mean cycle reward; cycles is the number of cycles run.
func NewEvaluateFunc(sc *rl.Scenario, p config.Training, m *metrics.Metrics, log logr.Logger) func(ctx context.Context) (score float64, cycles int, err error) {

	return func(ctx context.Context) (float64, int, error) {
		sc.Model().SetAdaptive(false)
		defer sc.Model().SetAdaptive(true)

		var cycles int
		var episodes = make([]float64, 0, p.EvalGroupSize)
		for g := 0; g < p.EvalGroupSize; g++ {
			if err := sc.Reset(evalSeed(p.Seed, g)); err != nil {
				return 0, cycles, err
			}
			var rewards = make([]float64, 0, p.CyclesPerEpisode)
			for c := 0; c < p.CyclesPerEpisode; c++ {
				if err := ctx.Err(); err != nil {
					return 0, cycles, err
				}
				res, err := sc.RunCycle()
				if err != nil {
					return 0, cycles, err
				}
				cycles++
				m.Cycle(metrics.PhaseEval)
				rewards = append(rewards, res.Score)
				if res.NextState.Done || res.NextState.Broken {
					break
				}
			}
			m.Episode(metrics.PhaseEval)
			episodes = append(episodes, stat.Mean(rewards, nil))
		}

		score := stat.Mean(episodes, nil)
		log.V(logging.DEBUG).Info("evaluation", "episodes", len(episodes), "cycles", cycles, "score", score)
		return score, cycles, nil
	}
}

// movingAverage is the mean of the last horizon scores; horizons below 2 return the last score.
func movingAverage(scores []float64, horizon int) float64 {
	if len(scores) == 0 {
		return 0
	}
	if horizon < 2 {
		return scores[len(scores)-1]
	}
	if horizon > len(scores) {
		horizon = len(scores)
	}
	return stat.Mean(scores[len(scores)-horizon:], nil)
}

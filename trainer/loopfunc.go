package trainer

import "context"
import "time"

import "github.com/go-logr/logr"
import "github.com/pkg/errors"

import "github.com/neurlang/rltune/config"
import "github.com/neurlang/rltune/logging"
import "github.com/neurlang/rltune/metrics"
import "github.com/neurlang/rltune/rl"

// NewLoopFunc returns the training loop of one scenario. Training episodes run
// until the cycle limit, the adaptation limit or stagnation of the evaluation
// score stops it. evaluate may be nil when p.EvalFrequency is 0.
func NewLoopFunc(sc *rl.Scenario, p config.Training, evaluate func(context.Context) (float64, int, error),
	collect *Collector, m *metrics.Metrics, log logr.Logger) func(ctx context.Context) (*Results, error) {

	return func(ctx context.Context) (*Results, error) {
		var res = newResults(sc.Name())
		var stagnation int
		var trainSum float64

		// runEval evaluates, updates the high score and reports stagnation
		var runEval = func() (bool, error) {
			score, cycles, err := evaluate(ctx)
			res.EvalCycles += cycles
			if err != nil {
				return false, err
			}
			res.Evaluations++
			res.Scores = append(res.Scores, score)
			ma := movingAverage(res.Scores, p.ScoreMAHorizon)
			res.ScoresMA = append(res.ScoresMA, ma)
			m.Evaluation(score)
			if res.Evaluations == 1 || ma > res.Highscore {
				res.Highscore = ma
				stagnation = 0
				m.Highscore(ma)
				log.V(logging.DEBUG).Info("new high score", "evaluation", res.Evaluations, "score", score, "ma", ma)
			} else {
				stagnation++
				log.V(logging.DEBUG).Info("no improvement", "evaluation", res.Evaluations, "score", score, "ma", ma, "stagnation", stagnation)
			}
			return p.StagnationLimit > 0 && stagnation >= p.StagnationLimit, nil
		}

		var finish = func(reason StopReason, err error) (*Results, error) {
			res.StoppedBy = reason
			res.Duration = time.Since(res.Started)
			if p.EvalFrequency == 0 && res.Cycles > 0 {
				res.Highscore = trainSum / float64(res.Cycles)
				m.Highscore(res.Highscore)
			}
			if err != nil {
				if ctx.Err() != nil {
					res.StoppedBy = StopCancelled
				}
				return res, err
			}
			log.Info("training finished", "scenario", res.Scenario, "stopped by", reason,
				"cycles", res.Cycles, "episodes", res.Episodes, "evaluations", res.Evaluations,
				"highscore", res.Highscore, "duration", res.Duration)
			return res, nil
		}

		log.Info("training started", "scenario", res.Scenario, "id", res.ID.String(),
			"cycle limit", p.CycleLimit, "cycles per episode", p.CyclesPerEpisode)

		if p.EvalFrequency > 0 {
			if _, err := runEval(); err != nil {
				return finish(StopFailed, errors.Wrap(err, "initial evaluation"))
			}
		}

		for {
			if err := ctx.Err(); err != nil {
				return finish(StopCancelled, err)
			}
			if err := sc.Reset(trainSeed(p.Seed, res.Episodes)); err != nil {
				return finish(StopFailed, err)
			}

			var stop StopReason
			for c := 0; c < p.CyclesPerEpisode; c++ {
				if err := ctx.Err(); err != nil {
					return finish(StopCancelled, err)
				}
				cycle, err := sc.RunCycle()
				if err != nil {
					return finish(StopFailed, errors.Wrapf(err, "episode %d cycle %d", res.Episodes, c))
				}
				res.Cycles++
				trainSum += cycle.Score
				m.Cycle(metrics.PhaseTrain)
				if err := collect.Record(res.Episodes, cycle); err != nil {
					return finish(StopFailed, err)
				}
				if cycle.Adapted {
					res.Adaptations++
					m.Adaptation()
				}
				if p.AdaptationLimit > 0 && res.Adaptations >= p.AdaptationLimit {
					stop = StopAdaptationLimit
					break
				}
				if p.CycleLimit > 0 && res.Cycles >= p.CycleLimit {
					stop = StopCycleLimit
					break
				}
				if cycle.NextState.Done || cycle.NextState.Broken {
					break
				}
			}
			res.Episodes++
			m.Episode(metrics.PhaseTrain)
			log.V(logging.TRACE).Info("episode finished", "episode", res.Episodes, "cycles", res.Cycles)

			if p.EvalFrequency > 0 && res.Episodes%p.EvalFrequency == 0 {
				stagnated, err := runEval()
				if err != nil {
					return finish(StopFailed, errors.Wrapf(err, "evaluation after episode %d", res.Episodes))
				}
				if stagnated && stop == "" {
					stop = StopStagnation
				}
			}
			if stop != "" {
				return finish(stop, nil)
			}
		}
	}
}

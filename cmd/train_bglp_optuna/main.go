package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/go-logr/logr"
	"github.com/klauspost/cpuid/v2"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/neurlang/rltune/config"
	"github.com/neurlang/rltune/hpt"
	"github.com/neurlang/rltune/logging"
	"github.com/neurlang/rltune/metrics"
	"github.com/neurlang/rltune/rl"
	"github.com/neurlang/rltune/trainer"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	var mode, file string

	cmd := &cobra.Command{
		Use:          "train_bglp_optuna",
		Short:        "Tune a random policy on the bulk goods loading plant",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			preset, err := config.Preset(mode)
			if err != nil {
				return err
			}
			v := config.NewViper(preset)
			if err := bindFlags(v, cmd.Flags()); err != nil {
				return err
			}
			run, err := config.Load(v, file)
			if err != nil {
				return err
			}
			return execute(cmd.Context(), run, stdout)
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "demo", "Parameter branch: demo|test")
	cmd.Flags().StringVarP(&file, "config", "c", "", "YAML file overriding the branch parameters")
	cmd.Flags().String("path", "", "Result directory (empty in test mode disables file output)")
	cmd.Flags().String("log", "", "Log level: all|warnings|nothing")
	cmd.Flags().Int("trials", 0, "Number of tuning trials")
	cmd.Flags().Int("jobs", 1, "Concurrent trials (0 = one per logical CPU)")
	cmd.Flags().Int64("seed", 0, "Base seed of trials and episodes")
	cmd.Flags().Bool("resume", false, "Continue the study of the latest run below --path")
	return cmd
}

// flagKeys maps config keys to the flags overriding them.
var flagKeys = map[string]string{
	"path":          "path",
	"logging":       "log",
	"tuning.trials": "trials",
	"tuning.jobs":   "jobs",
	"tuning.resume": "resume",
	"training.seed": "seed",
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for key, name := range flagKeys {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			return errors.Wrapf(err, "bind --%s", name)
		}
	}
	return nil
}

func execute(ctx context.Context, run config.Run, stdout io.Writer) error {
	level, err := logging.ParseLevel(run.Logging)
	if err != nil {
		return err
	}

	var resumed *hpt.Study
	if run.Tuning.Resume {
		if resumed, err = trainer.Resume(run.Path, scenarioName, logr.Discard()); err != nil {
			return err
		}
	}

	var dir string
	if run.Path != "" {
		dir = trainer.RunDir(run.Path, scenarioName, time.Now().Format(trainer.RunDirLayout))
	}
	log, cleanup, err := logging.New(logging.Config{Level: level, Dir: dir})
	if err != nil {
		return err
	}
	defer func() { _ = cleanup() }()
	log = log.WithName(scenarioName)

	log.Info("run started", "mode", run.Mode, "dir", dir, "cpu", cpuid.CPU.BrandName,
		"cores", cpuid.CPU.LogicalCores)
	if run.Visualize {
		log.Info("visualization is not available, continuing without")
	}
	if dir != "" {
		if err := run.Save(dir); err != nil {
			return err
		}
	}

	m := metrics.New()
	tr := &trainer.Training{
		Name:    scenarioName,
		Setup:   setupScenario,
		Mode:    rl.ModeSim,
		Params:  run.Training,
		Path:    dir,
		Log:     log,
		Metrics: m,
	}
	if run.Tuning.Enabled {
		tuner := hpt.NewOptuna(log)
		tuner.Name = scenarioName
		tuner.Jobs = run.Tuning.Jobs
		tuner.Seed = run.Training.Seed
		tuner.Study = resumed
		tuner.Metrics = m
		tr.Tuner, tr.Trials, tr.TuneIDs = tuner, run.Tuning.Trials, run.Tuning.IDs
	}

	out, err := tr.Run(ctx)
	if out != nil && out.Study != nil {
		if rerr := hpt.RenderRecap(stdout, out.Study); rerr != nil && err == nil {
			err = rerr
		}
	}
	if dir != "" {
		if merr := m.WriteTextfile(dir); merr != nil && err == nil {
			err = merr
		}
	}
	if err != nil {
		log.Error(err, "run failed")
		return err
	}
	if trial, value, ok := finishedSummary(out); ok {
		log.Info("run finished", "highscore", value, "trial", trial)
	}
	return nil
}

// finishedSummary returns the best trial and its value. The best trial of a
// resumed study may stem from an earlier run, so the study is asked first.
func finishedSummary(out *trainer.Outcome) (trial int, value float64, ok bool) {
	if out.Study != nil {
		best, err := out.Study.Best()
		if err != nil {
			return 0, 0, false
		}
		return best.Number, best.Value, true
	}
	if out.Results == nil {
		return 0, 0, false
	}
	return out.Results.Trial, out.Results.Highscore, true
}

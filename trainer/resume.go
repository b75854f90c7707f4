package trainer

import "os"
import "path/filepath"
import "sort"

import "github.com/go-logr/logr"
import "github.com/pkg/errors"

import "github.com/neurlang/rltune/hpt"

// RunDirLayout is the timestamp layout of run directories.
const RunDirLayout = "20060102_150405"

// RunDir is the directory of a new run of scenario below path.
func RunDir(path, scenario, stamp string) string {
	return filepath.Join(path, "rltune", scenario, stamp)
}

// Resume loads the study of the latest run of scenario below path, so that a
// tuner can continue it. Without a previous study it returns nil.
func Resume(path, scenario string, log logr.Logger) (*hpt.Study, error) {
	if path == "" {
		return nil, nil
	}
	base := filepath.Join(path, "rltune", scenario)
	entries, err := os.ReadDir(base)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "resume")
	}
	var runs []string
	for _, e := range entries {
		if e.IsDir() {
			runs = append(runs, e.Name())
		}
	}
	// stamps sort lexically in time order
	sort.Sort(sort.Reverse(sort.StringSlice(runs)))
	for _, run := range runs {
		study, err := hpt.LoadStudy(filepath.Join(base, run))
		if err != nil {
			return nil, err
		}
		if study != nil {
			log.Info("resuming study", "study", study.ID, "run", run, "trials", len(study.Trials))
			return study, nil
		}
	}
	return nil, nil
}

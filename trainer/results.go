package trainer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// StopReason tells why a training ended.
type StopReason string

const (
	StopCycleLimit      StopReason = "cycle_limit"
	StopStagnation      StopReason = "stagnation"
	StopAdaptationLimit StopReason = "adaptation_limit"
	StopCancelled       StopReason = "cancelled"
	StopFailed          StopReason = "failed"
)

const resultsFile = "training.json"

// Results summarizes one training.
type Results struct {
	ID       uuid.UUID `json:"id"`
	Scenario string    `json:"scenario"`
	// Trial is the tuning trial number, -1 outside tuning.
	Trial  int                `json:"trial"`
	Params map[string]float64 `json:"params,omitempty"`

	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`

	Cycles      int `json:"cycles"`
	EvalCycles  int `json:"eval_cycles"`
	Episodes    int `json:"episodes"`
	Evaluations int `json:"evaluations"`
	Adaptations int `json:"adaptations"`

	Scores    []float64  `json:"scores"`
	ScoresMA  []float64  `json:"scores_ma"`
	Highscore float64    `json:"highscore"`
	StoppedBy StopReason `json:"stopped_by"`
}

func newResults(scenario string) *Results {
	return &Results{
		ID:       uuid.New(),
		Scenario: scenario,
		Trial:    -1,
		Started:  time.Now().UTC(),
	}
}

// Save writes the results to <dir>/training.json.
func (r *Results) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "results.mkdir")
	}
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return errors.Wrap(err, "results.marshal")
	}
	path := filepath.Join(dir, resultsFile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return errors.Wrapf(err, "write %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrapf(err, "rename %s", tmp)
	}
	return nil
}

// LoadResults reads <dir>/training.json.
func LoadResults(dir string) (*Results, error) {
	b, err := os.ReadFile(filepath.Join(dir, resultsFile))
	if err != nil {
		return nil, errors.Wrap(err, "results.read")
	}
	var r Results
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, errors.Wrap(err, "results.unmarshal")
	}
	return &r, nil
}

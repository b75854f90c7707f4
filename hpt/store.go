package hpt

import (
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/neurlang/quaternary"
	"github.com/pkg/errors"
)

const (
	studyFile  = "study.json"
	filterFile = "study.q"
)

// Save writes the study to <dir>/study.json and the quaternary filter of its
// good trials to <dir>/study.q.
func (s *Study) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "study.mkdir")
	}
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errors.Wrap(err, "study.marshal")
	}
	if err := writeAtomic(filepath.Join(dir, studyFile), b); err != nil {
		return err
	}
	if filter, ok := s.Filter(); ok {
		return writeAtomic(filepath.Join(dir, filterFile), filter)
	}
	return nil
}

// Filter encodes, per complete trial, whether the trial scored at least as well
// as the median. Keys are the leading 32 bits of the trial's parameter fingerprint.
func (s *Study) Filter() ([]byte, bool) {
	median, err := s.Median()
	if err != nil {
		return nil, false
	}
	set := make(map[uint32]bool)
	for _, t := range s.Complete() {
		fp := Fingerprint(t.Params)
		good := t.Value == median || s.better(t.Value, median)
		set[binary.LittleEndian.Uint32(fp[:4])] = good
	}
	q := quaternary.Make(set)
	return []byte(q), true
}

// LoadStudy reads <dir>/study.json. A missing file yields (nil, nil).
func LoadStudy(dir string) (*Study, error) {
	b, err := os.ReadFile(filepath.Join(dir, studyFile))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "study.read")
	}
	var s Study
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, errors.Wrap(err, "study.unmarshal")
	}
	s.sortTrials()
	return &s, nil
}

func writeAtomic(path string, b []byte) error {
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

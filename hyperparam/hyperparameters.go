// Package hyperparam implements hyperparameter spaces and tuples of policies.
package hyperparam

import "strings"

import "github.com/pkg/errors"

import "github.com/neurlang/rltune/space"

// ErrUnknownName is returned when a hyperparameter name cannot be resolved.
var ErrUnknownName = errors.New("unknown hyperparameter")

// Space is the set of hyperparameters of a tuple.
type Space = space.Set

// New creates a hyperparameter dimension. Kind is space.Integer or space.Real.
func New(name string, kind space.Kind, low, high float64) space.Dimension {
	return space.NewDimension(name, kind, low, high)
}

// Tuple holds one value per hyperparameter of its space.
type Tuple interface {
	Space() *Space
	IDs() []int
	Value(id int) (float64, error)
	SetValue(id int, v float64) error
}

type tuple struct {
	values *space.Element
}

// NewTuple creates a tuple of s. Unset values read as zero.
func NewTuple(s *Space) Tuple {
	return &tuple{values: space.NewElement(s)}
}

func (t *tuple) Space() *Space {
	return t.values.Set()
}

func (t *tuple) IDs() []int {
	return t.values.Set().IDs()
}

func (t *tuple) Value(id int) (float64, error) {
	return t.values.Value(id)
}

// SetValue stores v as given; boundaries only restrict what a tuner samples.
func (t *tuple) SetValue(id int, v float64) error {
	return t.values.SetValue(id, v)
}

// Lookup resolves a hyperparameter name to its id. Both qualified names
// ("owner/name") and bare names are accepted; bare names must be unambiguous.
func Lookup(t Tuple, name string) (int, error) {
	var found = -1
	for _, d := range t.Space().Dims() {
		if d.Name == name {
			return d.ID, nil
		}
		if !strings.Contains(name, "/") && bareName(d.Name) == name {
			if found >= 0 {
				return 0, errors.Errorf("ambiguous hyperparameter %q", name)
			}
			found = d.ID
		}
	}
	if found < 0 {
		return 0, errors.Wrap(ErrUnknownName, name)
	}
	return found, nil
}

// Values returns the tuple as a name to value map.
func Values(t Tuple) map[string]float64 {
	out := make(map[string]float64)
	for _, d := range t.Space().Dims() {
		v, err := t.Value(d.ID)
		if err == nil {
			out[d.Name] = v
		}
	}
	return out
}

// Apply stores every named value into the tuple.
func Apply(t Tuple, values map[string]float64) error {
	for name, v := range values {
		id, err := Lookup(t, name)
		if err != nil {
			return err
		}
		if err := t.SetValue(id, v); err != nil {
			return errors.Wrapf(err, "set %s", name)
		}
	}
	return nil
}

func bareName(name string) string {
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		return name[i+1:]
	}
	return name
}

package space

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Element holds one value per dimension of a set.
type Element struct {
	set    *Set
	values *mat.VecDense
}

// NewElement creates a zero element of s.
func NewElement(s *Set) *Element {
	e := &Element{set: s}
	if s.Len() > 0 {
		e.values = mat.NewVecDense(s.Len(), nil)
	}
	return e
}

// NewElementFrom creates an element of s holding values in dimension order.
func NewElementFrom(s *Set, values []float64) (*Element, error) {
	if len(values) != s.Len() {
		return nil, errors.Errorf("element of %d dimensions got %d values", s.Len(), len(values))
	}
	e := NewElement(s)
	for i, v := range values {
		e.values.SetVec(i, v)
	}
	return e, nil
}

// Set returns the set the element belongs to.
func (e *Element) Set() *Set {
	return e.set
}

// Value returns the value of dimension id.
func (e *Element) Value(id int) (float64, error) {
	i, ok := e.set.Position(id)
	if !ok {
		return 0, errors.Wrapf(ErrUnknownDimension, "id %d", id)
	}
	return e.values.AtVec(i), nil
}

// SetValue stores the value of dimension id.
func (e *Element) SetValue(id int, v float64) error {
	i, ok := e.set.Position(id)
	if !ok {
		return errors.Wrapf(ErrUnknownDimension, "id %d", id)
	}
	e.values.SetVec(i, v)
	return nil
}

// Values returns a copy of the values in dimension order.
func (e *Element) Values() []float64 {
	if e.values == nil {
		return nil
	}
	return append([]float64(nil), e.values.RawVector().Data...)
}

// Vector exposes the values as a gonum vector.
func (e *Element) Vector() mat.Vector {
	return e.values
}

// Project copies the values of the dimensions of sub, which must be a sub-set of e's set.
func (e *Element) Project(sub *Set) (*Element, error) {
	out := NewElement(sub)
	for i, id := range sub.IDs() {
		v, err := e.Value(id)
		if err != nil {
			return nil, errors.Wrap(err, "project")
		}
		out.values.SetVec(i, v)
	}
	return out, nil
}

// Copy returns an independent copy of e.
func (e *Element) Copy() *Element {
	out := &Element{set: e.set}
	if e.values != nil {
		out.values = mat.VecDenseCopyOf(e.values)
	}
	return out
}

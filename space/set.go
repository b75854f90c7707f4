package space

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrUnknownDimension is returned when an id does not belong to a set.
var ErrUnknownDimension = errors.New("unknown dimension")

// Set is an ordered collection of dimensions.
type Set struct {
	dims  []Dimension
	index map[int]int
}

// NewSet creates a set of the given dimensions.
func NewSet(dims ...Dimension) *Set {
	s := &Set{index: make(map[int]int, len(dims))}
	for _, d := range dims {
		s.Add(d)
	}
	return s
}

// Add appends a dimension. Adding an id twice replaces the earlier dimension.
func (s *Set) Add(d Dimension) {
	if s.index == nil {
		s.index = make(map[int]int)
	}
	if i, ok := s.index[d.ID]; ok {
		s.dims[i] = d
		return
	}
	s.index[d.ID] = len(s.dims)
	s.dims = append(s.dims, d)
}

// Len is the number of dimensions.
func (s *Set) Len() int {
	return len(s.dims)
}

// IDs returns the dimension ids in order.
func (s *Set) IDs() []int {
	ids := make([]int, len(s.dims))
	for i, d := range s.dims {
		ids[i] = d.ID
	}
	return ids
}

// Dims returns a copy of the dimensions in order.
func (s *Set) Dims() []Dimension {
	return append([]Dimension(nil), s.dims...)
}

// Dim returns the dimension with the given id.
func (s *Set) Dim(id int) (Dimension, error) {
	i, ok := s.index[id]
	if !ok {
		return Dimension{}, errors.Wrapf(ErrUnknownDimension, "id %d", id)
	}
	return s.dims[i], nil
}

// Position returns the index of the dimension id inside the set.
func (s *Set) Position(id int) (int, bool) {
	i, ok := s.index[id]
	return i, ok
}

// DimByName returns the first dimension with the given name.
func (s *Set) DimByName(name string) (Dimension, bool) {
	for _, d := range s.dims {
		if d.Name == name {
			return d, true
		}
	}
	return Dimension{}, false
}

// Spawn creates a sub-set holding the given dimensions in the given order.
func (s *Set) Spawn(ids []int) (*Set, error) {
	sub := &Set{index: make(map[int]int, len(ids))}
	for _, id := range ids {
		d, err := s.Dim(id)
		if err != nil {
			return nil, errors.Wrap(err, "spawn")
		}
		sub.Add(d)
	}
	return sub, nil
}

func (s *Set) String() string {
	var names = make([]string, len(s.dims))
	for i, d := range s.dims {
		names[i] = d.Name
	}
	return fmt.Sprint(names)
}

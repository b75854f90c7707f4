package hyperparam

import "github.com/pkg/errors"

import "github.com/neurlang/rltune/space"

// Dispatcher joins the tuples of several owners into one tuple. The joined
// space keeps the ids of the owners' dimensions and qualifies their names
// as "owner/name". Reads and writes are routed to the owning tuple.
type Dispatcher struct {
	space  *Space
	owners map[int]Tuple
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		space:  space.NewSet(),
		owners: make(map[int]Tuple),
	}
}

// Add registers the tuple of owner.
func (d *Dispatcher) Add(owner string, t Tuple) {
	if t == nil {
		return
	}
	for _, dim := range t.Space().Dims() {
		if owner != "" {
			dim.Name = owner + "/" + dim.Name
		}
		d.space.Add(dim)
		d.owners[dim.ID] = t
	}
}

func (d *Dispatcher) Space() *Space {
	return d.space
}

func (d *Dispatcher) IDs() []int {
	return d.space.IDs()
}

func (d *Dispatcher) Value(id int) (float64, error) {
	t, ok := d.owners[id]
	if !ok {
		return 0, errors.Wrapf(space.ErrUnknownDimension, "id %d", id)
	}
	return t.Value(id)
}

func (d *Dispatcher) SetValue(id int, v float64) error {
	t, ok := d.owners[id]
	if !ok {
		return errors.Wrapf(space.ErrUnknownDimension, "id %d", id)
	}
	return t.SetValue(id, v)
}

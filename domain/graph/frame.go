package graph

import (
	"fmt"
	"sort"

	pkgerrors "heterobatch/pkg/errors"
	"heterobatch/pkg/tensor"
)

// frame is an attribute table: a mapping from attribute name to a tensor
// whose leading dimension equals the owning type's node count or the
// owning relation's edge count. Insertion order is irrelevant; names are
// unique per table.
type frame struct {
	rows int
	data map[string]*tensor.Tensor
}

func newFrame(rows int) *frame {
	return &frame{rows: rows, data: make(map[string]*tensor.Tensor)}
}

// set stores or overwrites an attribute by name.
func (f *frame) set(name string, t *tensor.Tensor) error {
	if name == "" {
		return pkgerrors.NewValidationError("attribute name cannot be empty")
	}
	if t == nil {
		return pkgerrors.NewValidationError(fmt.Sprintf("attribute %q tensor cannot be nil", name))
	}
	if t.Rows() != f.rows {
		return pkgerrors.NewValidationError(fmt.Sprintf(
			"attribute %q has %d rows, expected %d", name, t.Rows(), f.rows))
	}
	f.data[name] = t
	return nil
}

func (f *frame) get(name string) (*tensor.Tensor, error) {
	t, ok := f.data[name]
	if !ok {
		return nil, pkgerrors.NewNotFoundError(fmt.Sprintf("attribute %q", name))
	}
	return t, nil
}

func (f *frame) has(name string) bool {
	_, ok := f.data[name]
	return ok
}

// names returns the attribute names in sorted order for deterministic
// iteration.
func (f *frame) names() []string {
	names := make([]string, 0, len(f.data))
	for name := range f.data {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

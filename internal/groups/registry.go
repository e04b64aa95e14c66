// Package groups tracks the syncytium groups defined in a counting session.
package groups

import (
	"fmt"
)

// SingleCells is the implicit group that always exists.
const SingleCells = 0

// InvalidGroupError is returned for operations on a group that was never allocated.
type InvalidGroupError struct {
	Group int
}

func (e *InvalidGroupError) Error() string {
	return fmt.Sprintf("syncytium %d does not exist", e.Group)
}

// Registry holds the allocated group indices and the active group new
// markers are assigned to. Indices are never reused within a session.
type Registry struct {
	groups []int
	active int
}

// NewRegistry creates a registry holding only the single-cell group.
func NewRegistry() *Registry {
	return &Registry{groups: []int{SingleCells}, active: SingleCells}
}

// AddGroup allocates the next unused index and makes it active.
func (r *Registry) AddGroup() int {
	next := r.groups[len(r.groups)-1] + 1
	r.groups = append(r.groups, next)
	r.active = next
	return next
}

// SetActive selects the group new markers attach to.
func (r *Registry) SetActive(group int) error {
	if !r.Has(group) {
		return &InvalidGroupError{Group: group}
	}
	r.active = group
	return nil
}

// Active returns the group new markers attach to.
func (r *Registry) Active() int {
	return r.active
}

// Has reports whether a group index has been allocated.
func (r *Registry) Has(group int) bool {
	return group >= 0 && group <= r.groups[len(r.groups)-1]
}

// Groups returns the allocated indices in allocation order, single cells first.
func (r *Registry) Groups() []int {
	out := make([]int, len(r.groups))
	copy(out, r.groups)
	return out
}

// Len returns the number of allocated groups, including single cells.
func (r *Registry) Len() int {
	return len(r.groups)
}

// Ensure allocates groups until maxGroup exists. The active group is left unchanged.
func (r *Registry) Ensure(maxGroup int) {
	for r.groups[len(r.groups)-1] < maxGroup {
		r.groups = append(r.groups, r.groups[len(r.groups)-1]+1)
	}
}

// Reset drops every syncytium and reselects single cells.
func (r *Registry) Reset() {
	r.groups = []int{SingleCells}
	r.active = SingleCells
}

// Name returns the display name of a group.
func Name(group int) string {
	if group == SingleCells {
		return "Single Cells"
	}
	return fmt.Sprintf("Syncytium %d", group)
}

package selection

import (
	"fmt"
	"strconv"

	"syncytia-counter/internal/groups"
	"syncytia-counter/internal/markers"
)

// SyncError reports a host event or host state that does not line up with the store.
type SyncError struct {
	Kind   EventKind
	Index  int
	Len    int
	Reason string
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("marker display out of sync (%s at %d, %d markers): %s", e.Kind, e.Index, e.Len, e.Reason)
}

// Mutation describes the store change made for a host event.
type Mutation struct {
	Kind   EventKind
	Index  int
	Marker markers.Marker
}

// Adapter keeps a host selection and a marker store in the same order. It
// is the only code that writes to the host display and the only code that
// maps host indices to store indices.
type Adapter struct {
	host     Host
	store    *markers.Store
	registry *groups.Registry
	opts     DisplayOptions
}

// NewAdapter binds a host selection to a store and registry.
func NewAdapter(host Host, store *markers.Store, registry *groups.Registry) *Adapter {
	return &Adapter{
		host:     host,
		store:    store,
		registry: registry,
		opts:     DefaultDisplayOptions(),
	}
}

// Host returns the bound host selection.
func (a *Adapter) Host() Host {
	return a.host
}

// Options returns the display options last pushed.
func (a *Adapter) Options() DisplayOptions {
	return a.opts
}

// PushAll rebuilds the host point set from the store and applies the display options.
func (a *Adapter) PushAll(opts DisplayOptions) error {
	if a.host.Closed() {
		return ErrHostUnavailable
	}
	a.opts = opts
	a.host.Clear()
	for _, m := range a.store.Markers() {
		a.host.Append(a.point(m))
	}
	a.host.SetStyle(opts.Style())
	return nil
}

// PullEdit applies a host gesture to the store. Additions go to the active
// group; moves and removals address the marker at the same index.
//
// A SyncError does not always mean the store is untouched: an addition is
// stored before the host point is tagged, and the final length check runs
// after the store changed. Callers resynchronize the host with PushAll.
func (a *Adapter) PullEdit(ev Event) (Mutation, error) {
	if a.host.Closed() {
		return Mutation{}, ErrHostUnavailable
	}

	n := a.store.Len()
	mut := Mutation{Kind: ev.Kind, Index: ev.Index}

	switch ev.Kind {
	case EventAdded:
		if ev.Index != n {
			return Mutation{}, &SyncError{Kind: ev.Kind, Index: ev.Index, Len: n, Reason: "new point is not at the end of the list"}
		}
		mut.Marker = markers.Marker{Group: a.registry.Active(), Position: ev.Position}
		a.store.Add(mut.Marker.Group, mut.Marker.Position)
		if err := a.host.SetTag(ev.Index, a.point(mut.Marker).Tag); err != nil {
			return mut, &SyncError{Kind: ev.Kind, Index: ev.Index, Len: n + 1, Reason: err.Error()}
		}

	case EventMoved:
		if ev.Index < 0 || ev.Index >= n {
			return Mutation{}, &SyncError{Kind: ev.Kind, Index: ev.Index, Len: n, Reason: "index out of range"}
		}
		if err := a.store.MoveAt(ev.Index, ev.Position); err != nil {
			return Mutation{}, err
		}
		mut.Marker, _ = a.store.At(ev.Index)

	case EventRemoved:
		if ev.Index < 0 || ev.Index >= n {
			return Mutation{}, &SyncError{Kind: ev.Kind, Index: ev.Index, Len: n, Reason: "index out of range"}
		}
		mut.Marker, _ = a.store.At(ev.Index)
		if err := a.store.RemoveAt(ev.Index); err != nil {
			return Mutation{}, err
		}

	default:
		return Mutation{}, &SyncError{Kind: ev.Kind, Index: ev.Index, Len: n, Reason: "unknown event"}
	}

	if hl, sl := a.host.Len(), a.store.Len(); hl != sl {
		return mut, &SyncError{Kind: ev.Kind, Index: ev.Index, Len: sl,
			Reason: fmt.Sprintf("host has %d points", hl)}
	}
	return mut, nil
}

// Verify checks that the host shows exactly the store's markers, in order.
func (a *Adapter) Verify() error {
	points := a.host.Points()
	all := a.store.Markers()
	if len(points) != len(all) {
		return &SyncError{Index: -1, Len: len(all), Reason: fmt.Sprintf("host has %d points", len(points))}
	}
	for i, m := range all {
		if points[i].Position != m.Position || points[i].Group != m.Group {
			return &SyncError{Index: i, Len: len(all), Reason: "point differs from marker"}
		}
	}
	return nil
}

func (a *Adapter) point(m markers.Marker) Point {
	return Point{
		Position: m.Position,
		Tag: Tag{
			Group:  m.Group,
			Label:  strconv.Itoa(m.Group),
			Hidden: a.opts.HideSingleCells && m.Group == groups.SingleCells,
		},
	}
}

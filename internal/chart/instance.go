// Package chart renders the dashboard's two charts and tracks the live chart
// bound to each output target.
package chart

import (
	"errors"
	"slices"
	"sync"
)

// Target names an output slot on the page.
type Target string

const (
	CardsTarget  Target = "cardsChart"
	ValuesTarget Target = "valuesChart"
)

// Targets lists the output slots in page order.
var Targets = []Target{CardsTarget, ValuesTarget}

func (t Target) Valid() bool {
	return slices.Contains(Targets, t)
}

type Kind string

const (
	Line Kind = "line"
	Bar  Kind = "bar"
)

var (
	ErrDisposed = errors.New("chart instance disposed")
	ErrNoData   = errors.New("chart has no data")
)

// Dataset is one named series of a chart.
type Dataset struct {
	Label string
	Data  []float64
	Color string // hex, without '#'
	Fill  bool
}

// Instance is one rendered chart. It stays usable until disposed.
type Instance struct {
	id       uint64
	target   Target
	kind     Kind
	title    string
	labels   []string
	datasets []Dataset
	width    int
	height   int

	mu        sync.Mutex
	disposed  bool
	onDispose func()
}

func (i *Instance) ID() uint64 { return i.id }
func (i *Instance) Target() Target { return i.target }
func (i *Instance) Kind() Kind { return i.kind }
func (i *Instance) Title() string { return i.title }
func (i *Instance) Labels() []string { return slices.Clone(i.labels) }
func (i *Instance) Datasets() []Dataset {
	out := make([]Dataset, len(i.datasets))
	for k, ds := range i.datasets {
		ds.Data = slices.Clone(ds.Data)
		out[k] = ds
	}
	return out
}

// Disposed reports whether the instance was released.
func (i *Instance) Disposed() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.disposed
}

// Dispose releases the instance's data. Calling it again is a no-op.
func (i *Instance) Dispose() {
	i.mu.Lock()
	if i.disposed {
		i.mu.Unlock()
		return
	}
	i.disposed = true
	i.labels = nil
	i.datasets = nil
	cb := i.onDispose
	i.onDispose = nil
	i.mu.Unlock()

	if cb != nil {
		cb()
	}
}

// snapshot returns the data under lock, or ErrDisposed.
func (i *Instance) snapshot() ([]string, []Dataset, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.disposed {
		return nil, nil, ErrDisposed
	}
	return i.labels, i.datasets, nil
}

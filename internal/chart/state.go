package chart

import (
	"sync"
	"sync/atomic"
)

// State owns the chart bound to each target. Binding a new instance disposes
// the previous one, so a target never holds more than one live chart.
type State struct {
	mu      sync.Mutex
	bound   map[Target]*Instance
	live    atomic.Int64
	renders atomic.Uint64
}

func NewState() *State {
	return &State{bound: make(map[Target]*Instance)}
}

// Instance returns the chart currently bound to t.
func (s *State) Instance(t Target) (*Instance, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inst, ok := s.bound[t]
	return inst, ok
}

// Live counts the undisposed instances created through this state.
func (s *State) Live() int {
	return int(s.live.Load())
}

// Renders counts completed Render calls.
func (s *State) Renders() uint64 {
	return s.renders.Load()
}

// track makes inst count as live until disposed.
func (s *State) track(inst *Instance) {
	s.live.Add(1)
	inst.onDispose = func() { s.live.Add(-1) }
}

// bind disposes whatever is bound to inst's target and binds inst.
func (s *State) bind(inst *Instance) {
	s.mu.Lock()
	prev := s.bound[inst.target]
	s.bound[inst.target] = inst
	s.mu.Unlock()

	if prev != nil && prev != inst {
		prev.Dispose()
	}
}

// Reset disposes every bound chart.
func (s *State) Reset() {
	s.mu.Lock()
	prev := s.bound
	s.bound = make(map[Target]*Instance)
	s.mu.Unlock()

	for _, inst := range prev {
		inst.Dispose()
	}
}

// Package processtest provides a scripted process.Snapshot for tests.
package processtest

import (
	"sync"

	"Booster/process"
)

// Snapshot serves the staged process table on every Refresh.
type Snapshot struct {
	mu        sync.Mutex
	staged    []process.Candidate
	current   []process.Candidate
	refreshes int
	Err       error
}

func New(procs ...process.Candidate) *Snapshot {
	return &Snapshot{staged: procs}
}

// Set replaces the table served from the next Refresh on.
func (s *Snapshot) Set(procs ...process.Candidate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staged = procs
}

// Add appends to the table served from the next Refresh on.
func (s *Snapshot) Add(procs ...process.Candidate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staged = append(s.staged, procs...)
}

// Kill drops pid from the table served from the next Refresh on.
func (s *Snapshot) Kill(pid int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.staged[:0:0]
	for _, c := range s.staged {
		if c.Pid != pid {
			kept = append(kept, c)
		}
	}
	s.staged = kept
}

func (s *Snapshot) Refreshes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshes
}

func (s *Snapshot) Refresh() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshes++
	if s.Err != nil {
		return s.Err
	}
	s.current = append([]process.Candidate(nil), s.staged...)
	return nil
}

func (s *Snapshot) List() []process.Candidate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]process.Candidate(nil), s.current...)
}

func (s *Snapshot) Lookup(pid int32) (process.Candidate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.current {
		if c.Pid == pid {
			return c, true
		}
	}
	return process.Candidate{}, false
}

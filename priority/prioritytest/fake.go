// Package prioritytest provides an in-memory priority.API for tests.
package prioritytest

import (
	"errors"
	"fmt"
	"sync"

	"Booster/priority"
)

var ErrNoProcess = errors.New("no such process")

type Set struct {
	Pid   int32
	Class priority.Class
}

type process struct {
	class   priority.Class
	openErr error
	setErr  error
	// sticky ignores SetClass without reporting an error.
	sticky bool
}

// API records every call so tests can assert on rights, mutations and handle balance.
type API struct {
	mu       sync.Mutex
	procs    map[int32]*process
	opens    int
	closes   int
	sets     []Set
	accesses []priority.Access
}

func New() *API {
	return &API{procs: make(map[int32]*process)}
}

func (a *API) Add(pid int32, class priority.Class) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.procs[pid] = &process{class: class}
}

func (a *API) Remove(pid int32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.procs, pid)
}

func (a *API) FailOpen(pid int32, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if p, ok := a.procs[pid]; ok {
		p.openErr = err
	}
}

func (a *API) FailSet(pid int32, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if p, ok := a.procs[pid]; ok {
		p.setErr = err
	}
}

// IgnoreSet makes SetClass succeed without changing the class.
func (a *API) IgnoreSet(pid int32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if p, ok := a.procs[pid]; ok {
		p.sticky = true
	}
}

func (a *API) ClassOf(pid int32) priority.Class {
	a.mu.Lock()
	defer a.mu.Unlock()
	if p, ok := a.procs[pid]; ok {
		return p.class
	}
	return priority.ClassUnknown
}

func (a *API) Sets() []Set {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Set(nil), a.sets...)
}

func (a *API) Accesses() []priority.Access {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]priority.Access(nil), a.accesses...)
}

func (a *API) Opens() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.opens
}

// Leaked is the number of handles opened and not yet closed.
func (a *API) Leaked() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.opens - a.closes
}

type handle struct {
	api    *API
	pid    int32
	closed bool
}

func (h *handle) Close() error {
	h.api.mu.Lock()
	defer h.api.mu.Unlock()
	if h.closed {
		return fmt.Errorf("handle of PID %d closed twice", h.pid)
	}
	h.closed = true
	h.api.closes++
	return nil
}

func (a *API) Open(pid int32, access priority.Access) (priority.Handle, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.accesses = append(a.accesses, access)
	p, ok := a.procs[pid]
	if !ok {
		return nil, ErrNoProcess
	}
	if p.openErr != nil {
		return nil, p.openErr
	}
	a.opens++
	return &handle{api: a, pid: pid}, nil
}

func (a *API) lookup(h priority.Handle) (*handle, *process, error) {
	fh, ok := h.(*handle)
	if !ok {
		return nil, nil, fmt.Errorf("foreign handle %T", h)
	}
	if fh.closed {
		return nil, nil, fmt.Errorf("handle of PID %d used after close", fh.pid)
	}
	p, ok := a.procs[fh.pid]
	if !ok {
		return nil, nil, ErrNoProcess
	}
	return fh, p, nil
}

func (a *API) Class(h priority.Handle) (priority.Class, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, p, err := a.lookup(h)
	if err != nil {
		return priority.ClassUnknown, err
	}
	return p.class, nil
}

func (a *API) SetClass(h priority.Handle, c priority.Class) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	fh, p, err := a.lookup(h)
	if err != nil {
		return err
	}
	if p.setErr != nil {
		return p.setErr
	}
	a.sets = append(a.sets, Set{Pid: fh.pid, Class: c})
	if !p.sticky {
		p.class = c
	}
	return nil
}

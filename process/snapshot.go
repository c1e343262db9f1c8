package process

import (
	"fmt"
	"sync"
	"time"

	gops "github.com/shirou/gopsutil/v3/process"
	log "github.com/sirupsen/logrus"
)

// Candidate is one entry of a process scan. Exe is empty when the path could not be read.
type Candidate struct {
	Pid    int32         `json:"pid"`
	Name   string        `json:"name"`
	Exe    string        `json:"exe,omitempty"`
	Uptime time.Duration `json:"uptime"`
}

// Snapshot is a refreshable view of the process table.
type Snapshot interface {
	Refresh() error
	// List returns the entries in enumeration order.
	List() []Candidate
	Lookup(pid int32) (Candidate, bool)
}

// SystemSnapshot reads the live process table through gopsutil.
type SystemSnapshot struct {
	mu     sync.RWMutex
	items  []Candidate
	index  map[int32]int
	detail func(name string) bool
	now    func() time.Time
}

// NewSystemSnapshot builds an empty snapshot. When detail is non-nil, the executable path
// and start time are only read for processes whose name it accepts.
func NewSystemSnapshot(detail func(name string) bool) *SystemSnapshot {
	return &SystemSnapshot{
		index:  make(map[int32]int),
		detail: detail,
		now:    time.Now,
	}
}

func (s *SystemSnapshot) Refresh() error {
	procs, err := gops.Processes()
	if err != nil {
		return fmt.Errorf("failed to get process list: %w", err)
	}
	now := s.now()
	items := make([]Candidate, 0, len(procs))
	index := make(map[int32]int, len(procs))
	for _, p := range procs {
		name, err := p.Name()
		if err != nil {
			continue
		}
		c := Candidate{Pid: p.Pid, Name: name}
		if s.detail == nil || s.detail(name) {
			if exe, err := p.Exe(); err == nil {
				c.Exe = exe
			} else {
				log.Debugf("exe of PID %d unavailable: %v", p.Pid, err)
			}
			if created, err := p.CreateTime(); err == nil {
				c.Uptime = uptime(now, created)
			}
		}
		index[c.Pid] = len(items)
		items = append(items, c)
	}
	s.mu.Lock()
	s.items = items
	s.index = index
	s.mu.Unlock()
	return nil
}

// uptime converts a creation time in epoch milliseconds into elapsed run time.
func uptime(now time.Time, createdMillis int64) time.Duration {
	d := now.Sub(time.UnixMilli(createdMillis))
	if d < 0 {
		return 0
	}
	return d
}

func (s *SystemSnapshot) List() []Candidate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Candidate(nil), s.items...)
}

func (s *SystemSnapshot) Lookup(pid int32) (Candidate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[pid]
	if !ok {
		return Candidate{}, false
	}
	return s.items[i], true
}

package booster

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"Booster/config"
	"Booster/paths"
	"Booster/priority"
	"Booster/process"
	"Booster/safety"

	mapset "github.com/deckarep/golang-set/v2"
	log "github.com/sirupsen/logrus"
)

const Version = "2.0.0"

var ErrClosed = errors.New("booster is closed")

type State int

const (
	Disabled State = iota
	Enabled
)

func (s State) String() string {
	if s == Enabled {
		return "enabled"
	}
	return "disabled"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "enabled":
		*s = Enabled
	case "disabled":
		*s = Disabled
	default:
		return fmt.Errorf("unknown state %q", text)
	}
	return nil
}

// Stats describes the last enable pass.
type Stats struct {
	ProcessesBoosted int            `json:"processes_boosted"`
	MemoryCleared    bool           `json:"memory_cleared"`
	GpuBoosted       bool           `json:"gpu_boosted"`
	PriorityLevel    priority.Level `json:"priority_level"`
}

type Options struct {
	Snapshot    process.Snapshot
	API         priority.API
	Resolver    *paths.Resolver
	Preferences config.Preferences
	Limits      config.Limits
	// Policy defaults to safety.DefaultPolicy(Limits.MinUptime).
	Policy *safety.Policy
}

// Engine finds the game client, boosts it and undoes every boost it made.
// All state is guarded by one mutex.
type Engine struct {
	mu       sync.Mutex
	snap     process.Snapshot
	ctl      *priority.Controller
	policy   *safety.Policy
	resolver *paths.Resolver
	prefs    config.Preferences
	limits   config.Limits

	// boosted holds the pids this engine raised and must restore.
	boosted mapset.Set[int32]
	names   map[int32]string
	// warned holds the last rejection Tick reported for each pid.
	warned map[int32]string
	stats  Stats
	state  State
	closed bool
}

func New(opts Options) *Engine {
	policy := opts.Policy
	if policy == nil {
		policy = safety.DefaultPolicy(opts.Limits.MinUptime)
	}
	e := &Engine{
		snap:     opts.Snapshot,
		ctl:      priority.NewController(opts.API),
		policy:   policy,
		resolver: opts.Resolver,
		prefs:    opts.Preferences,
		limits:   opts.Limits,
		boosted:  mapset.NewThreadUnsafeSetWithSize[int32](opts.Limits.MaxProcesses),
		names:    make(map[int32]string),
		warned:   make(map[int32]string),
	}
	e.resolver.Rebuild(e.prefs)
	return e
}

// UpdateConfig swaps the preferences and rebuilds the allowed path list.
func (e *Engine) UpdateConfig(prefs config.Preferences) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.prefs = prefs
	e.resolver.Rebuild(prefs)
}

// Enable boosts every eligible client process found right now.
func (e *Engine) Enable() (Summary, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return Summary{}, ErrClosed
	}
	if err := e.snap.Refresh(); err != nil {
		return Summary{}, fmt.Errorf("error refreshing processes: %w", err)
	}
	e.prune()

	candidates := e.candidates()
	if len(candidates) == 0 {
		return Summary{}, ErrNoProcessesFound
	}
	if len(candidates) > e.limits.MaxProcesses {
		return Summary{}, &TooManyProcessesError{Found: len(candidates), Max: e.limits.MaxProcesses}
	}

	stats := Stats{PriorityLevel: e.prefs.PriorityLevel}
	var summary Summary
	allowed := e.resolver.Paths()
	var boosted []process.Candidate
	for _, c := range candidates {
		if err := e.boost(c, allowed); err != nil {
			e.report(&summary, c, err)
			continue
		}
		stats.ProcessesBoosted++
		boosted = append(boosted, c)
		summary.ok(fmt.Sprintf("CPU: %s (PID: %d)", c.Name, c.Pid))
	}
	if stats.ProcessesBoosted == 0 {
		e.stats = stats
		for _, w := range summary.Warnings {
			log.Warn(w)
		}
		summary.Headline = "No process passed the safety checks"
		return summary, ErrNoProcessesFound
	}

	if e.prefs.EnableGpuBoost {
		for _, c := range boosted {
			friendly, err := e.ctl.GpuFriendly(c.Pid)
			switch {
			case err != nil:
				summary.skip(fmt.Sprintf("GPU %s: %v", c.Name, err))
			case !friendly:
				summary.skip(fmt.Sprintf("GPU %s: process priority too low for GPU boost", c.Name))
			default:
				stats.GpuBoosted = true
				summary.ok(fmt.Sprintf("GPU: %s", c.Name))
			}
		}
	}
	if e.prefs.ClearMemoryCache {
		stats.MemoryCleared = true
		summary.ok("Memory optimization enabled")
	}

	e.stats = stats
	e.state = Enabled
	summary.Headline = fmt.Sprintf("Booster v%s enabled - %d process(es) optimized", Version, stats.ProcessesBoosted)
	log.Infof("Booster enabled, boosted %d of %d candidate(s)", stats.ProcessesBoosted, len(candidates))
	return summary, nil
}

// Tick is the periodic auto detection pass. It only runs while enabled with auto detect
// on, and reports false when there is nothing new to show.
func (e *Engine) Tick() (Summary, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || e.state != Enabled || !e.prefs.AutoDetect {
		return Summary{}, false
	}
	if err := e.snap.Refresh(); err != nil {
		log.Errorf("error refreshing processes: %v", err)
		return Summary{}, false
	}
	e.prune()
	if e.boosted.Cardinality() >= e.limits.MaxProcesses {
		log.Debugf("Max processes reached (%d/%d)", e.boosted.Cardinality(), e.limits.MaxProcesses)
		return Summary{}, false
	}

	var summary Summary
	var names []string
	allowed := e.resolver.Paths()
	for _, c := range e.candidates() {
		if e.boosted.Contains(c.Pid) {
			continue
		}
		if len(names) >= e.limits.MaxNewPerTick || e.boosted.Cardinality() >= e.limits.MaxProcesses {
			break
		}
		if err := e.boost(c, allowed); err != nil {
			log.Debugf("Skipped PID %d: %v", c.Pid, err)
			if key := rejectionKey(err); e.warned[c.Pid] != key {
				e.warned[c.Pid] = key
				e.report(&summary, c, err)
			}
			continue
		}
		names = append(names, c.Name)
		summary.ok(fmt.Sprintf("CPU: %s (PID: %d)", c.Name, c.Pid))
	}
	switch {
	case len(names) > 0:
		summary.Headline = fmt.Sprintf("Auto-boosted %d process(es): %s", len(names), strings.Join(names, ", "))
	case len(summary.Warnings) > 0:
		summary.Headline = fmt.Sprintf("Auto-detect skipped %d process(es)", len(summary.Warnings))
	}
	return summary, !summary.Empty()
}

// Disable restores every tracked process and forgets them, whatever the outcome.
func (e *Engine) Disable() Summary {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.disable()
}

// Close restores everything still tracked. Calling it more than once is harmless and
// the engine refuses to enable afterwards.
func (e *Engine) Close() Summary {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return Summary{}
	}
	e.closed = true
	if e.state == Disabled && e.boosted.Cardinality() == 0 {
		return Summary{}
	}
	return e.disable()
}

func (e *Engine) disable() Summary {
	if err := e.snap.Refresh(); err != nil {
		log.Warnf("error refreshing processes before restore: %v", err)
	}
	pids := e.boosted.ToSlice()
	slices.Sort(pids)

	var summary Summary
	restored := 0
	for _, pid := range pids {
		if c, ok := e.snap.Lookup(pid); ok && c.Name != e.names[pid] {
			summary.skip(fmt.Sprintf("PID %d: now belongs to %s, left untouched", pid, c.Name))
			continue
		}
		if err := e.ctl.Restore(pid); err != nil {
			summary.fail(fmt.Sprintf("PID %d: %v", pid, err))
			continue
		}
		restored++
	}

	e.boosted.Clear()
	clear(e.warned)
	clear(e.names)
	e.stats = Stats{}
	e.state = Disabled
	summary.Headline = fmt.Sprintf("Booster v%s disabled - %d/%d processes restored", Version, restored, len(pids))
	log.Infof("Booster disabled, restored %d/%d", restored, len(pids))
	return summary
}

// candidates returns the snapshot entries whose name passes the cheap filter.
func (e *Engine) candidates() []process.Candidate {
	var out []process.Candidate
	for _, c := range e.snap.List() {
		if e.policy.Classify(c.Name) {
			out = append(out, c)
		}
	}
	return out
}

func (e *Engine) boost(c process.Candidate, allowed []string) error {
	if err := e.policy.Evaluate(e.snap, c.Pid, allowed).Err(); err != nil {
		return err
	}
	if !e.boosted.Contains(c.Pid) && e.boosted.Cardinality() >= e.limits.MaxProcesses {
		return fmt.Errorf("boost limit reached (%d/%d)", e.boosted.Cardinality(), e.limits.MaxProcesses)
	}
	if err := e.ctl.Boost(c.Pid, e.prefs.PriorityLevel); err != nil {
		return err
	}
	e.boosted.Add(c.Pid)
	e.names[c.Pid] = c.Name
	delete(e.warned, c.Pid)
	return nil
}

func (e *Engine) report(summary *Summary, c process.Candidate, err error) {
	fields := log.Fields{"pid": c.Pid, "name": c.Name}
	if errors.Is(err, safety.ErrCheckFailed) {
		log.WithFields(fields).Warnf("skipped: %v", err)
		summary.skip(fmt.Sprintf("Skipped %s: %v", c.Name, err))
		return
	}
	log.WithFields(fields).Errorf("failed: %v", err)
	summary.fail(fmt.Sprintf("Failed %s: %v", c.Name, err))
}

// rejectionKey tells rejections apart so a pid is reported again when its reason changes.
func rejectionKey(err error) string {
	if reason, ok := safety.ReasonOf(err); ok {
		return reason.String()
	}
	return "boost failed"
}

// prune forgets tracked pids that exited or were reused by another program.
func (e *Engine) prune() {
	var gone []int32
	e.boosted.Each(func(pid int32) bool {
		if c, ok := e.snap.Lookup(pid); !ok || c.Name != e.names[pid] {
			gone = append(gone, pid)
		}
		return false
	})
	for _, pid := range gone {
		log.Infof("PID %d (%s) is gone, no longer tracked", pid, e.names[pid])
		e.boosted.Remove(pid)
		delete(e.names, pid)
	}
	for pid := range e.warned {
		if _, ok := e.snap.Lookup(pid); !ok {
			delete(e.warned, pid)
		}
	}
}

// Detect lists the client processes running from an allowed directory.
func (e *Engine) Detect() ([]process.Candidate, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.snap.Refresh(); err != nil {
		return nil, fmt.Errorf("error refreshing processes: %w", err)
	}
	allowed := e.resolver.Paths()
	out := make([]process.Candidate, 0)
	for _, c := range e.candidates() {
		if safety.PathAllowed(c.Exe, allowed) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (e *Engine) ProcessCount() int {
	detected, err := e.Detect()
	if err != nil {
		log.Errorf("error counting processes: %v", err)
		return 0
	}
	return len(detected)
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

func (e *Engine) Preferences() config.Preferences {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.prefs
}

// Boosted returns the tracked pids in ascending order.
func (e *Engine) Boosted() []int32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	pids := e.boosted.ToSlice()
	slices.Sort(pids)
	return pids
}

func (e *Engine) AllowedPaths() []string {
	return e.resolver.Paths()
}

func (e *Engine) InstallPath() string {
	return e.resolver.Primary()
}

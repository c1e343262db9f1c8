package safety

import (
	"fmt"
	"strings"
	"time"

	"Booster/process"
)

// Snapshot lookups used by the policy.
type Lookup interface {
	Lookup(pid int32) (process.Candidate, bool)
}

var (
	DefaultTargets = []string{"roblox", "rbx"}
	// DefaultExcluded keeps installers, updaters, crash handlers, bootstrappers and
	// this tool itself out of reach.
	DefaultExcluded = []string{
		"booster",
		"uninstall",
		"installer",
		"setup",
		"update",
		"crashhandler",
		"crashreporter",
		"bootstrap",
	}
)

const DefaultMinUptime = 3 * time.Second

// Policy decides, without side effects, whether a process may be boosted.
type Policy struct {
	Targets   []string
	Excluded  []string
	MinUptime time.Duration
}

func DefaultPolicy(minUptime time.Duration) *Policy {
	return &Policy{
		Targets:   DefaultTargets,
		Excluded:  DefaultExcluded,
		MinUptime: minUptime,
	}
}

// Classify reports whether name looks like the game client: it contains a target
// substring and none of the excluded ones, compared in lower case.
func (p *Policy) Classify(name string) bool {
	lower := strings.ToLower(name)
	matched := false
	for _, t := range p.Targets {
		if strings.Contains(lower, t) {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}
	for _, x := range p.Excluded {
		if strings.Contains(lower, x) {
			return false
		}
	}
	return true
}

// Evaluate runs the checks cheapest first: presence, uptime, name, then path.
func (p *Policy) Evaluate(snap Lookup, pid int32, allowed []string) Verdict {
	c, ok := snap.Lookup(pid)
	if !ok {
		return Verdict{Pid: pid, Reason: ProcessGone, Detail: fmt.Sprintf("Process %d no longer exists", pid)}
	}
	if c.Uptime < p.MinUptime {
		return Verdict{Pid: pid, Name: c.Name, Reason: TooNew,
			Detail: fmt.Sprintf("Process %d too new (%s < %s)", pid, c.Uptime.Truncate(time.Millisecond), p.MinUptime)}
	}
	if !p.Classify(c.Name) {
		return Verdict{Pid: pid, Name: c.Name, Reason: NameRejected,
			Detail: fmt.Sprintf("Process name '%s' failed validation", c.Name)}
	}
	if !PathAllowed(c.Exe, allowed) {
		return Verdict{Pid: pid, Name: c.Name, Exe: c.Exe, Reason: PathNotWhitelisted,
			Detail: fmt.Sprintf("Process %d executable not in allowed directories", pid)}
	}
	return Verdict{Pid: pid, Name: c.Name, Exe: c.Exe, Reason: Eligible}
}

// PathAllowed reports whether exe lies inside one of the allowed directories. The match is
// on whole path components, ignores case and treats / and \ alike. Empty inputs never match.
func PathAllowed(exe string, allowed []string) bool {
	path := normalize(exe)
	if path == "" {
		return false
	}
	for _, a := range allowed {
		prefix := normalize(a)
		if prefix == "" {
			continue
		}
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

func normalize(p string) string {
	p = strings.ToLower(strings.TrimSpace(p))
	p = strings.ReplaceAll(p, `\`, "/")
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	return strings.TrimRight(p, "/")
}

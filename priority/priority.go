package priority

import (
	"fmt"
	"strconv"
	"strings"
)

// Level is the user-selectable boost target.
type Level uint8

const (
	Normal Level = iota
	AboveNormal
	High
)

func (l Level) String() string {
	switch l {
	case Normal:
		return "normal"
	case AboveNormal:
		return "above_normal"
	default:
		return "high"
	}
}

// Class maps the level onto the scheduling class it requests.
func (l Level) Class() Class {
	switch l {
	case Normal:
		return ClassNormal
	case AboveNormal:
		return ClassAboveNormal
	default:
		return ClassHigh
	}
}

// ParseLevel accepts the level names as well as the numeric form 0, 1, 2.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "0", "normal":
		return Normal, nil
	case "1", "above_normal", "abovenormal", "above normal":
		return AboveNormal, nil
	case "2", "high":
		return High, nil
	}
	return High, fmt.Errorf("unknown priority level %q", s)
}

func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// UnmarshalJSON accepts both the quoted name and the bare number.
func (l *Level) UnmarshalJSON(data []byte) error {
	text := string(data)
	if unquoted, err := strconv.Unquote(text); err == nil {
		text = unquoted
	}
	return l.UnmarshalText([]byte(text))
}

// Class is an OS independent, ordered scheduling class.
// Native constants are translated at the API boundary since on Windows
// their numeric values do not follow precedence.
type Class uint8

const (
	ClassUnknown Class = iota
	ClassIdle
	ClassBelowNormal
	ClassNormal
	ClassAboveNormal
	ClassHigh
	ClassRealtime
)

var classNames = map[Class]string{
	ClassUnknown:     "unknown",
	ClassIdle:        "idle",
	ClassBelowNormal: "below_normal",
	ClassNormal:      "normal",
	ClassAboveNormal: "above_normal",
	ClassHigh:        "high",
	ClassRealtime:    "realtime",
}

func (c Class) String() string {
	if name, ok := classNames[c]; ok {
		return name
	}
	return fmt.Sprintf("class(%d)", uint8(c))
}

// Access is the set of rights requested when opening a process.
type Access uint8

const (
	QueryAccess Access = 1 << iota
	SetAccess
)

// Handle is an open reference to a process. It must be closed exactly once.
type Handle interface {
	Close() error
}

// API is the OS primitive set the controller is built on.
type API interface {
	Open(pid int32, access Access) (Handle, error)
	Class(h Handle) (Class, error)
	SetClass(h Handle, c Class) error
}

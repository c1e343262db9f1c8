package booster

import (
	"errors"
	"fmt"
)

var ErrNoProcessesFound = errors.New("No Roblox processes found")

// TooManyProcessesError aborts a pass before anything is mutated.
type TooManyProcessesError struct {
	Found int
	Max   int
}

func (e *TooManyProcessesError) Error() string {
	return fmt.Sprintf("Too many Roblox processes (%d > %d). This may indicate a problem.", e.Found, e.Max)
}

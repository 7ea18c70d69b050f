// Package capture owns the boundary being edited in a single capture session
// and reconciles manual drawing with live GPS tracking.
package capture

import "fmt"

type State int

const (
	StateEmpty State = iota
	StateDrafted
	StateTracking
	StateSubmitted
	StateAbandoned
)

var stateNames = map[State]string{
	StateEmpty:     "EMPTY",
	StateDrafted:   "DRAFTED",
	StateTracking:  "TRACKING",
	StateSubmitted: "SUBMITTED",
	StateAbandoned: "ABANDONED",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Terminal reports whether the session accepts no further input.
func (s State) Terminal() bool {
	return s == StateSubmitted || s == StateAbandoned
}

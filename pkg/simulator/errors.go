package simulator

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSimulationFailure is matched by every FailureError.
var ErrSimulationFailure = errors.New("simulation failure")

// FailureError reports that the backend could not produce a result. The
// cause inside the simulation library is opaque; Stderr carries whatever it
// printed.
type FailureError struct {
	Backend string
	Op      string
	Reason  string
	Stderr  string
	Err     error
}

func (e *FailureError) Error() string {
	msg := fmt.Sprintf("%s %s failed: %s", e.Backend, e.Op, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if tail := lastLine(e.Stderr); tail != "" {
		msg += " (" + tail + ")"
	}
	return msg
}

func (e *FailureError) Unwrap() error { return e.Err }

func (e *FailureError) Is(target error) bool { return target == ErrSimulationFailure }

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

// SPDX-License-Identifier: MPL-2.0

package serverbase

import (
	"errors"
	"fmt"
)

const (
	// StateCreated indicates the server was created but Start has not been called.
	StateCreated State = iota
	// StateStarting indicates Start was called and the listener is being set up.
	StateStarting
	// StateRunning indicates the server is accepting connections.
	StateRunning
	// StateStopping indicates graceful shutdown is in progress.
	StateStopping
	// StateStopped is terminal.
	StateStopped
	// StateFailed is terminal: startup or serving failed.
	StateFailed
)

// ErrInvalidState is returned when a State value is not one of the defined lifecycle states.
var ErrInvalidState = errors.New("invalid state")

type (
	// State is the lifecycle state of a server.
	State int32

	// InvalidStateError wraps ErrInvalidState with the offending value.
	InvalidStateError struct {
		Value State
	}
)

var stateNames = [...]string{"created", "starting", "running", "stopping", "stopped", "failed"}

// String returns the lowercase state name.
func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Error implements the error interface for InvalidStateError.
func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid state %d", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidStateError) Unwrap() error {
	return ErrInvalidState
}

// Validate returns nil for a defined state and an *InvalidStateError otherwise.
func (s State) Validate() error {
	if s.String() == "unknown" {
		return &InvalidStateError{Value: s}
	}
	return nil
}

// IsTerminal reports whether s is Stopped or Failed.
func (s State) IsTerminal() bool {
	return s == StateStopped || s == StateFailed
}

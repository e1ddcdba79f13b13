package checkout

import (
	"errors"
	"fmt"
)

// State is a checkout flow position.
type State string

const (
	StateIdle        State = "idle"
	StateLoginPrompt State = "login_prompt"
	StateSubmitting  State = "submitting"
	StatePlaced      State = "placed"
	StateCleared     State = "cleared"
)

var ErrInvalidTransition = errors.New("invalid checkout transition")

// Flow is the checkout state machine. It performs no I/O.
//
//	idle -> submitting -> placed -> cleared
//	idle -> login_prompt -> idle
type Flow struct {
	state State
}

func NewFlow() *Flow {
	return &Flow{state: StateIdle}
}

// RestoreFlow resumes a persisted state; unknown values start over at idle.
func RestoreFlow(s State) *Flow {
	switch s {
	case StateIdle, StateLoginPrompt, StateSubmitting, StatePlaced, StateCleared:
		return &Flow{state: s}
	}
	return NewFlow()
}

func (f *Flow) State() State { return f.state }

// Submit starts placement, or parks the flow at the login prompt for
// anonymous sessions.
func (f *Flow) Submit(authenticated bool) error {
	if f.state != StateIdle {
		return f.invalid("submit")
	}
	if authenticated {
		f.state = StateSubmitting
	} else {
		f.state = StateLoginPrompt
	}
	return nil
}

func (f *Flow) LoginSucceeded() error {
	if f.state != StateLoginPrompt {
		return f.invalid("login")
	}
	f.state = StateIdle
	return nil
}

// LoginFailed keeps the prompt open.
func (f *Flow) LoginFailed() error {
	if f.state != StateLoginPrompt {
		return f.invalid("login")
	}
	return nil
}

func (f *Flow) Place() error {
	if f.state != StateSubmitting {
		return f.invalid("place")
	}
	f.state = StatePlaced
	return nil
}

// Abort returns a submission that never reached placed back to idle.
func (f *Flow) Abort() error {
	if f.state != StateSubmitting {
		return f.invalid("abort")
	}
	f.state = StateIdle
	return nil
}

// Clear is terminal.
func (f *Flow) Clear() error {
	if f.state != StatePlaced {
		return f.invalid("clear")
	}
	f.state = StateCleared
	return nil
}

func (f *Flow) invalid(action string) error {
	return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, action, f.state)
}

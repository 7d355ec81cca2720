package models

import (
	"context"
	"errors"
	"fmt"

	"github.com/looplab/fsm"
)

// Status is the survey lifecycle state. Values are the stored integer codes.
type Status int

const (
	StatusCreated   Status = 0
	StatusOpened    Status = 1
	StatusSubmitted Status = 2
	StatusFinalized Status = 3
)

// Lifecycle events.
const (
	EventOpen     = "open"
	EventSubmit   = "submit"
	EventFinalize = "finalize"
)

var statusNames = map[Status]string{
	StatusCreated:   "created",
	StatusOpened:    "opened",
	StatusSubmitted: "submitted",
	StatusFinalized: "finalized",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// ParseStatus maps a lifecycle state name back to its Status.
func ParseStatus(name string) (Status, error) {
	for s, n := range statusNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown survey status %q", name)
}

// Re-submission keeps a submitted survey submitted. Finalized is terminal.
var lifecycleEvents = fsm.Events{
	{Name: EventOpen, Src: []string{"created"}, Dst: "opened"},
	{Name: EventSubmit, Src: []string{"opened", "submitted"}, Dst: "submitted"},
	{Name: EventFinalize, Src: []string{"submitted"}, Dst: "finalized"},
}

// Can reports whether event is allowed from s.
func (s Status) Can(event string) bool {
	return fsm.NewFSM(s.String(), lifecycleEvents, fsm.Callbacks{}).Can(event)
}

// Apply runs event against s and returns the resulting status.
// A disallowed event returns ErrSurveyClosed.
func (s Status) Apply(ctx context.Context, event string) (Status, error) {
	machine := fsm.NewFSM(s.String(), lifecycleEvents, fsm.Callbacks{})
	if !machine.Can(event) {
		return s, fmt.Errorf("%w: cannot %s a %s survey", ErrSurveyClosed, event, s)
	}
	if err := machine.Event(ctx, event); err != nil {
		var noop fsm.NoTransitionError
		if !errors.As(err, &noop) {
			return s, err
		}
	}
	return ParseStatus(machine.Current())
}

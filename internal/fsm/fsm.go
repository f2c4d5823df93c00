// Package fsm is the request state machine: idle, recording, uploading,
// invoking, then succeeded or failed.
package fsm

import "fmt"

type State string

type Event string

const (
	StateIdle      State = "idle"
	StateRecording State = "recording"
	StateUploading State = "uploading"
	StateInvoking  State = "invoking"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

const (
	EventStart    Event = "start"
	EventStop     Event = "stop"
	EventCancel   Event = "cancel"
	EventUploaded Event = "uploaded"
	EventInvoked  Event = "invoked"
	EventFail     Event = "fail"
	EventReset    Event = "reset"
)

// edges lists every legal move except EventFail, which is accepted from any state.
var edges = map[State]map[Event]State{
	StateIdle:      {EventStart: StateRecording},
	StateRecording: {EventStop: StateUploading, EventCancel: StateIdle},
	StateUploading: {EventUploaded: StateInvoking},
	StateInvoking:  {EventInvoked: StateSucceeded},
	StateSucceeded: {EventStart: StateRecording},
	StateFailed:    {EventReset: StateIdle},
}

// Active reports whether state belongs to an in-flight request.
func (s State) Active() bool {
	return s == StateRecording || s.Busy()
}

// Busy reports whether state is past capture and must run to completion.
func (s State) Busy() bool {
	return s == StateUploading || s == StateInvoking
}

// Transition returns the state event leads to. On error the current state is returned unchanged.
func Transition(current State, event Event) (State, error) {
	if event == EventFail {
		return StateFailed, nil
	}
	moves, ok := edges[current]
	if !ok {
		return current, fmt.Errorf("unknown state %q", current)
	}
	next, ok := moves[event]
	if !ok {
		return current, fmt.Errorf("invalid transition: %s --(%s)--> ?", current, event)
	}
	return next, nil
}

package ipc

import (
	"errors"
	"fmt"
)

// Request is one newline-delimited command sent to the owner session.
type Request struct {
	Command string `json:"command"`
	Source  string `json:"source,omitempty"`
	Target  string `json:"target,omitempty"`
}

// Response reports the owner state after handling a Request.
type Response struct {
	OK      bool   `json:"ok"`
	State   string `json:"state,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Source  string `json:"source,omitempty"`
	Target  string `json:"target,omitempty"`
	Result  string `json:"result,omitempty"`
}

// Err converts a refused request into an error carrying the owner's reason.
func (r Response) Err() error {
	if r.OK {
		return nil
	}
	if r.Error == "" {
		return fmt.Errorf("request refused in state %q", r.State)
	}
	return errors.New(r.Error)
}

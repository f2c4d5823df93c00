package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rbright/babel/internal/failure"
	"github.com/rbright/babel/internal/fsm"
	"github.com/rbright/babel/internal/ipc"
	"github.com/rbright/babel/internal/language"
)

type action int

const (
	actionStop action = iota + 1
	actionCancel
)

// Run executes one owner session: start, wait for stop or cancel, then finish the request.
// Cancelling ctx while recording releases the microphone and returns to idle.
func (c *Controller) Run(ctx context.Context) Result {
	result := Result{StartedAt: time.Now(), Languages: c.Languages()}
	finish := func() Result {
		result.State = c.State()
		result.FinishedAt = time.Now()
		return result
	}

	if err := c.Start(ctx); err != nil {
		result.Err = err
		return finish()
	}

	select {
	case <-ctx.Done():
		if err := c.Cancel(context.WithoutCancel(ctx)); err != nil {
			result.Err = errors.Join(ctx.Err(), err)
			return finish()
		}
		result.Cancelled = true
		result.Err = ctx.Err()
		return finish()
	case a := <-c.actions:
		switch a {
		case actionCancel:
			if err := c.Cancel(ctx); err != nil {
				result.Err = err
				return finish()
			}
			result.Cancelled = true
			return finish()
		case actionStop:
			req, err := c.Stop(ctx)
			result.RequestID = req.ID
			result.StoreKey = req.StoreKey
			result.PayloadBytes = len(req.Payload)
			result.Reference = req.Reference
			if req.SourceLanguage != "" {
				result.Languages = req.Languages()
			}
			result.Err = err
			return finish()
		default:
			c.recorder.Release()
			result.Err = fmt.Errorf("unknown action %d", a)
			return finish()
		}
	}
}

// Handle serves IPC commands for the active owner session.
func (c *Controller) Handle(ctx context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case "status":
		return c.response(true, "status", nil)
	case "toggle":
		if req.Source != "" || req.Target != "" {
			if _, err := c.selectFromRequest(ctx, req); err != nil {
				return c.response(false, "", err)
			}
		}
		return c.requestStop("toggle")
	case "stop":
		return c.requestStop("stop")
	case "cancel":
		return c.requestCancel()
	case "languages":
		if req.Source == "" && req.Target == "" {
			return c.response(true, "languages", nil)
		}
		pair, err := c.selectFromRequest(ctx, req)
		if err != nil {
			return c.response(false, "", err)
		}
		return c.response(true, "languages set to "+pair.String(), nil)
	default:
		return c.response(false, "", fmt.Errorf("unknown command: %s", req.Command))
	}
}

// selectFromRequest merges a partial source/target selection with the current pair.
func (c *Controller) selectFromRequest(ctx context.Context, req ipc.Request) (language.Pair, error) {
	current := c.Languages()
	source, target := req.Source, req.Target
	if source == "" {
		source = string(current.Source)
	}
	if target == "" {
		target = string(current.Target)
	}
	return c.SelectLanguages(ctx, source, target)
}

// requestStop enqueues a stop action when state permits it.
func (c *Controller) requestStop(source string) ipc.Response {
	state := c.State()
	if state.Busy() {
		return c.response(false, "", failure.InvalidState("already %s", state))
	}
	if state != fsm.StateRecording {
		return c.response(false, "", failure.InvalidState("cannot %s from state %s", source, state))
	}

	select {
	case c.actions <- actionStop:
		return c.response(true, "stop requested", nil)
	default:
		return c.response(true, "stop already requested", nil)
	}
}

// requestCancel enqueues a cancel action when state permits it.
func (c *Controller) requestCancel() ipc.Response {
	state := c.State()
	if state.Busy() {
		return c.response(false, "", failure.InvalidState("cannot cancel while %s", state))
	}
	if state != fsm.StateRecording {
		return c.response(false, "", failure.InvalidState("cannot cancel from state %s", state))
	}

	select {
	case c.actions <- actionCancel:
		return c.response(true, "cancel requested", nil)
	default:
		return c.response(true, "cancel already requested", nil)
	}
}

func (c *Controller) response(ok bool, message string, err error) ipc.Response {
	snapshot := c.Snapshot()
	resp := ipc.Response{
		OK:      ok,
		State:   string(snapshot.State),
		Message: message,
		Source:  string(snapshot.Languages.Source),
		Target:  string(snapshot.Languages.Target),
		Result:  string(snapshot.Result),
	}
	if err != nil {
		resp.Error = err.Error()
	}
	return resp
}

// Package lifecycle coordinates capture, upload, and remote invocation for one request at a time.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/rbright/babel/internal/failure"
	"github.com/rbright/babel/internal/fsm"
	"github.com/rbright/babel/internal/identifier"
	"github.com/rbright/babel/internal/language"
	"github.com/rbright/babel/internal/logging"
	"github.com/rbright/babel/internal/processor"
	"github.com/rbright/babel/internal/store"
)

// Recorder is the capture capability the controller drives.
type Recorder interface {
	Start(context.Context) error
	Stop(context.Context) ([]byte, error)
	Release()
}

// Deps wires the controller collaborators.
type Deps struct {
	Recorder  Recorder
	Store     store.ArtifactStore
	Processor processor.RemoteProcessor
	IDs       identifier.Generator
	Observer  Observer
	Logger    *zap.Logger
	Languages language.Pair
}

// Controller owns the single in-flight request, the language selection, and the last result.
type Controller struct {
	recorder  Recorder
	store     store.ArtifactStore
	processor processor.RemoteProcessor
	ids       identifier.Generator
	observer  Observer
	logger    *zap.Logger

	mu        sync.Mutex
	state     fsm.State
	busy      bool
	request   *Request
	languages language.Pair
	last      processor.Reference

	actions chan action
}

// NewController builds a controller in the idle state.
func NewController(deps Deps) (*Controller, error) {
	if deps.Recorder == nil {
		return nil, errors.New("lifecycle: recorder is required")
	}
	if deps.Store == nil {
		return nil, errors.New("lifecycle: artifact store is required")
	}
	if deps.Processor == nil {
		return nil, errors.New("lifecycle: remote processor is required")
	}
	if deps.IDs == nil {
		deps.IDs = identifier.UUID{}
	}
	if deps.Observer == nil {
		deps.Observer = noopObserver{}
	}

	return &Controller{
		recorder:  deps.Recorder,
		store:     deps.Store,
		processor: deps.Processor,
		ids:       deps.IDs,
		observer:  deps.Observer,
		logger:    logging.Named(deps.Logger, "lifecycle"),
		state:     fsm.StateIdle,
		languages: deps.Languages,
		actions:   make(chan action, 1),
	}, nil
}

// State returns the current FSM state.
func (c *Controller) State() fsm.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot returns the current observable state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Languages returns the current selection.
func (c *Controller) Languages() language.Pair {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.languages
}

// SelectLanguages replaces the selection. It is rejected while a request is uploading or invoking.
func (c *Controller) SelectLanguages(ctx context.Context, source string, target string) (language.Pair, error) {
	pair, err := language.ParsePair(source, target)
	if err != nil {
		return language.Pair{}, err
	}

	c.mu.Lock()
	if c.state.Busy() {
		state := c.state
		c.mu.Unlock()
		return language.Pair{}, failure.InvalidState("cannot change languages while %s", state)
	}
	c.languages = pair
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.logger.Info("languages selected", zap.String("source", string(pair.Source)), zap.String("target", string(pair.Target)))
	c.observer.Observe(ctx, snapshot)
	return pair, nil
}

// Start arms the microphone. A new recording discards the previous terminal request.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.busy {
		state := c.state
		c.mu.Unlock()
		return failure.InvalidState("cannot start from state %s", state)
	}
	next, err := fsm.Transition(c.state, fsm.EventStart)
	if err != nil {
		c.mu.Unlock()
		return failure.Wrap(failure.KindInvalidState, err)
	}
	c.state = next
	c.busy = true
	c.request = nil
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.logger.Info("transition", zap.String("state", string(next)))
	c.observer.Observe(ctx, snapshot)

	if err := c.recorder.Start(ctx); err != nil {
		return c.fail(ctx, failure.KindOr(err, failure.KindPermission), err)
	}

	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()
	return nil
}

// Stop finalizes the capture, uploads it, and invokes the remote processor.
// Upload and invocation run to completion even if ctx is cancelled.
func (c *Controller) Stop(ctx context.Context) (Request, error) {
	c.mu.Lock()
	if c.busy {
		state := c.state
		c.mu.Unlock()
		return Request{}, failure.InvalidState("cannot stop from state %s", state)
	}
	if _, err := fsm.Transition(c.state, fsm.EventStop); err != nil {
		c.mu.Unlock()
		return Request{}, failure.Wrap(failure.KindInvalidState, err)
	}
	c.busy = true
	c.mu.Unlock()

	payload, err := c.recorder.Stop(ctx)
	if err != nil {
		return Request{}, c.fail(ctx, failure.KindOr(err, failure.KindPermission), err)
	}
	if len(payload) == 0 {
		return Request{}, c.fail(ctx, failure.KindInvalidState, errors.New("no audio captured"))
	}

	work := context.WithoutCancel(ctx)

	id := c.ids.Generate()
	req := Request{
		ID:       id,
		Payload:  payload,
		StoreKey: store.InputKey(id, "wav"),
	}
	if err := c.advance(work, fsm.EventStop, &req); err != nil {
		return c.failRequest(work, req, failure.KindInvalidState, err)
	}

	if err := c.store.Put(work, req.StoreKey, req.Payload); err != nil {
		return c.failRequest(work, req, failure.KindStore, err)
	}

	if err := c.advance(work, fsm.EventUploaded, &req); err != nil {
		return c.failRequest(work, req, failure.KindInvalidState, err)
	}

	ref, err := c.processor.Invoke(work, processor.Params{
		StoreKey:       req.StoreKey,
		SourceLanguage: req.SourceLanguage,
		TargetLanguage: req.TargetLanguage,
	})
	if err != nil {
		return c.failRequest(work, req, failure.KindInvocation, err)
	}
	ref = processor.NormalizeReference(string(ref))
	if ref == "" {
		return c.failRequest(work, req, failure.KindInvocation, errors.New("empty result reference"))
	}

	req.Reference = ref
	if err := c.advance(work, fsm.EventInvoked, &req); err != nil {
		return c.failRequest(work, req, failure.KindInvalidState, err)
	}
	return req, nil
}

// Cancel discards an in-progress recording and releases the microphone.
// Once upload has begun the request runs to completion.
func (c *Controller) Cancel(ctx context.Context) error {
	c.mu.Lock()
	if c.busy {
		state := c.state
		c.mu.Unlock()
		return failure.InvalidState("cannot cancel from state %s", state)
	}
	next, err := fsm.Transition(c.state, fsm.EventCancel)
	if err != nil {
		c.mu.Unlock()
		return failure.Wrap(failure.KindInvalidState, err)
	}
	c.state = next
	snapshot := c.snapshotLocked()
	snapshot.Cancelled = true
	c.mu.Unlock()

	c.recorder.Release()
	c.logger.Info("recording cancelled")
	c.observer.Observe(ctx, snapshot)
	return nil
}

// advance applies event for req and publishes the resulting snapshot.
func (c *Controller) advance(ctx context.Context, event fsm.Event, req *Request) error {
	c.mu.Lock()
	next, err := fsm.Transition(c.state, event)
	if err != nil {
		c.mu.Unlock()
		return fmt.Errorf("advance request %s: %w", req.ID, err)
	}
	c.state = next
	req.State = next
	if next == fsm.StateInvoking {
		// Languages resolve into the request at the moment invocation begins.
		req.SourceLanguage = c.languages.Source
		req.TargetLanguage = c.languages.Target
	}
	stored := *req
	c.request = &stored
	if next == fsm.StateSucceeded {
		c.last = req.Reference
		c.busy = false
	}
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	fields := []zap.Field{
		zap.String("state", string(next)),
		zap.String("request_id", req.ID),
		zap.String("key", req.StoreKey),
	}
	if next == fsm.StateInvoking {
		fields = append(fields, zap.String("languages", req.Languages().String()))
	}
	if next == fsm.StateSucceeded {
		fields = append(fields, zap.String("reference", string(req.Reference)))
	}
	c.logger.Info("transition", fields...)
	c.observer.Observe(ctx, snapshot)
	return nil
}

// failRequest reports err against req and resets to idle.
func (c *Controller) failRequest(ctx context.Context, req Request, kind failure.Kind, err error) (Request, error) {
	err = failure.Wrap(kind, err)
	req.State = fsm.StateFailed
	req.Kind = kind
	c.logger.Error("request failed",
		zap.String("request_id", req.ID),
		zap.String("key", req.StoreKey),
		zap.String("kind", string(kind)),
		zap.Error(err),
	)
	c.report(ctx, req.ID, req.StoreKey, err)
	return req, err
}

// fail reports a failure that happened before a request existed.
func (c *Controller) fail(ctx context.Context, kind failure.Kind, err error) error {
	c.recorder.Release()
	err = failure.Wrap(kind, err)
	c.logger.Error("request failed", zap.String("kind", string(kind)), zap.Error(err))
	c.report(ctx, "", "", err)
	return err
}

// report moves through failed back to idle and publishes the failed snapshot.
// Failed is transient: the next start is accepted immediately.
func (c *Controller) report(ctx context.Context, requestID string, key string, err error) {
	c.mu.Lock()
	c.state, _ = fsm.Transition(c.state, fsm.EventFail)
	snapshot := c.snapshotLocked()
	snapshot.RequestID = requestID
	snapshot.StoreKey = key
	snapshot.Err = err
	c.state, _ = fsm.Transition(c.state, fsm.EventReset)
	c.request = nil
	c.busy = false
	c.mu.Unlock()

	c.observer.Observe(ctx, snapshot)
}

func (c *Controller) snapshotLocked() Snapshot {
	snapshot := Snapshot{
		State:     c.state,
		Languages: c.languages,
		Result:    c.last,
	}
	if c.request != nil {
		snapshot.RequestID = c.request.ID
		snapshot.StoreKey = c.request.StoreKey
	}
	return snapshot
}

package lifecycle

import (
	"context"
	"time"

	"github.com/rbright/babel/internal/failure"
	"github.com/rbright/babel/internal/fsm"
	"github.com/rbright/babel/internal/language"
	"github.com/rbright/babel/internal/processor"
)

// Request is one record, upload, translate attempt.
// ID and Payload are assigned once when capture completes.
type Request struct {
	ID             string
	SourceLanguage language.Code
	TargetLanguage language.Code
	Payload        []byte
	StoreKey       string
	State          fsm.State
	Reference      processor.Reference
	Kind           failure.Kind
}

// Languages returns the pair resolved into the request.
func (r Request) Languages() language.Pair {
	return language.Pair{Source: r.SourceLanguage, Target: r.TargetLanguage}
}

// Snapshot is the observable controller state after one transition.
type Snapshot struct {
	State     fsm.State
	Languages language.Pair
	RequestID string
	StoreKey  string
	// Result is the last successful reference; it survives until superseded.
	Result    processor.Reference
	Err       error
	Cancelled bool
}

// Result is the complete outcome of one Run invocation.
type Result struct {
	State        fsm.State
	RequestID    string
	StoreKey     string
	Languages    language.Pair
	Reference    processor.Reference
	PayloadBytes int
	Cancelled    bool
	Err          error
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Observer receives every snapshot in transition order.
// Implementations must not call back into the Controller.
type Observer interface {
	Observe(context.Context, Snapshot)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(context.Context, Snapshot)

func (f ObserverFunc) Observe(ctx context.Context, snapshot Snapshot) {
	f(ctx, snapshot)
}

type noopObserver struct{}

func (noopObserver) Observe(context.Context, Snapshot) {}

// Package view maps lifecycle snapshots to presentation directives and fans them out to surfaces.
package view

import (
	"context"

	"github.com/rbright/babel/internal/failure"
	"github.com/rbright/babel/internal/fsm"
	"github.com/rbright/babel/internal/language"
	"github.com/rbright/babel/internal/lifecycle"
)

// Presentation is what every surface should show for one snapshot.
type Presentation struct {
	State     fsm.State
	Label     string
	Languages language.Pair

	StartEnabled  bool
	StopEnabled   bool
	CancelEnabled bool
	Progress      bool

	// Result is the last successful locator. NewResult is set only on the transition that produced it.
	Result    string
	NewResult bool

	Error     string
	ErrorKind failure.Kind
	Cancelled bool

	RequestID string
}

// For maps snapshot to its presentation. It has no side effects.
func For(snapshot lifecycle.Snapshot) Presentation {
	p := Presentation{
		State:     snapshot.State,
		Languages: snapshot.Languages,
		Result:    string(snapshot.Result),
		RequestID: snapshot.RequestID,
		Cancelled: snapshot.Cancelled,
	}

	switch snapshot.State {
	case fsm.StateRecording:
		p.Label = "Recording " + snapshot.Languages.String()
		p.StopEnabled = true
		p.CancelEnabled = true
	case fsm.StateUploading:
		p.Label = "Uploading"
		p.Progress = true
	case fsm.StateInvoking:
		p.Label = "Translating " + snapshot.Languages.String()
		p.Progress = true
	case fsm.StateSucceeded:
		p.Label = "Translation ready"
		p.StartEnabled = true
		p.NewResult = snapshot.Result != ""
	case fsm.StateFailed:
		p.Label = "Failed"
		p.StartEnabled = true
		p.Error = failure.Message(snapshot.Err)
		p.ErrorKind = failure.KindOf(snapshot.Err)
	default:
		p.Label = "Ready"
		if snapshot.Cancelled {
			p.Label = "Cancelled"
		}
		p.StartEnabled = true
	}
	return p
}

// Surface renders presentations to one output channel.
type Surface interface {
	Render(context.Context, Presentation)
}

// SurfaceFunc adapts a function to Surface.
type SurfaceFunc func(context.Context, Presentation)

func (f SurfaceFunc) Render(ctx context.Context, p Presentation) {
	f(ctx, p)
}

// Surfaces renders to each member in order.
type Surfaces []Surface

func (s Surfaces) Render(ctx context.Context, p Presentation) {
	for _, surface := range s {
		if surface != nil {
			surface.Render(ctx, p)
		}
	}
}

// Adapter observes lifecycle snapshots and renders their presentation.
type Adapter struct {
	Surface Surface
}

// Observe implements lifecycle.Observer.
func (a Adapter) Observe(ctx context.Context, snapshot lifecycle.Snapshot) {
	if a.Surface == nil {
		return
	}
	a.Surface.Render(ctx, For(snapshot))
}

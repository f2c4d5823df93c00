// Package failure classifies request errors into the kinds surfaced to users.
package failure

import (
	"errors"
	"fmt"
)

// Kind names one user-facing error class.
type Kind string

const (
	KindNone         Kind = ""
	KindPermission   Kind = "permission"
	KindInvalidState Kind = "invalid_state"
	KindStore        Kind = "store"
	KindInvocation   Kind = "invocation"
)

var (
	// ErrPermission indicates the capture device is inaccessible or denied.
	ErrPermission = errors.New("capture device unavailable")
	// ErrInvalidState indicates an operation was invoked outside its valid state.
	ErrInvalidState = errors.New("invalid state")
	// ErrStore indicates the artifact write failed.
	ErrStore = errors.New("artifact store failed")
	// ErrInvocation indicates the remote processing call failed.
	ErrInvocation = errors.New("remote processing failed")
)

var sentinels = map[Kind]error{
	KindPermission:   ErrPermission,
	KindInvalidState: ErrInvalidState,
	KindStore:        ErrStore,
	KindInvocation:   ErrInvocation,
}

// Wrap tags err with the sentinel for kind. Both remain reachable via errors.Is/As.
func Wrap(kind Kind, err error) error {
	sentinel, ok := sentinels[kind]
	if !ok {
		return err
	}
	if err == nil {
		return sentinel
	}
	if errors.Is(err, sentinel) {
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}

// InvalidState builds an ErrInvalidState error with a formatted detail.
func InvalidState(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, fmt.Sprintf(format, args...))
}

// KindOf reports the first matching kind for err, or KindNone.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	for _, kind := range []Kind{KindPermission, KindInvalidState, KindStore, KindInvocation} {
		if errors.Is(err, sentinels[kind]) {
			return kind
		}
	}
	return KindNone
}

// KindOr is KindOf, with fallback for errors that carry no kind yet.
func KindOr(err error, fallback Kind) Kind {
	if kind := KindOf(err); kind != KindNone {
		return kind
	}
	return fallback
}

// Message renders the user-facing alert text for an error.
func Message(err error) string {
	if err == nil {
		return ""
	}
	switch KindOf(err) {
	case KindPermission:
		return "Recording failed: " + err.Error()
	case KindStore:
		return "There was an error uploading your recording: " + err.Error()
	case KindInvocation:
		return "There was a problem with the translation function: " + err.Error()
	default:
		return err.Error()
	}
}

// Package identifier produces opaque per-request identifiers.
package identifier

import "github.com/google/uuid"

// Generator returns a fresh identifier on every call.
type Generator interface {
	Generate() string
}

// Func adapts a function to the Generator interface.
type Func func() string

func (f Func) Generate() string {
	return f()
}

// UUID generates random (version 4) UUID strings.
type UUID struct{}

func (UUID) Generate() string {
	return uuid.NewString()
}

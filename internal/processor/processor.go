// Package processor invokes the remote translation function for an uploaded artifact.
package processor

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rbright/babel/internal/language"
)

// Params are the artifact coordinates and language pair for one invocation.
type Params struct {
	StoreKey       string
	SourceLanguage language.Code
	TargetLanguage language.Code
}

// Reference is an opaque locator for the translated audio.
type Reference string

// RemoteProcessor runs the translation job synchronously.
type RemoteProcessor interface {
	Invoke(ctx context.Context, params Params) (Reference, error)
}

// Func adapts a function to RemoteProcessor.
type Func func(ctx context.Context, params Params) (Reference, error)

// Invoke calls f.
func (f Func) Invoke(ctx context.Context, params Params) (Reference, error) {
	return f(ctx, params)
}

// request is the wire payload understood by the translation function.
type request struct {
	Bucket         string `json:"bucket"`
	Key            string `json:"key"`
	SourceLanguage string `json:"sourceLanguage"`
	TargetLanguage string `json:"targetLanguage"`
}

// NormalizeReference turns a raw function response into a bare locator.
// JSON string payloads are decoded, then surrounding quotes are stripped.
func NormalizeReference(raw string) Reference {
	value := strings.TrimSpace(raw)

	var decoded string
	if err := json.Unmarshal([]byte(value), &decoded); err == nil {
		value = strings.TrimSpace(decoded)
	}

	return Reference(strings.TrimSpace(strings.Trim(value, `"'`)))
}

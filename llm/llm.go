// Package llm defines the text-generation boundary and its backends. The
// orchestrator treats a Generator as a black box with a timeout contract:
// callers bound the call with a context deadline, and any failure is a
// distinguishable error, never a silent empty string.
package llm

import (
	"context"
	"errors"
)

// ErrEmptyCompletion reports a backend that technically succeeded but
// returned no text. Distinguished from transport errors so callers can still
// treat both as generation failures.
var ErrEmptyCompletion = errors.New("backend returned an empty completion")

// Generator produces a completion for a prompt. system carries the role
// instruction; implementations may fold it into the prompt if the backend
// has no separate system channel.
type Generator interface {
	Generate(ctx context.Context, prompt, system string) (string, error)
}

// Package llm is the boundary to the external text generation model.
package llm

import (
	"context"
	"errors"
	"iter"
)

// ErrGeneration marks a failure of the generation backend.
var ErrGeneration = errors.New("generation error")

// Generator streams a completion for a flattened prompt. The sequence ends
// when the model finishes. A non-nil error is the sequence's last element.
// Cancelling ctx, or stopping iteration, aborts the request.
type Generator interface {
	Generate(ctx context.Context, prompt string) iter.Seq2[string, error]
}

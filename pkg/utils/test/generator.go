package testutils

import (
	"context"
	"fmt"
	"iter"
	"sync"

	"github.com/papercomputeco/winter/pkg/llm"
)

// MockGenerator replays fixed fragments for every prompt.
type MockGenerator struct {
	mu sync.Mutex

	// Fragments are yielded in order.
	Fragments []string

	// Err, when set, is yielded after the fragments.
	Err error

	// BlockAfter, when positive, makes the stream wait for ctx to be
	// cancelled after yielding that many fragments.
	BlockAfter int

	// Reached is closed once the stream starts blocking.
	Reached chan struct{}

	// Prompts records every prompt.
	Prompts []string
}

func NewMockGenerator(fragments ...string) *MockGenerator {
	return &MockGenerator{
		Fragments: fragments,
		Reached:   make(chan struct{}),
	}
}

func (m *MockGenerator) Generate(ctx context.Context, prompt string) iter.Seq2[string, error] {
	m.mu.Lock()
	m.Prompts = append(m.Prompts, prompt)
	fragments := m.Fragments
	genErr := m.Err
	blockAfter := m.BlockAfter
	m.mu.Unlock()

	return func(yield func(string, error) bool) {
		for i, f := range fragments {
			if blockAfter > 0 && i == blockAfter {
				close(m.Reached)
				<-ctx.Done()
				yield("", fmt.Errorf("%w: %w", llm.ErrGeneration, ctx.Err()))
				return
			}
			if err := ctx.Err(); err != nil {
				yield("", fmt.Errorf("%w: %w", llm.ErrGeneration, err))
				return
			}
			if !yield(f, nil) {
				return
			}
		}
		if genErr != nil {
			yield("", genErr)
		}
	}
}

// LastPrompt returns the most recent prompt, or "".
func (m *MockGenerator) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Prompts) == 0 {
		return ""
	}
	return m.Prompts[len(m.Prompts)-1]
}

var _ llm.Generator = (*MockGenerator)(nil)

// Collect drains a generator sequence into one string, stopping at the
// first error.
func Collect(seq iter.Seq2[string, error]) (string, error) {
	var out []byte
	for fragment, err := range seq {
		if err != nil {
			return string(out), err
		}
		out = append(out, fragment...)
	}
	return string(out), nil
}

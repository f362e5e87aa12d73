package chat

import "fmt"

// FragmentKind classifies an output fragment.
type FragmentKind string

const (
	// KindDirect is a complete answer served from stored facts.
	KindDirect FragmentKind = "direct"

	// KindText is one streamed piece of a generated answer.
	KindText FragmentKind = "text"

	// KindError reports a failure that ended the exchange.
	KindError FragmentKind = "error"

	// KindTiming closes a generated answer with its elapsed time.
	KindTiming FragmentKind = "timing"
)

// Fragment is one element of a Chat sequence.
type Fragment struct {
	Kind FragmentKind `json:"kind"`
	Text string       `json:"text"`

	// ElapsedSeconds is set on timing fragments.
	ElapsedSeconds float64 `json:"elapsed_seconds,omitempty"`
}

// TimingText renders an elapsed duration the way timing fragments carry it.
func TimingText(seconds float64) string {
	return fmt.Sprintf("[elapsed: %.2fs]", seconds)
}

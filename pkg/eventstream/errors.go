package eventstream

import "errors"

var (
	// ErrNilTurnEvent indicates a nil turn event payload was provided to a publisher.
	ErrNilTurnEvent = errors.New("nil turn event")

	// ErrPublish wraps transport failures while publishing an event.
	ErrPublish = errors.New("publish turn event")
)

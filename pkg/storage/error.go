package storage

import "errors"

var (
	// ErrStorage wraps every persistence or read failure surfaced by Store.
	ErrStorage = errors.New("storage error")

	// ErrDuplicateTurn is returned by a backend when a turn number is
	// already taken in its conversation.
	ErrDuplicateTurn = errors.New("duplicate turn number")

	// ErrNoConversation is returned when an operation needs a conversation
	// ID and none was given.
	ErrNoConversation = errors.New("no conversation id")
)

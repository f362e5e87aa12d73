package memory

import "errors"

// ErrFacts wraps failures to read a fact resource. A missing resource is
// not an error.
var ErrFacts = errors.New("loading facts")

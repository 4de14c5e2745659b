package convex

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a pool or proposal does not exist upstream.
var ErrNotFound = errors.New("not found")

// TransportError is a network or HTTP level failure from the DefiLlama
// adapter. Poll cycles that depend on that data abort without touching state
// when they see one.
type TransportError struct {
	Op     string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("defillama %s: status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("defillama %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransport reports whether err is a required-adapter transport failure.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

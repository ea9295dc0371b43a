package backend

import (
	"fmt"
)

// TransportError indicates that a backend call failed before a usable
// answer was received: network failure, timeout, unexpected status or an
// unreadable body.
type TransportError struct {
	Op     string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: unexpected status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RejectionError indicates that the backend answered with a non-success
// result. Message is the backend supplied reason, possibly empty.
type RejectionError struct {
	Op      string
	Status  int
	Message string
}

func (e *RejectionError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "request rejected"
	}
	return fmt.Sprintf("%s: %s (status %d)", e.Op, msg, e.Status)
}

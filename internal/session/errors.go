package session

import (
	"errors"
	"fmt"
)

// ErrLogonTimeout is returned by Run when the counterparty's Logon does not
// arrive within the configured window. Recoverable: the caller may reconnect
// and retry with the same sequence counters.
var ErrLogonTimeout = errors.New("session: logon timed out")

// ErrNotActive is returned by Send when the session cannot accept outbound
// traffic in its current state.
var ErrNotActive = errors.New("session: not active")

// FatalError is a protocol violation that terminates the session: a missing
// or non-numeric sequence number, a sequence number below the expected value
// without PossDupFlag, a gap wider than the configured maximum, or an
// unanswered test request.
type FatalError struct {
	Reason string
}

func (e *FatalError) Error() string {
	return "session: protocol violation: " + e.Reason
}

func fatal(format string, args ...any) error {
	return &FatalError{Reason: fmt.Sprintf(format, args...)}
}

// StoreError wraps a message-store failure. A failed append during send is
// fatal: the message cannot be considered sent if it was never durably
// recorded, or a later resend request could not be honored.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("session: store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// TransportError wraps a transport failure. Sequence counters survive in the
// store for the next physical connection.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("session: transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Package store defines the durable message log the session layer depends on
// for resend service and crash recovery, with a BadgerDB implementation and
// an in-memory one for tests.
package store

import (
	"context"
	"errors"
)

// Direction marks whether a logged message was sent or received.
type Direction uint8

const (
	Inbound Direction = iota
	Outbound
)

func (d Direction) String() string {
	if d == Inbound {
		return "in"
	}
	return "out"
}

// ErrNotFound is returned by FetchRange when nothing in the range was logged.
var ErrNotFound = errors.New("store: no messages in range")

// MessageStore is the durable log of raw wire messages per session identity.
// The session machine must not consider a message sent until Append has
// returned, otherwise a later resend request cannot be honored.
type MessageStore interface {
	// Append durably records one raw message.
	Append(ctx context.Context, sessionID string, dir Direction, seq uint64, raw []byte) error

	// FetchRange returns the raw messages for seq in [from, to], ascending.
	// Sequence numbers never logged are simply absent from the result.
	FetchRange(ctx context.Context, sessionID string, dir Direction, from, to uint64) ([][]byte, error)

	// LoadSequenceNumbers returns the highest logged inbound and outbound
	// sequence numbers for the session, zero when none. Used to restore
	// counters after a restart.
	LoadSequenceNumbers(ctx context.Context, sessionID string) (in, out uint64, err error)

	// Close releases underlying resources.
	Close() error
}

package session

import "time"

// Status is the session lifecycle state. Recovering overlays Active while a
// sequence gap is being filled; sequence counters keep advancing through it.
type Status uint8

const (
	Disconnected Status = iota
	LogonInitiated
	LogonPending
	Active
	Recovering
	PendingLogout
)

func (s Status) String() string {
	switch s {
	case LogonInitiated:
		return "LogonInitiated"
	case LogonPending:
		return "LogonPending"
	case Active:
		return "Active"
	case Recovering:
		return "Recovering"
	case PendingLogout:
		return "PendingLogout"
	default:
		return "Disconnected"
	}
}

// Event is one entry in the session's status stream. The application observes
// lifecycle transitions through these, never raw wire internals.
type Event struct {
	Status Status
	Reason string
	Time   time.Time
}

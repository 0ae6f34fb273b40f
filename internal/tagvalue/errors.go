package tagvalue

import "fmt"

// Decoding distinguishes three outcomes: a valid message, a well-formed frame
// that violates the dictionary (SchemaError), and a frame that cannot be
// trusted at all (MalformedError). The session layer reacts differently to
// each, so they are distinct types rather than one flattened error.

// MalformedError reports a frame whose length, checksum, or basic tag=value
// structure is broken. Nothing inside the frame may be trusted.
type MalformedError struct {
	Reason string
}

func (e *MalformedError) Error() string {
	return "tagvalue: malformed frame: " + e.Reason
}

func malformed(format string, args ...any) error {
	return &MalformedError{Reason: fmt.Sprintf(format, args...)}
}

// RejectReason mirrors the SessionRejectReason(373) code carried on a Reject.
type RejectReason int

const (
	ReasonInvalidTagNumber         RejectReason = 0
	ReasonRequiredTagMissing       RejectReason = 1
	ReasonTagNotDefinedForType     RejectReason = 2
	ReasonUndefinedTag             RejectReason = 3
	ReasonTagWithoutValue          RejectReason = 4
	ReasonValueIncorrect           RejectReason = 5
	ReasonIncorrectDataFormat      RejectReason = 6
	ReasonInvalidMsgType           RejectReason = 11
	ReasonRepeatingGroupOutOfOrder RejectReason = 15
	ReasonIncorrectGroupCount      RejectReason = 16
)

// SchemaError reports a structurally sound frame that fails dictionary
// validation. It carries what a session needs to build a business Reject.
type SchemaError struct {
	Reason  RejectReason
	Tag     int
	MsgType string
	Detail  string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("tagvalue: schema violation (reason %d, tag %d, msgtype %q): %s",
		e.Reason, e.Tag, e.MsgType, e.Detail)
}

func schemaErr(reason RejectReason, tag int, msgType, format string, args ...any) error {
	return &SchemaError{
		Reason:  reason,
		Tag:     tag,
		MsgType: msgType,
		Detail:  fmt.Sprintf(format, args...),
	}
}

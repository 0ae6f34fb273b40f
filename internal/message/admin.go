package message

import "github.com/finexio/fixwire/internal/dict"

// AdminKind classifies a message once at decode time so the session machine
// can switch over a closed set instead of re-inspecting type tokens.
type AdminKind uint8

const (
	KindBusiness AdminKind = iota
	KindLogon
	KindLogout
	KindHeartbeat
	KindTestRequest
	KindResendRequest
	KindSequenceReset
	KindReject
)

func (k AdminKind) String() string {
	switch k {
	case KindLogon:
		return "Logon"
	case KindLogout:
		return "Logout"
	case KindHeartbeat:
		return "Heartbeat"
	case KindTestRequest:
		return "TestRequest"
	case KindResendRequest:
		return "ResendRequest"
	case KindSequenceReset:
		return "SequenceReset"
	case KindReject:
		return "Reject"
	default:
		return "Business"
	}
}

// Classify maps a message type token to its administrative kind. Anything not
// in the session layer is business traffic.
func Classify(msgType string) AdminKind {
	switch msgType {
	case dict.MsgTypeLogon:
		return KindLogon
	case dict.MsgTypeLogout:
		return KindLogout
	case dict.MsgTypeHeartbeat:
		return KindHeartbeat
	case dict.MsgTypeTestRequest:
		return KindTestRequest
	case dict.MsgTypeResendRequest:
		return KindResendRequest
	case dict.MsgTypeSequenceReset:
		return KindSequenceReset
	case dict.MsgTypeReject:
		return KindReject
	default:
		return KindBusiness
	}
}

// Admin reports the kind of m.
func (m *Message) Admin() AdminKind {
	return Classify(m.MsgType)
}

// SeqNum returns MsgSeqNum(34) from the header. ok is false when the field is
// missing or not an integer, which the session layer treats as a fatal
// protocol violation.
func (m *Message) SeqNum() (uint64, bool) {
	v, ok := m.Header.Get(dict.TagMsgSeqNum)
	if !ok {
		return 0, false
	}
	n, ok := v.Int()
	if !ok || n < 0 {
		return 0, false
	}
	return uint64(n), true
}

// PossDup reports whether the header carries PossDupFlag(43)=Y.
func (m *Message) PossDup() bool {
	v, ok := m.Header.Get(dict.TagPossDupFlag)
	if !ok {
		return false
	}
	b, _ := v.Bool()
	return b
}

// Package field defines the closed set of FIX semantic value types and their
// wire-text parsing and serialization rules.
//
// A Value keeps the raw bytes it was parsed from so that re-encoding a decoded
// message reproduces the original input byte for byte. Values constructed in
// memory carry no raw bytes and serialize in canonical form. Decimal and
// monetary amounts are held as arbitrary-precision decimals; they are never
// routed through binary floating point.
package field

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Kind identifies the semantic type of a field value. The set is closed:
// codecs switch over it exhaustively and adding a kind is a deliberate change.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindInt
	KindDecimal
	KindString
	KindData // raw bytes, length carried by a paired length field
	KindBool
	KindChar
	KindUTCTimestamp
	KindLocalDate
	KindLocalTime
	KindAmount // monetary amount, same representation rules as decimal
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindDecimal:
		return "decimal"
	case KindString:
		return "string"
	case KindData:
		return "data"
	case KindBool:
		return "bool"
	case KindChar:
		return "char"
	case KindUTCTimestamp:
		return "utctimestamp"
	case KindLocalDate:
		return "localdate"
	case KindLocalTime:
		return "localtime"
	case KindAmount:
		return "amount"
	default:
		return "unknown"
	}
}

// TimePrecision selects how many fractional digits a timestamp serializes with.
type TimePrecision uint8

const (
	PrecisionSeconds TimePrecision = iota
	PrecisionMillis
	PrecisionNanos
)

const (
	fmtTimestampSec   = "20060102-15:04:05"
	fmtTimestampMilli = "20060102-15:04:05.000"
	fmtTimestampNano  = "20060102-15:04:05.000000000"
	fmtDate           = "20060102"
	fmtTimeSec        = "15:04:05"
	fmtTimeMilli      = "15:04:05.000"
)

// Value is a tagged variant over the supported semantic types.
type Value struct {
	kind Kind
	raw  []byte // original wire bytes, nil for in-memory constructed values

	i    int64
	dec  decimal.Decimal
	s    string
	data []byte
	b    bool
	c    byte
	t    time.Time
	prec TimePrecision
}

// Kind reports the semantic type of the value.
func (v Value) Kind() Kind { return v.kind }

// IsZero reports whether the value is the unset zero Value.
func (v Value) IsZero() bool { return v.kind == KindUnknown }

// Constructors for in-memory values.

func Int(n int64) Value               { return Value{kind: KindInt, i: n} }
func Decimal(d decimal.Decimal) Value { return Value{kind: KindDecimal, dec: d} }
func String(s string) Value           { return Value{kind: KindString, s: s} }
func Data(b []byte) Value             { return Value{kind: KindData, data: b} }
func Bool(b bool) Value               { return Value{kind: KindBool, b: b} }
func Char(c byte) Value               { return Value{kind: KindChar, c: c} }
func Amount(d decimal.Decimal) Value  { return Value{kind: KindAmount, dec: d} }

func UTCTimestamp(t time.Time, prec TimePrecision) Value {
	return Value{kind: KindUTCTimestamp, t: t.UTC(), prec: prec}
}

func LocalDate(t time.Time) Value {
	return Value{kind: KindLocalDate, t: t}
}

func LocalTime(t time.Time, prec TimePrecision) Value {
	return Value{kind: KindLocalTime, t: t, prec: prec}
}

// Accessors. Each returns the typed value and whether the kind matched.

func (v Value) Int() (int64, bool) {
	return v.i, v.kind == KindInt
}

func (v Value) Decimal() (decimal.Decimal, bool) {
	return v.dec, v.kind == KindDecimal || v.kind == KindAmount
}

func (v Value) Str() (string, bool) {
	return v.s, v.kind == KindString
}

func (v Value) Bytes() ([]byte, bool) {
	return v.data, v.kind == KindData
}

func (v Value) Bool() (bool, bool) {
	return v.b, v.kind == KindBool
}

func (v Value) Char() (byte, bool) {
	return v.c, v.kind == KindChar
}

func (v Value) Time() (time.Time, bool) {
	switch v.kind {
	case KindUTCTimestamp, KindLocalDate, KindLocalTime:
		return v.t, true
	}
	return time.Time{}, false
}

// Raw returns the original wire bytes, or nil for constructed values.
func (v Value) Raw() []byte { return v.raw }

// Parse interprets raw wire bytes as the given kind. The returned Value
// retains raw so a later AppendWire reproduces the input exactly.
func Parse(kind Kind, raw []byte) (Value, error) {
	if len(raw) == 0 && kind != KindString && kind != KindData {
		return Value{}, fmt.Errorf("field: empty value for kind %s", kind)
	}
	keep := make([]byte, len(raw))
	copy(keep, raw)

	switch kind {
	case KindInt:
		n, err := strconv.ParseInt(string(raw), 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("field: bad int %q: %w", raw, err)
		}
		return Value{kind: KindInt, raw: keep, i: n}, nil

	case KindDecimal, KindAmount:
		d, err := decimal.NewFromString(string(raw))
		if err != nil {
			return Value{}, fmt.Errorf("field: bad decimal %q: %w", raw, err)
		}
		return Value{kind: kind, raw: keep, dec: d}, nil

	case KindString:
		return Value{kind: KindString, raw: keep, s: string(raw)}, nil

	case KindData:
		return Value{kind: KindData, raw: keep, data: keep}, nil

	case KindBool:
		switch string(raw) {
		case "Y":
			return Value{kind: KindBool, raw: keep, b: true}, nil
		case "N":
			return Value{kind: KindBool, raw: keep, b: false}, nil
		}
		return Value{}, fmt.Errorf("field: bad boolean %q", raw)

	case KindChar:
		if len(raw) != 1 {
			return Value{}, fmt.Errorf("field: char must be one byte, got %q", raw)
		}
		return Value{kind: KindChar, raw: keep, c: raw[0]}, nil

	case KindUTCTimestamp:
		t, prec, err := parseTimestamp(string(raw))
		if err != nil {
			return Value{}, err
		}
		return Value{kind: KindUTCTimestamp, raw: keep, t: t, prec: prec}, nil

	case KindLocalDate:
		t, err := time.ParseInLocation(fmtDate, string(raw), time.Local)
		if err != nil {
			return Value{}, fmt.Errorf("field: bad date %q: %w", raw, err)
		}
		return Value{kind: KindLocalDate, raw: keep, t: t}, nil

	case KindLocalTime:
		s := string(raw)
		if t, err := time.ParseInLocation(fmtTimeSec, s, time.Local); err == nil {
			return Value{kind: KindLocalTime, raw: keep, t: t, prec: PrecisionSeconds}, nil
		}
		t, err := time.ParseInLocation(fmtTimeMilli, s, time.Local)
		if err != nil {
			return Value{}, fmt.Errorf("field: bad time %q: %w", raw, err)
		}
		return Value{kind: KindLocalTime, raw: keep, t: t, prec: PrecisionMillis}, nil

	default:
		return Value{}, fmt.Errorf("field: cannot parse kind %s", kind)
	}
}

func parseTimestamp(s string) (time.Time, TimePrecision, error) {
	switch len(s) {
	case len(fmtTimestampSec):
		t, err := time.Parse(fmtTimestampSec, s)
		if err != nil {
			return time.Time{}, 0, fmt.Errorf("field: bad timestamp %q: %w", s, err)
		}
		return t, PrecisionSeconds, nil
	case len(fmtTimestampMilli):
		t, err := time.Parse(fmtTimestampMilli, s)
		if err != nil {
			return time.Time{}, 0, fmt.Errorf("field: bad timestamp %q: %w", s, err)
		}
		return t, PrecisionMillis, nil
	case len(fmtTimestampNano):
		t, err := time.Parse(fmtTimestampNano, s)
		if err != nil {
			return time.Time{}, 0, fmt.Errorf("field: bad timestamp %q: %w", s, err)
		}
		return t, PrecisionNanos, nil
	}
	return time.Time{}, 0, fmt.Errorf("field: bad timestamp length %q", s)
}

// AppendWire appends the wire-text form of v to dst. Parsed values reproduce
// their original bytes; constructed values serialize canonically.
func (v Value) AppendWire(dst []byte) []byte {
	if v.raw != nil {
		return append(dst, v.raw...)
	}
	switch v.kind {
	case KindInt:
		return strconv.AppendInt(dst, v.i, 10)
	case KindDecimal, KindAmount:
		return append(dst, v.dec.String()...)
	case KindString:
		return append(dst, v.s...)
	case KindData:
		return append(dst, v.data...)
	case KindBool:
		if v.b {
			return append(dst, 'Y')
		}
		return append(dst, 'N')
	case KindChar:
		return append(dst, v.c)
	case KindUTCTimestamp:
		switch v.prec {
		case PrecisionMillis:
			return v.t.AppendFormat(dst, fmtTimestampMilli)
		case PrecisionNanos:
			return v.t.AppendFormat(dst, fmtTimestampNano)
		default:
			return v.t.AppendFormat(dst, fmtTimestampSec)
		}
	case KindLocalDate:
		return v.t.AppendFormat(dst, fmtDate)
	case KindLocalTime:
		if v.prec == PrecisionMillis {
			return v.t.AppendFormat(dst, fmtTimeMilli)
		}
		return v.t.AppendFormat(dst, fmtTimeSec)
	}
	return dst
}

// WireString returns the wire-text form of v as a string.
func (v Value) WireString() string {
	return string(v.AppendWire(nil))
}

// Equal compares typed values, not raw bytes. Two parses of "1.50" and "1.5"
// as decimals are equal even though their wire forms differ.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		// Decimal and amount share representation but are distinct kinds.
		return false
	}
	switch v.kind {
	case KindUnknown:
		return true
	case KindInt:
		return v.i == o.i
	case KindDecimal, KindAmount:
		return v.dec.Equal(o.dec)
	case KindString:
		return v.s == o.s
	case KindData:
		return bytes.Equal(v.data, o.data)
	case KindBool:
		return v.b == o.b
	case KindChar:
		return v.c == o.c
	case KindUTCTimestamp, KindLocalDate, KindLocalTime:
		return v.t.Equal(o.t)
	}
	return false
}

func (v Value) String() string {
	return v.WireString()
}

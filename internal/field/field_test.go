package field

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		kind Kind
		raw  string
	}{
		{"int", KindInt, "42"},
		{"negative int", KindInt, "-17"},
		{"decimal", KindDecimal, "50000.25"},
		{"decimal trailing zeros", KindDecimal, "1.500"},
		{"amount", KindAmount, "1000000.00"},
		{"string", KindString, "AFUNDMGR"},
		{"bool true", KindBool, "Y"},
		{"bool false", KindBool, "N"},
		{"char", KindChar, "1"},
		{"timestamp seconds", KindUTCTimestamp, "20100304-07:59:30"},
		{"timestamp millis", KindUTCTimestamp, "20100304-07:59:30.123"},
		{"timestamp nanos", KindUTCTimestamp, "20100304-07:59:30.123456789"},
		{"date", KindLocalDate, "20260829"},
		{"time", KindLocalTime, "07:59:30"},
		{"time millis", KindLocalTime, "07:59:30.250"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := Parse(tc.kind, []byte(tc.raw))
			require.NoError(t, err)
			assert.Equal(t, tc.raw, v.WireString(), "raw bytes must round-trip")
			assert.Equal(t, tc.kind, v.Kind())
		})
	}
}

func TestParseRejectsBadValues(t *testing.T) {
	cases := []struct {
		kind Kind
		raw  string
	}{
		{KindInt, "12a"},
		{KindInt, ""},
		{KindDecimal, "1.2.3"},
		{KindBool, "T"},
		{KindChar, "AB"},
		{KindUTCTimestamp, "2010-03-04 07:59:30"},
		{KindLocalDate, "2026-08-29"},
	}
	for _, tc := range cases {
		_, err := Parse(tc.kind, []byte(tc.raw))
		assert.Error(t, err, "kind %s raw %q", tc.kind, tc.raw)
	}
}

func TestDecimalPrecisionPreserved(t *testing.T) {
	// A value that is not representable in binary floating point must survive
	// a parse unchanged.
	v, err := Parse(KindDecimal, []byte("0.1"))
	require.NoError(t, err)
	d, ok := v.Decimal()
	require.True(t, ok)
	assert.True(t, d.Equal(decimal.RequireFromString("0.1")))

	// 18 significant digits, beyond float64 precision.
	v, err = Parse(KindDecimal, []byte("123456789.123456789"))
	require.NoError(t, err)
	assert.Equal(t, "123456789.123456789", v.WireString())
}

func TestEqualNormalizesRepresentation(t *testing.T) {
	a, err := Parse(KindDecimal, []byte("1.50"))
	require.NoError(t, err)
	b, err := Parse(KindDecimal, []byte("1.5"))
	require.NoError(t, err)
	assert.True(t, a.Equal(b), "same typed value, different wire form")
	assert.NotEqual(t, a.WireString(), b.WireString())
}

func TestEqualKindMismatch(t *testing.T) {
	d := decimal.RequireFromString("10")
	assert.False(t, Decimal(d).Equal(Amount(d)))
	assert.False(t, Int(1).Equal(String("1")))
}

func TestConstructedValuesCanonical(t *testing.T) {
	ts := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "20260829-12:00:00", UTCTimestamp(ts, PrecisionSeconds).WireString())
	assert.Equal(t, "20260829-12:00:00.000", UTCTimestamp(ts, PrecisionMillis).WireString())
	assert.Equal(t, "20260829", LocalDate(ts).WireString())
	assert.Equal(t, "Y", Bool(true).WireString())
	assert.Equal(t, "-3", Int(-3).WireString())
}

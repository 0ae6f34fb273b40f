package message

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finexio/fixwire/internal/dict"
	"github.com/finexio/fixwire/internal/field"
)

func TestFieldListOrderAndLookup(t *testing.T) {
	fl := NewFieldList().
		Append(55, field.String("BTCUSD")).
		Append(54, field.Char('1')).
		Append(44, field.Decimal(decimal.RequireFromString("50000.25")))

	require.Equal(t, 3, fl.Len())
	assert.Equal(t, 55, fl.EntryAt(0).Tag)
	assert.Equal(t, 44, fl.EntryAt(2).Tag)

	v, ok := fl.Get(54)
	require.True(t, ok)
	c, _ := v.Char()
	assert.Equal(t, byte('1'), c)

	_, ok = fl.Get(99)
	assert.False(t, ok)
	assert.True(t, fl.Has(44))
}

func TestGroups(t *testing.T) {
	bid := NewFieldList().
		Append(269, field.Char('0')).
		Append(270, field.Decimal(decimal.RequireFromString("99.5")))
	offer := NewFieldList().
		Append(269, field.Char('1')).
		Append(270, field.Decimal(decimal.RequireFromString("100.5")))

	fl := NewFieldList().
		Append(55, field.String("BTCUSD")).
		AppendGroup(268, []*FieldList{bid, offer})

	assert.Equal(t, 2, fl.GroupCount(268))
	require.NotNil(t, fl.Group(268, 1))
	v, ok := fl.Group(268, 1).Get(270)
	require.True(t, ok)
	d, _ := v.Decimal()
	assert.True(t, d.Equal(decimal.RequireFromString("100.5")))

	assert.Nil(t, fl.Group(268, 2), "out of range")
	assert.Nil(t, fl.Group(999, 0), "unknown group")

	// Count value tracks instance count.
	cv, ok := fl.Get(268)
	require.True(t, ok)
	n, _ := cv.Int()
	assert.EqualValues(t, 2, n)
}

func TestEqual(t *testing.T) {
	build := func(price string) *Message {
		m := New("FIX.4.4", "D")
		m.Header.Append(dict.TagSenderCompID, field.String("A"))
		m.Body.Append(44, field.Decimal(decimal.RequireFromString(price)))
		return m
	}
	assert.True(t, build("1.50").Equal(build("1.5")), "typed equality, not wire equality")
	assert.False(t, build("1.5").Equal(build("1.6")))
}

func TestClassify(t *testing.T) {
	cases := map[string]AdminKind{
		"A": KindLogon,
		"5": KindLogout,
		"0": KindHeartbeat,
		"1": KindTestRequest,
		"2": KindResendRequest,
		"4": KindSequenceReset,
		"3": KindReject,
		"D": KindBusiness,
		"W": KindBusiness,
	}
	for token, want := range cases {
		assert.Equal(t, want, Classify(token), "token %s", token)
	}
}

func TestSeqNumAndPossDup(t *testing.T) {
	m := New("FIX.4.4", "0")
	_, ok := m.SeqNum()
	assert.False(t, ok, "missing seq num")

	m.Header.Append(dict.TagMsgSeqNum, field.Int(12))
	n, ok := m.SeqNum()
	require.True(t, ok)
	assert.EqualValues(t, 12, n)

	assert.False(t, m.PossDup())
	m.Header.Append(dict.TagPossDupFlag, field.Bool(true))
	assert.True(t, m.PossDup())
}

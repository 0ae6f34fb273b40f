package dict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finexio/fixwire/internal/field"
)

func TestFIX44Builds(t *testing.T) {
	d, err := FIX44()
	require.NoError(t, err)
	assert.Equal(t, "FIX.4.4", d.Version())

	f, ok := d.FieldByTag(TagHeartBtInt)
	require.True(t, ok)
	assert.Equal(t, "HeartBtInt", f.Name)
	assert.Equal(t, field.KindInt, f.Kind)

	m, ok := d.MessageByType(MsgTypeLogon)
	require.True(t, ok)
	assert.Equal(t, "Logon", m.Name)

	_, ok = d.FieldByTag(99999)
	assert.False(t, ok)
	_, ok = d.MessageByType("ZZ")
	assert.False(t, ok)
}

func TestBuildRejectsDuplicateTag(t *testing.T) {
	_, err := New("TEST.1", []FieldDef{
		{Tag: 1, Name: "A", Kind: field.KindString},
		{Tag: 1, Name: "B", Kind: field.KindString},
	}, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate field tag 1")
}

func TestBuildRejectsUndefinedReferences(t *testing.T) {
	fields := []FieldDef{{Tag: 1, Name: "A", Kind: field.KindString}}

	_, err := New("TEST.1", fields, nil, []MessageDef{
		{MsgType: "X", Name: "X", Items: []Item{{Tag: 2, Required: true}}},
	})
	assert.ErrorContains(t, err, "undefined tag 2")

	_, err = New("TEST.1", fields, nil, []MessageDef{
		{MsgType: "X", Name: "X", Items: []Item{{Component: "Missing"}}},
	})
	assert.ErrorContains(t, err, `undefined component "Missing"`)
}

func TestBuildRejectsBadGroups(t *testing.T) {
	fields := []FieldDef{
		{Tag: 1, Name: "Count", Kind: field.KindInt},
		{Tag: 2, Name: "Entry", Kind: field.KindString},
		{Tag: 3, Name: "NotAnInt", Kind: field.KindString},
	}

	// Count tag must be an int field.
	_, err := New("TEST.1", fields, nil, []MessageDef{
		{MsgType: "X", Name: "X", Items: []Item{
			{Group: &GroupDef{CountTag: 3, Items: []Item{{Tag: 2}}}},
		}},
	})
	assert.ErrorContains(t, err, "want int")

	// Group body must not be empty.
	_, err = New("TEST.1", fields, nil, []MessageDef{
		{MsgType: "X", Name: "X", Items: []Item{
			{Group: &GroupDef{CountTag: 1}},
		}},
	})
	assert.ErrorContains(t, err, "empty body")
}

func TestEnumValidation(t *testing.T) {
	d := MustFIX44()
	side, ok := d.FieldByTag(54)
	require.True(t, ok)
	assert.True(t, side.ValidEnum("1"))
	assert.False(t, side.ValidEnum("9"))

	symbol, ok := d.FieldByTag(55)
	require.True(t, ok)
	assert.True(t, symbol.ValidEnum("anything"), "fields without enum accept all values")
}

package fast

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finexio/fixwire/internal/field"
	"github.com/finexio/fixwire/internal/message"
)

func tradeRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry([]Template{{
		ID:      144,
		Name:    "TradeUpdate",
		MsgType: "X",
		Fields: []TemplateField{
			{Name: "Symbol", Tag: 55, Kind: field.KindString, Op: OpCopy},
			{Name: "Price", Tag: 270, Kind: field.KindDecimal, Op: OpDelta,
				Initial: field.Decimal(decimal.New(0, 0))},
			{Name: "Size", Tag: 271, Kind: field.KindInt, Op: OpNone},
			{Name: "SeqNum", Tag: 34, Kind: field.KindInt, Op: OpIncrement},
			{Name: "Venue", Tag: 5001, Kind: field.KindString, Op: OpConstant,
				Initial: field.String("XNAS")},
			{Name: "Flags", Tag: 5002, Kind: field.KindInt, Op: OpDefault,
				Initial: field.Int(0)},
		},
	}})
	require.NoError(t, err)
	return r
}

func tradeMsg(symbol string, price string, size, seq, flags int64) *message.Message {
	m := message.New("", "X")
	m.Body.
		Append(55, field.String(symbol)).
		Append(270, field.Decimal(decimal.RequireFromString(price))).
		Append(271, field.Int(size)).
		Append(34, field.Int(seq)).
		Append(5001, field.String("XNAS")).
		Append(5002, field.Int(flags))
	return m
}

func TestRoundTripStream(t *testing.T) {
	reg := tradeRegistry(t)
	enc, dec := NewEncoder(reg), NewDecoder(reg)
	encCtx, decCtx := NewContext(), NewContext()

	msgs := []*message.Message{
		tradeMsg("BTCUSD", "50000.10", 3, 1, 0),
		tradeMsg("BTCUSD", "50000.25", 5, 2, 0),
		tradeMsg("ETHUSD", "3100.00", 1, 3, 7),
	}
	for i, m := range msgs {
		wire, err := enc.Encode(144, m, encCtx)
		require.NoError(t, err, "message %d", i)

		got, n, err := dec.Decode(wire, decCtx)
		require.NoError(t, err, "message %d", i)
		assert.Equal(t, len(wire), n)
		assert.True(t, m.Equal(got), "message %d: %s != %s", i, m.MsgType, got.MsgType)
	}
}

func TestCopySuppressesRepeatedValues(t *testing.T) {
	reg := tradeRegistry(t)
	enc := NewEncoder(reg)
	ctx := NewContext()

	first, err := enc.Encode(144, tradeMsg("BTCUSD", "50000.10", 3, 1, 0), ctx)
	require.NoError(t, err)
	second, err := enc.Encode(144, tradeMsg("BTCUSD", "50000.10", 3, 2, 0), ctx)
	require.NoError(t, err)

	// Second message repeats symbol (copy), price (delta of zero), keeps an
	// incrementing seq, and omits the template id: it must be much smaller.
	assert.Less(t, len(second), len(first))
}

func TestCopyOperatorReusesPriorValue(t *testing.T) {
	reg := tradeRegistry(t)
	enc, dec := NewEncoder(reg), NewDecoder(reg)
	encCtx, decCtx := NewContext(), NewContext()

	m1 := tradeMsg("BTCUSD", "50000.10", 3, 1, 0)
	w1, err := enc.Encode(144, m1, encCtx)
	require.NoError(t, err)
	_, _, err = dec.Decode(w1, decCtx)
	require.NoError(t, err)

	// Symbol unchanged in message 2: absent from the wire, decoded from state.
	m2 := tradeMsg("BTCUSD", "50000.20", 4, 2, 0)
	w2, err := enc.Encode(144, m2, encCtx)
	require.NoError(t, err)
	got, _, err := dec.Decode(w2, decCtx)
	require.NoError(t, err)

	v, ok := got.Body.Get(55)
	require.True(t, ok)
	s, _ := v.Str()
	assert.Equal(t, "BTCUSD", s)
}

func TestCopyWithoutPriorValueIsFatal(t *testing.T) {
	reg := tradeRegistry(t)
	dec := NewDecoder(reg)

	// Hand-build a first message whose copy bit is clear: pmap bits are
	// [template id, Symbol copy, SeqNum increment, Flags default].
	var pmap PMapWriter
	pmap.Append(true)  // template id present
	pmap.Append(false) // Symbol absent: no prior value, no default
	pmap.Append(true)  // SeqNum present
	pmap.Append(false) // Flags default

	body := AppendUint(nil, 144)
	body = AppendInt(body, 0) // Price delta exponent
	body = AppendInt(body, 0) // Price delta mantissa
	body = AppendInt(body, 3) // Size
	body = AppendInt(body, 1) // SeqNum

	wire := append(pmap.Bytes(), body...)
	_, _, err := dec.Decode(wire, NewContext())

	var de *DynamicError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "Symbol", de.Field)
}

func TestDeltaUsesDeclaredDefaultAsBase(t *testing.T) {
	reg := tradeRegistry(t)
	enc, dec := NewEncoder(reg), NewDecoder(reg)

	// Price has Initial 0, so the first delta is relative to zero.
	m := tradeMsg("BTCUSD", "42", 1, 1, 0)
	w, err := enc.Encode(144, m, NewContext())
	require.NoError(t, err)
	got, _, err := dec.Decode(w, NewContext())
	require.NoError(t, err)

	v, _ := got.Body.Get(270)
	d, _ := v.Decimal()
	assert.True(t, d.Equal(decimal.RequireFromString("42")))
}

func TestIncrementAdvancesWithoutWireBytes(t *testing.T) {
	reg := tradeRegistry(t)
	enc, dec := NewEncoder(reg), NewDecoder(reg)
	encCtx, decCtx := NewContext(), NewContext()

	for seq := int64(1); seq <= 4; seq++ {
		w, err := enc.Encode(144, tradeMsg("BTCUSD", "1", 1, seq, 0), encCtx)
		require.NoError(t, err)
		got, _, err := dec.Decode(w, decCtx)
		require.NoError(t, err)
		v, _ := got.Body.Get(34)
		n, _ := v.Int()
		assert.Equal(t, seq, n)
	}
}

func TestConstantNeverOnWire(t *testing.T) {
	reg := tradeRegistry(t)
	enc := NewEncoder(reg)

	m := tradeMsg("BTCUSD", "1", 1, 1, 0)
	w, err := enc.Encode(144, m, NewContext())
	require.NoError(t, err)
	assert.NotContains(t, string(w), "XNAS")

	// Encoding a value that contradicts the declared constant must fail.
	bad := tradeMsg("BTCUSD", "1", 1, 1, 0)
	bad2 := message.New("", "X")
	for i := 0; i < bad.Body.Len(); i++ {
		e := bad.Body.EntryAt(i)
		if e.Tag == 5001 {
			bad2.Body.Append(5001, field.String("XLON"))
			continue
		}
		bad2.Body.Append(e.Tag, e.Value)
	}
	_, err = enc.Encode(144, bad2, NewContext())
	var ee *EncodeError
	assert.ErrorAs(t, err, &ee)
}

func TestSessionsDoNotShareOperatorState(t *testing.T) {
	reg, err := NewRegistry([]Template{
		{
			ID:      144,
			Name:    "TradeUpdate",
			MsgType: "X",
			Fields: []TemplateField{
				{Name: "Symbol", Tag: 55, Kind: field.KindString, Op: OpCopy},
				{Name: "Size", Tag: 271, Kind: field.KindInt, Op: OpNone},
			},
		},
		{
			ID:      145,
			Name:    "TradeStatus",
			MsgType: "h",
			Fields: []TemplateField{
				{Name: "Status", Tag: 340, Kind: field.KindInt, Op: OpNone},
			},
		},
	})
	require.NoError(t, err)
	enc, dec := NewEncoder(reg), NewDecoder(reg)

	trade := func(symbol string, size int64) *message.Message {
		m := message.New("", "X")
		m.Body.Append(55, field.String(symbol)).Append(271, field.Int(size))
		return m
	}
	status := message.New("", "h")
	status.Body.Append(340, field.Int(2))

	encA := NewContext()
	w1, err := enc.Encode(144, trade("BTCUSD", 1), encA)
	require.NoError(t, err)
	wStatus, err := enc.Encode(145, status, encA)
	require.NoError(t, err)

	// The interleaved template forces w2 to carry its template id, while the
	// repeated symbol stays copy-suppressed.
	w2, err := enc.Encode(144, trade("BTCUSD", 2), encA)
	require.NoError(t, err)

	// A session that saw the whole stream resolves the copy from its own state.
	decA := NewContext()
	for _, w := range [][]byte{w1, wStatus, w2} {
		_, _, err = dec.Decode(w, decA)
		require.NoError(t, err)
	}

	// A fresh session decoding only w2 has no prior symbol: the suppressed
	// copy must be fatal, not silently borrowed from the other session.
	_, _, err = dec.Decode(w2, NewContext())
	var de *DynamicError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "Symbol", de.Field)
}

func TestSequenceRoundTrip(t *testing.T) {
	reg, err := NewRegistry([]Template{{
		ID:      7,
		Name:    "BookSnapshot",
		MsgType: "W",
		Fields: []TemplateField{
			{Name: "Symbol", Tag: 55, Kind: field.KindString, Op: OpNone},
			{Name: "Entries", Tag: 268, Sequence: []TemplateField{
				{Name: "Side", Tag: 269, Kind: field.KindInt, Op: OpNone},
				{Name: "Px", Tag: 270, Kind: field.KindDecimal, Op: OpCopy},
				{Name: "Qty", Tag: 271, Kind: field.KindInt, Op: OpNone},
			}},
		},
	}})
	require.NoError(t, err)
	enc, dec := NewEncoder(reg), NewDecoder(reg)

	m := message.New("", "W")
	m.Body.Append(55, field.String("BTCUSD"))
	m.Body.AppendGroup(268, []*message.FieldList{
		message.NewFieldList().
			Append(269, field.Int(0)).
			Append(270, field.Decimal(decimal.RequireFromString("99.5"))).
			Append(271, field.Int(10)),
		message.NewFieldList().
			Append(269, field.Int(1)).
			Append(270, field.Decimal(decimal.RequireFromString("100.5"))).
			Append(271, field.Int(4)),
	})

	w, err := enc.Encode(7, m, NewContext())
	require.NoError(t, err)
	got, n, err := dec.Decode(w, NewContext())
	require.NoError(t, err)
	assert.Equal(t, len(w), n)
	require.Equal(t, 2, got.Body.GroupCount(268))
	assert.True(t, m.Equal(got))
}

func TestUnknownTemplate(t *testing.T) {
	reg := tradeRegistry(t)
	dec := NewDecoder(reg)

	var pmap PMapWriter
	pmap.Append(true)
	wire := append(pmap.Bytes(), AppendUint(nil, 999)...)
	_, _, err := dec.Decode(wire, NewContext())
	assert.ErrorIs(t, err, ErrUnknownTemplate)
}

func TestMissingTemplateID(t *testing.T) {
	reg := tradeRegistry(t)
	dec := NewDecoder(reg)

	var pmap PMapWriter
	pmap.Append(false)
	_, _, err := dec.Decode(pmap.Bytes(), NewContext())
	assert.ErrorIs(t, err, ErrNoTemplateID)
}

func TestRegistryValidation(t *testing.T) {
	_, err := NewRegistry([]Template{{ID: 1, Name: "T", Fields: []TemplateField{
		{Name: "X", Tag: 1, Kind: field.KindInt, Op: OpConstant}, // no value
	}}})
	assert.ErrorContains(t, err, "has no value")

	_, err = NewRegistry([]Template{{ID: 1, Name: "T", Fields: []TemplateField{
		{Name: "X", Tag: 1, Kind: field.KindString, Op: OpIncrement},
	}}})
	assert.ErrorContains(t, err, "increment on non-integer")

	_, err = NewRegistry([]Template{{ID: 1, Name: "A"}, {ID: 1, Name: "B"}})
	assert.ErrorContains(t, err, "duplicate template id")
}

func TestContextReset(t *testing.T) {
	ctx := NewContext()
	ctx.assign(1, "X", field.Int(5))
	ctx.lastTemplateID = 1

	ctx.Reset()
	_, ok := ctx.previous(1, "X")
	assert.False(t, ok)
	assert.Zero(t, ctx.lastTemplateID)
}

package fast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUintRoundTrip(t *testing.T) {
	for _, v := range []uint64{0, 1, 127, 128, 16384, 1<<32 - 1, 1<<63 + 42} {
		buf := AppendUint(nil, v)
		got, n, err := ReadUint(buf)
		require.NoError(t, err, "value %d", v)
		assert.Equal(t, v, got)
		assert.Equal(t, len(buf), n)
	}
}

func TestUintWireForm(t *testing.T) {
	assert.Equal(t, []byte{0x80}, AppendUint(nil, 0))
	assert.Equal(t, []byte{0xFF}, AppendUint(nil, 127))
	assert.Equal(t, []byte{0x01, 0x80}, AppendUint(nil, 128), "second chunk carries the stop bit")
}

func TestIntRoundTrip(t *testing.T) {
	for _, v := range []int64{0, 1, -1, 63, 64, -64, -65, 8191, -8192, 1 << 40, -(1 << 40)} {
		buf := AppendInt(nil, v)
		got, n, err := ReadInt(buf)
		require.NoError(t, err, "value %d", v)
		assert.Equal(t, v, got)
		assert.Equal(t, len(buf), n)
	}
}

func TestIntMinimalLength(t *testing.T) {
	// 63 fits one chunk; 64 needs two because bit 6 would read as a sign.
	assert.Len(t, AppendInt(nil, 63), 1)
	assert.Len(t, AppendInt(nil, 64), 2)
	assert.Len(t, AppendInt(nil, -64), 1)
	assert.Len(t, AppendInt(nil, -65), 2)
}

func TestASCIIRoundTrip(t *testing.T) {
	for _, s := range []string{"", "A", "BTCUSD", "hello world"} {
		buf := AppendASCII(nil, s)
		got, n, err := ReadASCII(buf)
		require.NoError(t, err, "string %q", s)
		assert.Equal(t, s, got)
		assert.Equal(t, len(buf), n)
	}
}

func TestBytesRoundTrip(t *testing.T) {
	for _, b := range [][]byte{nil, {0x00}, {0x80, 0x01, 0xFF}} {
		buf := AppendBytes(nil, b)
		got, n, err := ReadBytes(buf)
		require.NoError(t, err)
		assert.Equal(t, len(b), len(got))
		assert.Equal(t, len(buf), n)
	}
}

func TestReadShortBuffer(t *testing.T) {
	_, _, err := ReadUint([]byte{0x01, 0x02}) // no stop bit
	assert.Error(t, err)
	_, _, err = ReadInt(nil)
	assert.Error(t, err)
	_, _, err = ReadASCII([]byte{0x41})
	assert.Error(t, err)
}

func TestPMapRoundTrip(t *testing.T) {
	var w PMapWriter
	pattern := []bool{true, false, true, true, false, false, true, true, false, true}
	for _, b := range pattern {
		w.Append(b)
	}
	buf := w.Bytes()

	r, n, err := ReadPMap(buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)
	for i, want := range pattern {
		assert.Equal(t, want, r.Next(), "bit %d", i)
	}
	assert.False(t, r.Next(), "bits past the map read as absent")
}

func TestPMapEmpty(t *testing.T) {
	var w PMapWriter
	assert.Equal(t, []byte{0x80}, w.Bytes())
}

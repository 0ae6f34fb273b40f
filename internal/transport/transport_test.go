package transport

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipeRoundTrip(t *testing.T) {
	a, b := Pipe()
	defer a.Close()
	defer b.Close()

	go func() {
		a.Write([]byte("8=FIX.4.4"))
	}()

	buf := make([]byte, 9)
	_, err := io.ReadFull(b, buf)
	require.NoError(t, err)
	assert.Equal(t, "8=FIX.4.4", string(buf))
}

func TestClosedTransport(t *testing.T) {
	a, b := Pipe()
	require.NoError(t, a.Close())

	_, err := a.Write([]byte("x"))
	assert.ErrorIs(t, err, ErrClosed)

	buf := make([]byte, 1)
	_, err = b.Read(buf)
	assert.Error(t, err)
}

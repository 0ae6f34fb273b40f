package tagvalue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// All frame tests use '|' instead of SOH for legibility.

const sampleFrame = "8=FIX.4.2|9=40|35=D|49=AFUNDMGR|56=ABROKER|15=USD|59=0|10=091|"

func TestScanFrameValid(t *testing.T) {
	frame, err := ScanFrame([]byte(sampleFrame), '|')
	require.NoError(t, err)
	assert.Equal(t, "FIX.4.2", string(frame.BeginString()))
	assert.Equal(t, "35=D|49=AFUNDMGR|56=ABROKER|15=USD|59=0|", string(frame.Body()))
	assert.Equal(t, sampleFrame, string(frame.Bytes()))
}

func TestScanFrameRejects(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"too short", "8=X|9=1|10=0|"},
		{"no begin string", "9=40|35=D|10=000|"},
		{"empty begin string", "8=|9=5|35=?|10=082|"},
		{"bad body length", "8=FIX.4.2|9=xx|35=D|10=000|"},
		{"length mismatch", "8=FIX.4.2|9=99|35=D|49=AFUNDMGR|56=ABROKER|15=USD|59=0|10=091|"},
		{"bad checksum", "8=FIX.4.2|9=40|35=D|49=AFUNDMGR|56=ABROKER|15=USD|59=0|10=000|"},
		{"no trailer", "8=FIX.4.2|9=40|35=D|49=AFUNDMGR|56=ABROKER|15=USD|59=0|77=091|"},
		{"runaway digits", "9999999999999"},
		{"equals soup", "=============="},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ScanFrame([]byte(tc.in), '|')
			require.Error(t, err)
			var me *MalformedError
			assert.ErrorAs(t, err, &me)
		})
	}
}

// Any single-byte corruption of a valid frame must be caught by framing
// checks before field parsing is trusted.
func TestScanFrameDetectsSingleByteMutation(t *testing.T) {
	original := []byte(sampleFrame)
	_, err := ScanFrame(original, '|')
	require.NoError(t, err)

	for i := range original {
		mutated := make([]byte, len(original))
		copy(mutated, original)
		mutated[i] ^= 0x01 // always a different byte
		_, err := ScanFrame(mutated, '|')
		assert.Errorf(t, err, "mutation at offset %d went undetected", i)
	}
}

func TestChecksum(t *testing.T) {
	assert.Equal(t, 0, Checksum(nil))
	assert.Equal(t, int('a'), Checksum([]byte("a")))
	assert.Equal(t, (255+2)%256, Checksum([]byte{255, 2}))
}

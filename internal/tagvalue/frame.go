package tagvalue

import (
	"strconv"
)

// SOH is the standard FIX field separator.
const SOH byte = 0x01

// Frame layout constants. The checksum trailer is always "10=" + three
// decimal digits + separator.
const (
	checksumFieldLen = 7
	minFrameLen      = 14 // shortest conceivable 8=?|9=n|...|10=ddd|
)

// RawFrame is a validated view over one wire frame: body length checked,
// checksum checked, nothing else interpreted yet.
type RawFrame struct {
	data        []byte
	beginString [2]int // start, end of the BeginString value
	body        [2]int // start, end of the body (after BodyLength, before CheckSum)
}

// Bytes returns the whole frame.
func (f RawFrame) Bytes() []byte { return f.data }

// BeginString returns the protocol-version token from tag 8.
func (f RawFrame) BeginString() []byte {
	return f.data[f.beginString[0]:f.beginString[1]]
}

// Body returns everything between BodyLength(9) and CheckSum(10). The body
// still contains header fields; body and payload are not synonyms for the
// header/trailer split.
func (f RawFrame) Body() []byte {
	return f.data[f.body[0]:f.body[1]]
}

// ScanFrame validates the framing of data: a leading BeginString(8), a
// BodyLength(9) that matches the actual body size, and a trailing
// CheckSum(10) equal to the modulo-256 sum of every byte before it. No field
// inside the body is parsed. Any failure is a MalformedError.
func ScanFrame(data []byte, sep byte) (RawFrame, error) {
	if len(data) < minFrameLen {
		return RawFrame{}, malformed("frame too short (%d bytes)", len(data))
	}
	if data[0] != '8' || data[1] != '=' {
		return RawFrame{}, malformed("frame does not start with BeginString")
	}
	sepBegin := indexByte(data, sep, 2)
	if sepBegin < 0 || sepBegin == 2 {
		return RawFrame{}, malformed("unterminated or empty BeginString")
	}
	// BodyLength must immediately follow.
	lenStart := sepBegin + 1
	if lenStart+2 >= len(data) || data[lenStart] != '9' || data[lenStart+1] != '=' {
		return RawFrame{}, malformed("BodyLength does not follow BeginString")
	}
	sepLen := indexByte(data, sep, lenStart+2)
	if sepLen < 0 {
		return RawFrame{}, malformed("unterminated BodyLength")
	}
	bodyLen, err := strconv.Atoi(string(data[lenStart+2 : sepLen]))
	if err != nil || bodyLen < 0 {
		return RawFrame{}, malformed("unparsable BodyLength %q", data[lenStart+2:sepLen])
	}
	bodyStart := sepLen + 1
	bodyEnd := bodyStart + bodyLen
	if bodyEnd+checksumFieldLen != len(data) {
		return RawFrame{}, malformed("declared body length %d does not match frame size %d", bodyLen, len(data))
	}
	trailer := data[bodyEnd:]
	if trailer[0] != '1' || trailer[1] != '0' || trailer[2] != '=' || trailer[6] != sep {
		return RawFrame{}, malformed("missing CheckSum trailer")
	}
	declared, err := strconv.Atoi(string(trailer[3:6]))
	if err != nil {
		return RawFrame{}, malformed("unparsable CheckSum %q", trailer[3:6])
	}
	if got := Checksum(data[:bodyEnd]); got != declared {
		return RawFrame{}, malformed("checksum mismatch: declared %03d, computed %03d", declared, got)
	}
	return RawFrame{
		data:        data,
		beginString: [2]int{2, sepBegin},
		body:        [2]int{bodyStart, bodyEnd},
	}, nil
}

// Checksum is the modulo-256 byte sum used by CheckSum(10).
func Checksum(data []byte) int {
	var sum uint32
	for _, b := range data {
		sum += uint32(b)
	}
	return int(sum % 256)
}

func indexByte(data []byte, b byte, from int) int {
	for i := from; i < len(data); i++ {
		if data[i] == b {
			return i
		}
	}
	return -1
}

package tagvalue

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strconv"
)

// maxFrameSize bounds a single frame so a corrupt BodyLength cannot make the
// reader allocate without limit.
const maxFrameSize = 1 << 20

// ErrFrameTooLarge is returned when a declared body length exceeds the frame
// size bound.
var ErrFrameTooLarge = errors.New("tagvalue: frame exceeds size limit")

// StreamReader frames complete messages out of an ordered byte stream. The
// transport below it has no notion of message boundaries; this reader finds
// the "8=...9=len" prefix, sizes the frame from the declared body length, and
// returns exactly one frame per call.
//
// After a torn or garbled frame the reader resynchronizes by scanning for the
// next BeginString prefix, so one bad message does not poison the stream.
type StreamReader struct {
	br  *bufio.Reader
	sep byte
}

// NewStreamReader wraps r. The separator must match the peer's encoding.
func NewStreamReader(r io.Reader, sep byte) *StreamReader {
	return &StreamReader{br: bufio.NewReaderSize(r, 64*1024), sep: sep}
}

var beginStringPrefix = []byte("8=")

// ReadFrame returns the next complete frame. The returned slice is owned by
// the caller. io.EOF is returned only on a clean boundary; a partial frame at
// stream end surfaces as io.ErrUnexpectedEOF.
func (sr *StreamReader) ReadFrame() ([]byte, error) {
	if err := sr.sync(); err != nil {
		return nil, err
	}

	// Read "8=<version><sep>9=<len><sep>" one byte at a time; the prefix is
	// tiny and bufio makes the byte reads cheap.
	prefix := make([]byte, 0, 32)
	prefix, err := sr.readUntilSep(prefix)
	if err != nil {
		return nil, err
	}
	lenField, err := sr.readUntilSep(nil)
	if err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(lenField, []byte("9=")) {
		return nil, malformed("BodyLength does not follow BeginString")
	}
	bodyLen, err2 := strconv.Atoi(string(lenField[2 : len(lenField)-1]))
	if err2 != nil || bodyLen < 0 {
		return nil, malformed("unparsable BodyLength %q", lenField[2:len(lenField)-1])
	}
	total := len(prefix) + len(lenField) + bodyLen + checksumFieldLen
	if total > maxFrameSize {
		return nil, ErrFrameTooLarge
	}

	frame := make([]byte, total)
	n := copy(frame, prefix)
	n += copy(frame[n:], lenField)
	if _, err := io.ReadFull(sr.br, frame[n:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return frame, nil
}

// sync discards bytes until the stream is positioned at a BeginString prefix.
func (sr *StreamReader) sync() error {
	for {
		peek, err := sr.br.Peek(len(beginStringPrefix))
		if err != nil {
			if errors.Is(err, io.EOF) && len(peek) == 0 {
				return io.EOF
			}
			return err
		}
		if bytes.Equal(peek, beginStringPrefix) {
			return nil
		}
		if _, err := sr.br.Discard(1); err != nil {
			return err
		}
	}
}

func (sr *StreamReader) readUntilSep(dst []byte) ([]byte, error) {
	for {
		b, err := sr.br.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
		dst = append(dst, b)
		if b == sr.sep {
			return dst, nil
		}
		if len(dst) > 64 {
			return nil, malformed("runaway field while framing")
		}
	}
}

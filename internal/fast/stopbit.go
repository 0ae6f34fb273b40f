// Package fast implements the compact binary encoding: stop-bit entities,
// presence maps, and template-driven field operators (constant, default,
// copy, increment, delta). Operator state is explicit and per session; see
// Context.
package fast

import (
	"errors"
	"fmt"
)

// Stop-bit entities pack seven payload bits per byte; the high bit marks the
// final byte. Integers are big-endian across chunks.

const stopBit = 0x80

var errShortBuffer = errors.New("fast: buffer exhausted mid-entity")

// maxEntityBytes bounds a single stop-bit entity: 10 chunks cover 64 bits.
const maxEntityBytes = 10

// AppendUint appends v as an unsigned stop-bit entity.
func AppendUint(dst []byte, v uint64) []byte {
	var chunks [maxEntityBytes]byte
	n := 0
	for {
		chunks[n] = byte(v & 0x7f)
		v >>= 7
		n++
		if v == 0 {
			break
		}
	}
	for i := n - 1; i > 0; i-- {
		dst = append(dst, chunks[i])
	}
	return append(dst, chunks[0]|stopBit)
}

// ReadUint reads an unsigned stop-bit entity and returns it with the number
// of bytes consumed.
func ReadUint(src []byte) (uint64, int, error) {
	var v uint64
	for i := 0; i < len(src); i++ {
		if i >= maxEntityBytes {
			return 0, 0, fmt.Errorf("fast: unsigned entity longer than %d bytes", maxEntityBytes)
		}
		b := src[i]
		v = v<<7 | uint64(b&0x7f)
		if b&stopBit != 0 {
			return v, i + 1, nil
		}
	}
	return 0, 0, errShortBuffer
}

// AppendInt appends v as a signed stop-bit entity: two's complement split
// into 7-bit chunks, using the fewest chunks whose leading payload bit still
// carries the sign.
func AppendInt(dst []byte, v int64) []byte {
	var chunks [maxEntityBytes]byte
	n := 0
	for {
		chunks[n] = byte(v & 0x7f)
		v >>= 7 // arithmetic shift keeps the sign
		n++
		done := (v == 0 && chunks[n-1]&0x40 == 0) || (v == -1 && chunks[n-1]&0x40 != 0)
		if done {
			break
		}
	}
	for i := n - 1; i > 0; i-- {
		dst = append(dst, chunks[i])
	}
	return append(dst, chunks[0]|stopBit)
}

// ReadInt reads a signed stop-bit entity.
func ReadInt(src []byte) (int64, int, error) {
	if len(src) == 0 {
		return 0, 0, errShortBuffer
	}
	var v int64
	if src[0]&0x40 != 0 {
		v = -1 // sign-extend from the first payload bit
	}
	for i := 0; i < len(src); i++ {
		if i >= maxEntityBytes {
			return 0, 0, fmt.Errorf("fast: signed entity longer than %d bytes", maxEntityBytes)
		}
		b := src[i]
		v = v<<7 | int64(b&0x7f)
		if b&stopBit != 0 {
			return v, i + 1, nil
		}
	}
	return 0, 0, errShortBuffer
}

// AppendASCII appends s as a stop-bit terminated byte run. The empty string
// is a single stop byte.
func AppendASCII(dst []byte, s string) []byte {
	if len(s) == 0 {
		return append(dst, stopBit)
	}
	dst = append(dst, s[:len(s)-1]...)
	return append(dst, s[len(s)-1]|stopBit)
}

// ReadASCII reads a stop-bit terminated byte run.
func ReadASCII(src []byte) (string, int, error) {
	for i := 0; i < len(src); i++ {
		if src[i]&stopBit != 0 {
			out := make([]byte, i+1)
			copy(out, src[:i+1])
			out[i] &= 0x7f
			if i == 0 && out[0] == 0 {
				return "", 1, nil
			}
			return string(out), i + 1, nil
		}
	}
	return "", 0, errShortBuffer
}

// AppendBytes appends a length-prefixed byte vector.
func AppendBytes(dst []byte, b []byte) []byte {
	dst = AppendUint(dst, uint64(len(b)))
	return append(dst, b...)
}

// ReadBytes reads a length-prefixed byte vector.
func ReadBytes(src []byte) ([]byte, int, error) {
	n, used, err := ReadUint(src)
	if err != nil {
		return nil, 0, err
	}
	end := used + int(n)
	if end > len(src) || n > uint64(len(src)) {
		return nil, 0, errShortBuffer
	}
	out := make([]byte, n)
	copy(out, src[used:end])
	return out, end, nil
}

package fast

// A presence map is a stop-bit entity whose payload bits record, in field
// order, which operator-governed fields are physically present in this
// message instance. Bits are consumed most-significant first within each
// 7-bit chunk.

// PMapWriter accumulates presence bits while encoding.
type PMapWriter struct {
	bits []bool
}

// Append records the next presence bit.
func (w *PMapWriter) Append(present bool) {
	w.bits = append(w.bits, present)
}

// Bytes serializes the accumulated bits as a stop-bit entity. An empty map
// is a single stop byte so every message instance starts with a pmap.
func (w *PMapWriter) Bytes() []byte {
	n := (len(w.bits) + 6) / 7
	if n == 0 {
		n = 1
	}
	out := make([]byte, n)
	for i, bit := range w.bits {
		if bit {
			out[i/7] |= 1 << (6 - uint(i%7))
		}
	}
	out[n-1] |= stopBit
	return out
}

// PMapReader yields presence bits while decoding.
type PMapReader struct {
	data []byte
	pos  int
}

// ReadPMap consumes the presence-map entity at the head of src.
func ReadPMap(src []byte) (*PMapReader, int, error) {
	for i := 0; i < len(src); i++ {
		if src[i]&stopBit != 0 {
			data := make([]byte, i+1)
			copy(data, src[:i+1])
			return &PMapReader{data: data}, i + 1, nil
		}
	}
	return nil, 0, errShortBuffer
}

// Next returns the next presence bit. Bits beyond the serialized map read as
// absent, matching the encoding's trailing-zero truncation.
func (r *PMapReader) Next() bool {
	i := r.pos
	r.pos++
	chunk := i / 7
	if chunk >= len(r.data) {
		return false
	}
	return r.data[chunk]&(1<<(6-uint(i%7))) != 0
}

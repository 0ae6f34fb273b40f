package session

import (
	"github.com/tidwall/btree"

	"github.com/finexio/fixwire/internal/message"
)

// buffered pairs a decoded early arrival with its raw frame so the message
// can still be logged to the store when it is finally dispatched in order.
type buffered struct {
	msg *message.Message
	raw []byte
}

// recoveryBuffer holds messages that arrived ahead of the expected sequence
// number while a gap is being filled. Ordered by sequence so the contiguous
// prefix can be flushed as soon as the gap closes.
type recoveryBuffer struct {
	bySeq *btree.Map[uint64, buffered]
}

func newRecoveryBuffer() *recoveryBuffer {
	return &recoveryBuffer{bySeq: btree.NewMap[uint64, buffered](8)}
}

func (b *recoveryBuffer) put(seq uint64, msg *message.Message, raw []byte) {
	b.bySeq.Set(seq, buffered{msg: msg, raw: raw})
}

func (b *recoveryBuffer) len() int { return b.bySeq.Len() }

// take removes and returns the buffered entry with sequence seq, if any.
func (b *recoveryBuffer) take(seq uint64) (buffered, bool) {
	entry, ok := b.bySeq.Get(seq)
	if ok {
		b.bySeq.Delete(seq)
	}
	return entry, ok
}

// highest returns the largest buffered sequence number, zero when empty.
func (b *recoveryBuffer) highest() uint64 {
	seq, _, ok := b.bySeq.Max()
	if !ok {
		return 0
	}
	return seq
}

func (b *recoveryBuffer) clear() {
	b.bySeq = btree.NewMap[uint64, buffered](8)
}

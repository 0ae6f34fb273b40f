package store

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/dgraph-io/badger/v3"
)

// BadgerStore is a disk-backed MessageStore using BadgerDB.
//
// Key layout: "msg:<session>:<dir>:<seq, 8-byte big endian>" so a range scan
// over one direction yields messages in sequence order.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens (or creates) a store at the given path.
func NewBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // disable internal logging
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger db: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func msgKey(sessionID string, dir Direction, seq uint64) []byte {
	key := make([]byte, 0, len(sessionID)+16)
	key = append(key, "msg:"...)
	key = append(key, sessionID...)
	key = append(key, ':')
	key = append(key, dir.String()...)
	key = append(key, ':')
	var seqBuf [8]byte
	binary.BigEndian.PutUint64(seqBuf[:], seq)
	return append(key, seqBuf[:]...)
}

func dirPrefix(sessionID string, dir Direction) []byte {
	return []byte("msg:" + sessionID + ":" + dir.String() + ":")
}

// Append durably records one raw message. The write is synchronous; when it
// returns the message can be served to a resend request.
func (s *BadgerStore) Append(ctx context.Context, sessionID string, dir Direction, seq uint64, raw []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(msgKey(sessionID, dir, seq), raw)
	})
}

// FetchRange returns logged messages for seq in [from, to], ascending.
func (s *BadgerStore) FetchRange(ctx context.Context, sessionID string, dir Direction, from, to uint64) ([][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = dirPrefix(sessionID, dir)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(msgKey(sessionID, dir, from)); it.Valid(); it.Next() {
			key := it.Item().Key()
			seq := binary.BigEndian.Uint64(key[len(key)-8:])
			if seq > to {
				break
			}
			val, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			out = append(out, val)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}

// LoadSequenceNumbers scans for the highest logged sequence number in each
// direction.
func (s *BadgerStore) LoadSequenceNumbers(ctx context.Context, sessionID string) (uint64, uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	var in, out uint64
	err := s.db.View(func(txn *badger.Txn) error {
		for _, d := range []Direction{Inbound, Outbound} {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = dirPrefix(sessionID, d)
			opts.Reverse = true
			it := txn.NewIterator(opts)
			// Reverse iteration starts at the last key under the prefix.
			seekTo := msgKey(sessionID, d, ^uint64(0))
			it.Seek(seekTo)
			if it.Valid() {
				key := it.Item().Key()
				seq := binary.BigEndian.Uint64(key[len(key)-8:])
				if d == Inbound {
					in = seq
				} else {
					out = seq
				}
			}
			it.Close()
		}
		return nil
	})
	return in, out, err
}

// Close closes the underlying BadgerDB.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

package store

import (
	"context"
	"sync"
)

// MemoryStore is an in-process MessageStore for tests and ephemeral sessions.
type MemoryStore struct {
	mu   sync.Mutex
	msgs map[string]map[Direction]map[uint64][]byte

	// FailAppends makes every Append return this error; tests use it to
	// exercise the store-failure path in the session machine.
	FailAppends error
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{msgs: make(map[string]map[Direction]map[uint64][]byte)}
}

func (s *MemoryStore) Append(ctx context.Context, sessionID string, dir Direction, seq uint64, raw []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailAppends != nil {
		return s.FailAppends
	}
	bySession, ok := s.msgs[sessionID]
	if !ok {
		bySession = make(map[Direction]map[uint64][]byte)
		s.msgs[sessionID] = bySession
	}
	byDir, ok := bySession[dir]
	if !ok {
		byDir = make(map[uint64][]byte)
		bySession[dir] = byDir
	}
	cp := make([]byte, len(raw))
	copy(cp, raw)
	byDir[seq] = cp
	return nil
}

func (s *MemoryStore) FetchRange(ctx context.Context, sessionID string, dir Direction, from, to uint64) ([][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	byDir := s.msgs[sessionID][dir]
	var out [][]byte
	for seq := from; seq <= to; seq++ {
		if raw, ok := byDir[seq]; ok {
			out = append(out, raw)
		}
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}

func (s *MemoryStore) LoadSequenceNumbers(ctx context.Context, sessionID string) (uint64, uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var in, out uint64
	for seq := range s.msgs[sessionID][Inbound] {
		if seq > in {
			in = seq
		}
	}
	for seq := range s.msgs[sessionID][Outbound] {
		if seq > out {
			out = seq
		}
	}
	return in, out, nil
}

func (s *MemoryStore) Close() error { return nil }

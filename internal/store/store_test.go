package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Both implementations must satisfy the same contract.
func stores(t *testing.T) map[string]MessageStore {
	t.Helper()
	badgerStore, err := NewBadgerStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { badgerStore.Close() })
	return map[string]MessageStore{
		"memory": NewMemoryStore(),
		"badger": badgerStore,
	}
}

func TestAppendAndFetchRange(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for seq := uint64(1); seq <= 5; seq++ {
				require.NoError(t, s.Append(ctx, "A->B", Outbound, seq, []byte{byte(seq)}))
			}

			got, err := s.FetchRange(ctx, "A->B", Outbound, 2, 4)
			require.NoError(t, err)
			require.Len(t, got, 3)
			assert.Equal(t, []byte{2}, got[0])
			assert.Equal(t, []byte{4}, got[2])

			// Ranges never logged are ErrNotFound, not empty success.
			_, err = s.FetchRange(ctx, "A->B", Outbound, 100, 200)
			assert.ErrorIs(t, err, ErrNotFound)
			_, err = s.FetchRange(ctx, "A->B", Inbound, 1, 5)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestFetchRangeSkipsHoles(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.Append(ctx, "A->B", Inbound, 1, []byte{1}))
			require.NoError(t, s.Append(ctx, "A->B", Inbound, 3, []byte{3}))

			got, err := s.FetchRange(ctx, "A->B", Inbound, 1, 3)
			require.NoError(t, err)
			assert.Equal(t, [][]byte{{1}, {3}}, got)
		})
	}
}

func TestLoadSequenceNumbers(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			in, out, err := s.LoadSequenceNumbers(ctx, "A->B")
			require.NoError(t, err)
			assert.Zero(t, in)
			assert.Zero(t, out)

			require.NoError(t, s.Append(ctx, "A->B", Inbound, 7, []byte("x")))
			require.NoError(t, s.Append(ctx, "A->B", Outbound, 12, []byte("y")))
			require.NoError(t, s.Append(ctx, "A->B", Outbound, 11, []byte("z")))

			in, out, err = s.LoadSequenceNumbers(ctx, "A->B")
			require.NoError(t, err)
			assert.EqualValues(t, 7, in)
			assert.EqualValues(t, 12, out)

			// Other session identities are independent.
			in, out, err = s.LoadSequenceNumbers(ctx, "C->D")
			require.NoError(t, err)
			assert.Zero(t, in)
			assert.Zero(t, out)
		})
	}
}

func TestAppendHonorsContext(t *testing.T) {
	s := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, s.Append(ctx, "A->B", Inbound, 1, []byte("x")))
}

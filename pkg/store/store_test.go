package store

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMem(t *testing.T) *Store {
	t.Helper()
	s, err := Open("", Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestKeysOrderById(t *testing.T) {
	assert.Less(t, GenMessageKey(9), GenMessageKey(10))
	assert.Less(t, GenThreadKey(99), GenThreadKey(100))

	for _, id := range []uint64{1, 42, 1 << 40} {
		got, err := ParseIDKey(GenMessageKey(id))
		require.NoError(t, err)
		assert.Equal(t, id, got)
	}
	_, err := ParseIDKey("c:whatever")
	require.Error(t, err)
	_, err = ParseIDKey("m:12")
	require.Error(t, err)
}

func TestCounterRoundTrip(t *testing.T) {
	v, err := DecodeCounter(EncodeCounter(12345))
	require.NoError(t, err)
	assert.Equal(t, uint64(12345), v)
}

func TestGetSetAndNotFound(t *testing.T) {
	s := openMem(t)
	_, err := s.Get("missing")
	require.True(t, IsNotFound(err))

	require.NoError(t, s.Set(NextThreadIDKey, EncodeCounter(3)))
	v, err := s.Get(NextThreadIDKey)
	require.NoError(t, err)
	assert.Equal(t, "3", string(v))
}

func TestBatchAndScanInOrder(t *testing.T) {
	s := openMem(t)
	b, err := s.NewBatch()
	require.NoError(t, err)
	for _, id := range []uint64{10, 2, 33, 1} {
		require.NoError(t, b.Set(GenMessageKey(id), []byte(fmt.Sprint(id))))
	}
	require.NoError(t, b.Set(GenThreadKey(1), []byte("thread")))
	require.NoError(t, b.Commit())

	var ids []uint64
	err = s.Scan(MessagePrefix, func(k, _ []byte) error {
		id, err := ParseIDKey(string(k))
		if err != nil {
			return err
		}
		ids = append(ids, id)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 10, 33}, ids)
}

func TestDiscardedBatchWritesNothing(t *testing.T) {
	s := openMem(t)
	b, err := s.NewBatch()
	require.NoError(t, err)
	require.NoError(t, b.Set("k", []byte("v")))
	b.Discard()
	_, err = s.Get("k")
	require.True(t, IsNotFound(err))
}

func TestClosedStoreRejectsWrites(t *testing.T) {
	s, err := Open("", Options{InMemory: true})
	require.NoError(t, err)
	b, err := s.NewBatch()
	require.NoError(t, err)
	require.NoError(t, b.Set("k", []byte("v")))

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.False(t, s.Ready())

	require.ErrorIs(t, b.Commit(), ErrClosed)
	_, err = s.NewBatch()
	require.ErrorIs(t, err, ErrClosed)
	_, err = s.Get("k")
	require.ErrorIs(t, err, ErrClosed)
	require.ErrorIs(t, s.Set("k", nil), ErrClosed)
	require.ErrorIs(t, s.Scan(MessagePrefix, func(_, _ []byte) error { return nil }), ErrClosed)
}

func TestCheckSchemaStampsAndRejects(t *testing.T) {
	s := openMem(t)
	require.NoError(t, s.CheckSchema())
	v, err := s.Get(SchemaVersionKey)
	require.NoError(t, err)
	assert.Equal(t, "1", string(v))
	require.NoError(t, s.CheckSchema())

	require.NoError(t, s.Set(SchemaVersionKey, EncodeCounter(99)))
	require.ErrorIs(t, s.CheckSchema(), ErrSchemaMismatch)
}

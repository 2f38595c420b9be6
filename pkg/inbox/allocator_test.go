package inbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/membrane-io/user/pkg/store"
)

func TestAllocatorStartsAtOneAndPersists(t *testing.T) {
	st, err := store.Open("", store.Options{InMemory: true})
	require.NoError(t, err)
	defer st.Close()

	a := newAllocator(store.NextMessageIDKey)
	assert.Equal(t, uint64(1), a.Next())
	assert.Equal(t, uint64(2), a.Next())

	b, err := st.NewBatch()
	require.NoError(t, err)
	require.NoError(t, a.stage(b))
	require.NoError(t, b.Commit())

	restored := newAllocator(store.NextMessageIDKey)
	require.NoError(t, restored.load(st, 0))
	assert.Equal(t, uint64(3), restored.Next())

	floored := newAllocator(store.NextMessageIDKey)
	require.NoError(t, floored.load(st, 10))
	assert.Equal(t, uint64(10), floored.Peek())

	fresh := newAllocator(store.NextThreadIDKey)
	require.NoError(t, fresh.load(st, 0))
	assert.Equal(t, uint64(1), fresh.Next())
}

package inbox

import (
	"github.com/membrane-io/user/pkg/store"
)

// allocator hands out ids from a persisted counter. The counter is written
// in the same batch as the record that consumed the id, so a failed commit
// leaves a gap and never a duplicate.
type allocator struct {
	key  string
	next uint64
}

func newAllocator(key string) *allocator {
	return &allocator{key: key, next: 1}
}

// Next returns the current value and increments.
func (a *allocator) Next() uint64 {
	id := a.next
	a.next++
	return id
}

// Peek is the id Next would return.
func (a *allocator) Peek() uint64 { return a.next }

func (a *allocator) stage(b *store.Batch) error {
	return b.Set(a.key, store.EncodeCounter(a.next))
}

// load restores the counter, never going below floor.
func (a *allocator) load(st *store.Store, floor uint64) error {
	a.next = 1
	raw, err := st.Get(a.key)
	switch {
	case err == nil:
		v, err := store.DecodeCounter(raw)
		if err != nil {
			return err
		}
		a.next = v
	case !store.IsNotFound(err):
		return err
	}
	if a.next < floor {
		a.next = floor
	}
	if a.next == 0 {
		a.next = 1
	}
	return nil
}

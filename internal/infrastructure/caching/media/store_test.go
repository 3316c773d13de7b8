package media

import (
	"fmt"
	"testing"

	"github.com/UpperPublicidade/upperchat-go/internal/domain/chat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func payload(data string) chat.MediaPayload {
	return chat.MediaPayload{MimeType: "image/jpeg", Data: data}
}

func TestStoreRoundTrip(t *testing.T) {
	store := NewStore(10)
	store.Put("m1", payload("blob-1"))

	entry, ok := store.Get("m1")
	require.True(t, ok)
	assert.Equal(t, "image/jpeg", entry.MimeType)
	assert.Equal(t, "blob-1", entry.Data)
	assert.False(t, entry.SavedAt.IsZero())
}

func TestStoreGetAbsent(t *testing.T) {
	store := NewStore(10)
	_, ok := store.Get("missing")
	assert.False(t, ok)
}

func TestStoreFIFOEviction(t *testing.T) {
	store := NewStore(2)
	store.Put("m1", payload("blob-1"))
	store.Put("m2", payload("blob-2"))
	store.Put("m3", payload("blob-3"))

	_, ok := store.Get("m1")
	assert.False(t, ok, "oldest-inserted entry must be evicted first")

	entry, ok := store.Get("m2")
	require.True(t, ok)
	assert.Equal(t, "blob-2", entry.Data)

	entry, ok = store.Get("m3")
	require.True(t, ok)
	assert.Equal(t, "blob-3", entry.Data)

	assert.Equal(t, 2, store.Len())
}

func TestStoreCapacityNeverExceeded(t *testing.T) {
	store := NewStore(3)
	for i := 0; i < 20; i++ {
		store.Put(fmt.Sprintf("m%d", i), payload(fmt.Sprintf("blob-%d", i)))
	}
	assert.Equal(t, 3, store.Len())
}

func TestStoreOverwriteDoesNotEvict(t *testing.T) {
	store := NewStore(2)
	store.Put("m1", payload("blob-1"))
	store.Put("m2", payload("blob-2"))

	// Overwriting an existing key at capacity must not evict anything.
	store.Put("m1", payload("blob-1-v2"))
	assert.Equal(t, 2, store.Len())

	entry, ok := store.Get("m1")
	require.True(t, ok)
	assert.Equal(t, "blob-1-v2", entry.Data)

	_, ok = store.Get("m2")
	assert.True(t, ok)

	// Overwrite must not refresh insertion order: m1 is still the oldest.
	store.Put("m3", payload("blob-3"))
	_, ok = store.Get("m1")
	assert.False(t, ok)
}

func TestStoreClear(t *testing.T) {
	store := NewStore(5)
	store.Put("m1", payload("blob-1"))
	store.Put("m2", payload("blob-2"))

	store.Clear()
	assert.Equal(t, 0, store.Len())
	_, ok := store.Get("m1")
	assert.False(t, ok)

	// The store stays usable after a clear.
	store.Put("m4", payload("blob-4"))
	_, ok = store.Get("m4")
	assert.True(t, ok)
}

func TestStoreCapacityClamp(t *testing.T) {
	store := NewStore(0)
	store.Put("m1", payload("blob-1"))
	store.Put("m2", payload("blob-2"))
	assert.Equal(t, 1, store.Len())
}

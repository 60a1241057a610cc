package memory

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore(t *testing.T) {
	store := NewConfigStore()
	require.NotNil(t, store)
	assert.NotNil(t, store.values)
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_Set_Update(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Set("key1", "original"))
	require.NoError(t, store.Set("key1", "updated"))

	val, ok := store.Get("key1")
	assert.True(t, ok)
	assert.Equal(t, "updated", val)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("s", "text"))
	require.NoError(t, store.Set("b", true))

	assert.Equal(t, "text", store.GetString("s"))
	assert.Equal(t, "", store.GetString("b"))
	assert.True(t, store.GetBool("b"))
	assert.False(t, store.GetBool("s"))
	assert.False(t, store.GetBool("missing"))
}

func TestConfigStore_AllReturnsCopy(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.SetAll(map[string]any{"a": 1, "b": 2}))

	all := store.All()
	all["c"] = 3

	assert.Len(t, store.All(), 2)
}

func TestConfigStore_SetErr(t *testing.T) {
	store := NewConfigStore()
	store.SetErr = errors.New("read-only")

	assert.Error(t, store.Set("a", 1))
	assert.Error(t, store.SetAll(map[string]any{"a": 1}))
	assert.Empty(t, store.All())
}

func TestConfigStore_ConcurrentAccess(t *testing.T) {
	store := NewConfigStore()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.Set("key", i)
		}()
		go func() {
			defer wg.Done()
			_ = store.All()
		}()
	}
	wg.Wait()

	_, ok := store.Get("key")
	assert.True(t, ok)
}

package session

import (
	"sync"
	"testing"
	"time"

	"clinical-trials-agent-backend/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_CreateGetDelete(t *testing.T) {
	st := NewStore(config.SessionConfig{TTL: time.Hour, CleanupInterval: time.Minute})

	s := st.Create()
	require.NotEmpty(t, s.ID)
	assert.Equal(t, 1, st.Count())

	got, ok := st.Get(s.ID)
	require.True(t, ok)
	assert.Same(t, s, got)

	st.Delete(s.ID)
	_, ok = st.Get(s.ID)
	assert.False(t, ok)
}

func TestStore_ShouldExpireIdleSessions(t *testing.T) {
	st := NewStore(config.SessionConfig{TTL: 50 * time.Millisecond})
	s := st.Create()

	time.Sleep(100 * time.Millisecond)

	_, ok := st.Get(s.ID)
	assert.False(t, ok)
}

func TestStore_GetShouldSlideExpiry(t *testing.T) {
	st := NewStore(config.SessionConfig{TTL: 80 * time.Millisecond})
	s := st.Create()

	for i := 0; i < 3; i++ {
		time.Sleep(40 * time.Millisecond)
		_, ok := st.Get(s.ID)
		require.True(t, ok)
	}
}

func TestStore_GetShouldNotRestoreDeletedSession(t *testing.T) {
	st := NewStore(config.SessionConfig{TTL: time.Hour, CleanupInterval: time.Minute})
	s := st.Create()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				st.Get(s.ID)
			}
		}()
	}
	st.Delete(s.ID)
	wg.Wait()

	_, ok := st.Get(s.ID)
	assert.False(t, ok)
	assert.Equal(t, 0, st.Count())
}

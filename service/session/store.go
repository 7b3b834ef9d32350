package session

import (
	"log/slog"

	"clinical-trials-agent-backend/config"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// Store 内存会话存储，空闲超过 TTL 的会话会被清理
type Store struct {
	cache *cache.Cache
}

func NewStore(cfg config.SessionConfig) *Store {
	c := cache.New(cfg.TTL, cfg.CleanupInterval)
	c.OnEvicted(func(id string, _ any) {
		slog.Debug("Session evicted", "session_id", id)
	})
	return &Store{
		cache: c,
	}
}

func (st *Store) Create() *Session {
	s := New(uuid.New().String())
	st.cache.Set(s.ID, s, cache.DefaultExpiration)
	return s
}

// Get 读取会话并刷新其过期时间
func (st *Store) Get(id string) (*Session, bool) {
	x, found := st.cache.Get(id)
	if !found {
		return nil, false
	}
	s := x.(*Session)
	// Replace 在会话已被删除时失败，避免将其重新写回
	if err := st.cache.Replace(id, s, cache.DefaultExpiration); err != nil {
		return nil, false
	}
	return s, true
}

func (st *Store) Delete(id string) {
	st.cache.Delete(id)
}

func (st *Store) Count() int {
	return st.cache.ItemCount()
}

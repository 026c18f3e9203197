package session

import (
	"context"
	"errors"
	"time"

	"github.com/jellydator/ttlcache/v2"
)

// MemoryStore keeps sessions in process memory. Sessions are lost on
// restart, use it for development and tests only
type MemoryStore struct {
	c *ttlcache.Cache
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	c := ttlcache.NewCache()
	c.SetTTL(ttl)
	c.SkipTTLExtensionOnHit(false)

	return &MemoryStore{c: c}
}

func (s *MemoryStore) Load(_ context.Context, id string) (*Session, error) {
	v, err := s.c.Get(id)
	if err != nil {
		if errors.Is(err, ttlcache.ErrNotFound) {
			return nil, ErrNotFound
		}

		return nil, err
	}

	// Stored encoded so callers never share a pointer
	return Unmarshal(id, v.([]byte))
}

func (s *MemoryStore) Save(_ context.Context, sess *Session) error {
	b, err := Marshal(sess)
	if err != nil {
		return err
	}

	return s.c.Set(sess.ID, b)
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	err := s.c.Remove(id)
	if errors.Is(err, ttlcache.ErrNotFound) {
		return nil
	}

	return err
}

func (s *MemoryStore) Close() error {
	return s.c.Close()
}

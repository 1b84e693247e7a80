package memory

import (
	"context"
	"errors"
	"fmt"

	"github.com/mudler/xlog"
)

// DefaultFunc produces the kind-specific initial payload for a key's first
// ever access.
type DefaultFunc func(ctx context.Context, key Key, storageURI string) ([]byte, error)

// Service orchestrates the cache-then-store lookaside path for one memory
// kind. Cache errors degrade to store-only operation; store errors propagate.
type Service struct {
	kind     Kind
	store    Store
	cache    Cache
	defaults DefaultFunc
}

func NewService(kind Kind, store Store, cache Cache, defaults DefaultFunc) *Service {
	return &Service{kind: kind, store: store, cache: cache, defaults: defaults}
}

func (s *Service) Kind() Kind { return s.kind }

func (s *Service) key(userID, sessionID, fileName string) Key {
	return Key{Kind: s.kind, UserID: userID, SessionID: sessionID, FileName: fileName}
}

// Get returns the payload for the key, creating the kind default on first
// access and backfilling the cache on store hits.
func (s *Service) Get(ctx context.Context, userID, sessionID, fileName, storageURI string) ([]byte, error) {
	key := s.key(userID, sessionID, fileName)

	if s.cache != nil {
		raw, err := s.cache.Get(ctx, key)
		if err == nil {
			return raw, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			xlog.Warn("Memory cache degraded, falling back to store", "key", key.String(), "error", err)
		}
	}

	raw, err := s.store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		raw, err = s.create(ctx, key, storageURI)
	}
	if err != nil {
		return nil, err
	}

	s.cacheSet(ctx, key, raw)
	return raw, nil
}

// create persists the kind default and re-reads, so a racing creator's row
// wins over ours without duplication.
func (s *Service) create(ctx context.Context, key Key, storageURI string) ([]byte, error) {
	payload, err := s.defaults(ctx, key, storageURI)
	if err != nil {
		return nil, fmt.Errorf("building default %s payload: %w", s.kind, err)
	}
	if err := s.store.Create(ctx, key, payload); err != nil {
		return nil, fmt.Errorf("creating %s memory: %w", s.kind, err)
	}
	return s.store.Get(ctx, key)
}

// Update replaces the payload in the store, then overwrites the cache entry so
// subsequent reads observe the new value.
func (s *Service) Update(ctx context.Context, userID, sessionID, fileName string, payload []byte) error {
	key := s.key(userID, sessionID, fileName)

	err := s.store.Update(ctx, key, payload)
	if errors.Is(err, ErrNotFound) {
		err = s.store.Create(ctx, key, payload)
	}
	if err != nil {
		return fmt.Errorf("updating %s memory: %w", s.kind, err)
	}

	s.cacheSet(ctx, key, payload)
	return nil
}

func (s *Service) cacheSet(ctx context.Context, key Key, payload []byte) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, payload); err != nil {
		xlog.Warn("Memory cache write failed", "key", key.String(), "error", err)
	}
}

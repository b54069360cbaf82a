// Package memory implements repository.Store on top of a Go map.
//
// It is the in-process stand-in for browser storage: fast, lost when the
// process exits, and optionally capped by a byte quota so the "storage full"
// failure mode can be exercised without filling a disk.
//
// TRANSACTIONS:
// Update stages every Set/Delete in an overlay map and only copies the overlay
// into the real map once the callback returns nil and the quota check passes.
// A failed callback simply drops the overlay. That is the whole rollback.
package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/sakif/fresh-start/internal/apperror"
	"github.com/sakif/fresh-start/internal/repository"
)

// compile-time check that *Store implements repository.Store
var _ repository.Store = (*Store)(nil)

var (
	errClosed   = errors.New("memory: store is closed")
	errReadOnly = errors.New("memory: write inside a read-only transaction")
)

// Store is a map-backed key-value store safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	data   map[string]string
	size   int // bytes currently used: sum of len(key)+len(value)
	quota  int // 0 means unlimited
	closed bool
}

// Option configures a Store.
type Option func(*Store)

// WithQuota caps the total bytes (keys plus values) the store will hold.
// Browsers give origins roughly 5MB of localStorage; pass something similar
// to reproduce that ceiling.
func WithQuota(bytes int) Option {
	return func(s *Store) {
		s.quota = bytes
	}
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	s := &Store{data: make(map[string]string)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Size reports the bytes currently held.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var (
		value string
		ok    bool
	)
	err := s.View(ctx, func(tx repository.Tx) error {
		var err error
		value, ok, err = tx.Get(ctx, key)
		return err
	})
	return value, ok, err
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	return s.Update(ctx, func(tx repository.Tx) error {
		return tx.Set(ctx, key, value)
	})
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.Update(ctx, func(tx repository.Tx) error {
		return tx.Delete(ctx, key)
	})
}

func (s *Store) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := s.View(ctx, func(tx repository.Tx) error {
		var err error
		keys, err = tx.ListKeys(ctx, prefix)
		return err
	})
	return keys, err
}

// Update runs fn with exclusive access and commits its writes atomically.
func (s *Store) Update(ctx context.Context, fn func(tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errClosed
	}

	t := &tx{store: s, staged: make(map[string]*string), writable: true}
	if err := fn(t); err != nil {
		return err
	}
	return s.commit(t.staged)
}

// View runs fn against the current contents. Concurrent Views are allowed;
// they block only while an Update is committing.
func (s *Store) View(ctx context.Context, fn func(tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errClosed
	}

	return fn(&tx{store: s})
}

// Close releases the map. Further calls fail.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.data = nil
	s.size = 0
	return nil
}

// commit applies staged writes. Caller holds s.mu for writing.
func (s *Store) commit(staged map[string]*string) error {
	if len(staged) == 0 {
		return nil
	}

	newSize := s.size
	grown := ""
	for key, value := range staged {
		if old, had := s.data[key]; had {
			newSize -= len(key) + len(old)
		}
		if value != nil {
			newSize += len(key) + len(*value)
			if grown == "" || key < grown {
				grown = key
			}
		}
	}
	if s.quota > 0 && newSize > s.quota && newSize > s.size {
		return apperror.QuotaExceeded(grown)
	}

	for key, value := range staged {
		if value == nil {
			delete(s.data, key)
			continue
		}
		s.data[key] = *value
	}
	s.size = newSize
	return nil
}

// tx reads through its overlay to the committed map.
// A nil entry in staged is a pending delete.
type tx struct {
	store    *Store
	staged   map[string]*string
	writable bool
}

func (t *tx) Get(_ context.Context, key string) (string, bool, error) {
	if v, ok := t.staged[key]; ok {
		if v == nil {
			return "", false, nil
		}
		return *v, true, nil
	}
	v, ok := t.store.data[key]
	return v, ok, nil
}

func (t *tx) Set(_ context.Context, key, value string) error {
	if !t.writable {
		return errReadOnly
	}
	t.staged[key] = &value
	return nil
}

func (t *tx) Delete(_ context.Context, key string) error {
	if !t.writable {
		return errReadOnly
	}
	t.staged[key] = nil
	return nil
}

func (t *tx) ListKeys(_ context.Context, prefix string) ([]string, error) {
	seen := make(map[string]bool)
	for key := range t.store.data {
		if strings.HasPrefix(key, prefix) {
			seen[key] = true
		}
	}
	for key, value := range t.staged {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		seen[key] = value != nil
	}

	keys := make([]string, 0, len(seen))
	for key, present := range seen {
		if present {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

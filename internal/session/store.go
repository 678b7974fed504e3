// Package session holds live portal connections keyed by opaque handles.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"studentcorner-backend/internal/components/telemetry"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// ErrNotFound is returned when a handle is unknown or has expired.
var ErrNotFound = errors.New("session not found")

const report_store_active = "store.active"

// Store maps handles to connections. Implementations must handle concurrent
// access safely: a handle is either fully present or absent to every reader.
type Store[C any] interface {
	// Create registers conn under a freshly generated handle.
	Create(ctx context.Context, conn C) (string, error)
	// Get returns ErrNotFound when the handle is not live.
	Get(ctx context.Context, handle string) (C, error)
	// Delete returns ErrNotFound when the handle was not live.
	Delete(ctx context.Context, handle string) error
	Len() int
}

type MemoryStoreOptions struct {
	// Capacity is the maximum amount of live handles, the least recently used
	// handle is evicted past it. 0 means unbounded.
	Capacity int
	// IdleTimeout expires handles that were not accessed for this long.
	// 0 or less disables expiry.
	IdleTimeout time.Duration
}

// MemoryStore is a process-local Store.
type MemoryStore[C any] struct {
	// guards get-then-touch against a concurrent Delete resurrecting a handle
	mutex sync.Mutex
	cache *expirable.LRU[string, C]
	tel   telemetry.API
}

func NewMemoryStore[C any](opts MemoryStoreOptions, tel telemetry.API) *MemoryStore[C] {
	tel = telemetry.NewScopedAPI("session", tel)
	onEvict := func(handle string, _ C) {
		tel.ReportDebug("evicted handle", handle)
	}
	return &MemoryStore[C]{
		cache: expirable.NewLRU[string, C](opts.Capacity, onEvict, opts.IdleTimeout),
		tel:   tel,
	}
}

func (s *MemoryStore[C]) Create(ctx context.Context, conn C) (string, error) {
	handle := uuid.NewString()

	s.mutex.Lock()
	s.cache.Add(handle, conn)
	active := s.cache.Len()
	s.mutex.Unlock()

	s.tel.ReportCount(report_store_active, int64(active))
	return handle, nil
}

func (s *MemoryStore[C]) Get(ctx context.Context, handle string) (C, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	conn, ok := s.cache.Get(handle)
	if !ok {
		var zero C
		return zero, ErrNotFound
	}
	// re-adding pushes the expiry forward, expirable.LRU only counts from insertion
	s.cache.Add(handle, conn)
	return conn, nil
}

func (s *MemoryStore[C]) Delete(ctx context.Context, handle string) error {
	s.mutex.Lock()
	removed := s.cache.Remove(handle)
	active := s.cache.Len()
	s.mutex.Unlock()

	if !removed {
		return ErrNotFound
	}
	s.tel.ReportCount(report_store_active, int64(active))
	return nil
}

func (s *MemoryStore[C]) Len() int {
	return s.cache.Len()
}

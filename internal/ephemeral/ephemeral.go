// Package ephemeral wraps the process-wide TTL key-value store used for
// short-lived markers and rate-limit counters. It is not a system of
// record: entries vanish on expiry or restart, and the invariants built
// on top of it are best-effort across processes.
package ephemeral

import (
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// Store holds the shared key-value state. The mutex serializes
// check-and-consume of task-requested markers and the fixed-window
// counters, so those operations are atomic within this process.
type Store struct {
	mu sync.Mutex
	c  *cache.Cache
}

// New creates an empty store. defaultTTL applies to entries stored
// without an explicit TTL; expired entries are purged twice per TTL.
func New(defaultTTL time.Duration) *Store {
	return &Store{
		c: cache.New(defaultTTL, 2*defaultTTL),
	}
}

// markerKey builds the task-requested marker key for a contributor
// identity (user id or IP) and task.
func markerKey(contributor string, taskID int) string {
	return fmt.Sprintf("task_requested:user:%s:task:%d", contributor, taskID)
}

// MarkRequested records that the contributor was handed the task, with
// the given lifetime. Submitting a run for the task requires this marker.
func (s *Store) MarkRequested(contributor string, taskID int, ttl time.Duration) {
	s.c.Set(markerKey(contributor, taskID), true, ttl)
}

// CheckRequested reports whether the contributor holds a task-requested
// marker for the task. When consume is true and the marker exists, it is
// deleted in the same critical section, so a concurrent duplicate
// submission cannot observe the marker again.
func (s *Store) CheckRequested(contributor string, taskID int, consume bool) bool {
	key := markerKey(contributor, taskID)

	s.mu.Lock()
	defer s.mu.Unlock()

	_, found := s.c.Get(key)
	if found && consume {
		s.c.Delete(key)
	}
	return found
}

// window is a fixed rate-limit window: a counter and its reset time.
type window struct {
	count int
	reset time.Time
}

// Hit records one request against the keyed fixed window and returns the
// remaining budget, the window's reset time and whether the request is
// allowed. The first hit of a window starts it.
func (s *Store) Hit(key string, limit int, per time.Duration) (remaining int, reset time.Time, allowed bool) {
	cacheKey := "ratelimit:" + key

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	w, found := s.c.Get(cacheKey)
	win, ok := w.(*window)
	if !found || !ok || now.After(win.reset) {
		win = &window{count: 0, reset: now.Add(per)}
	}

	win.count++
	s.c.Set(cacheKey, win, time.Until(win.reset))

	remaining = limit - win.count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, win.reset, win.count <= limit
}

// Get returns the raw value stored under key, for cache-style use.
func (s *Store) Get(key string) (any, bool) {
	return s.c.Get(key)
}

// Set stores a value under key with the given TTL. A zero TTL uses the
// store's default.
func (s *Store) Set(key string, value any, ttl time.Duration) {
	if ttl == 0 {
		s.c.SetDefault(key, value)
		return
	}
	s.c.Set(key, value, ttl)
}

// Delete removes a key.
func (s *Store) Delete(key string) {
	s.c.Delete(key)
}

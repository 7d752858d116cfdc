// Package store holds the two shared tables of the pipeline: the raw tick
// table written by the ingestion listener and the computed table written by
// the aggregation scheduler. Each table is a concurrent key -> row-slice
// service; rows are append-only and time-ordered per key.
package store

import "sync"

// Series is a concurrent append-only map from key to row slice. Exactly one
// component writes any given key; readers may observe a table mid-append
// and must treat what they read as a snapshot.
type Series[T any] struct {
	mu      sync.RWMutex
	maxRows int
	data    map[string][]T
}

// NewSeries creates an empty table. maxRows caps each key's series ring
// buffer style; 0 means unbounded.
func NewSeries[T any](maxRows int) *Series[T] {
	return &Series[T]{maxRows: maxRows, data: make(map[string][]T)}
}

// Append adds rows to the end of a key's series, creating it if absent.
func (s *Series[T]) Append(key string, rows ...T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	buf := append(s.data[key], rows...)
	if s.maxRows > 0 && len(buf) > s.maxRows {
		buf = buf[len(buf)-s.maxRows:]
	}
	s.data[key] = buf
}

// Ensure registers a key with an empty series if it does not exist yet.
// Existing rows are untouched.
func (s *Series[T]) Ensure(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[key]; !ok {
		s.data[key] = []T{}
	}
}

// Has reports whether the key has been registered.
func (s *Series[T]) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[key]
	return ok
}

// Len returns the number of rows under a key, 0 for unknown keys.
func (s *Series[T]) Len(key string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data[key])
}

// Last returns the most recent row under a key.
func (s *Series[T]) Last(key string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := s.data[key]
	if len(rows) == 0 {
		var zero T
		return zero, false
	}
	return rows[len(rows)-1], true
}

// Tail returns a copy of the last n rows, or the whole series when it is
// shorter than n.
func (s *Series[T]) Tail(key string, n int) []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := s.data[key]
	if len(rows) > n {
		rows = rows[len(rows)-n:]
	}
	out := make([]T, len(rows))
	copy(out, rows)
	return out
}

// Snapshot returns a copy of the full series under a key.
func (s *Series[T]) Snapshot(key string) []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := s.data[key]
	out := make([]T, len(rows))
	copy(out, rows)
	return out
}

// TailWhile returns a copy of the longest suffix whose rows all satisfy
// keep. Rows arrive in time order, so a cutoff predicate scans from the
// end and stops at the first row outside the window.
func (s *Series[T]) TailWhile(key string, keep func(T) bool) []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := s.data[key]
	start := len(rows)
	for start > 0 && keep(rows[start-1]) {
		start--
	}
	out := make([]T, len(rows)-start)
	copy(out, rows[start:])
	return out
}

// Keys returns the registered keys in unspecified order.
func (s *Series[T]) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.data))
	for k := range s.data {
		out = append(out, k)
	}
	return out
}

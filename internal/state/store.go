package state

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"
)

var (
	// ErrInvalidIndex reports a position outside the store's order.
	ErrInvalidIndex = errors.New("invalid index")
	// ErrDuplicateID reports an attempt to place an ID that already lives at
	// another position.
	ErrDuplicateID = errors.New("duplicate id")
	// ErrLockPoisoned is returned to every acquirer once an Update scope
	// panicked. Reads (Len, Get, GetByID, Position and the Map projections)
	// then report an empty store; callers that must tell the two apart
	// check Err. A panic inside a projection function only releases the
	// lock: projections never mutate, so the data stays consistent.
	ErrLockPoisoned = errors.New("store lock poisoned")
)

// Entity is anything with a stable identity that can live in a Store.
type Entity interface {
	Key() int64
}

// Store is an ordered, ID-keyed collection shared between goroutines. The
// ID map and the order slice are guarded together by one mutex. A *Store is
// a shared handle: every copy of the pointer observes the same data.
type Store[T Entity] struct {
	mu       sync.Mutex
	items    map[int64]T
	order    []int64
	poisoned bool
}

// NewStore builds a store from an ordered slice. When two items share an ID
// the later one wins and keeps the first one's position.
func NewStore[T Entity](items []T) *Store[T] {
	s := &Store[T]{
		items: make(map[int64]T, len(items)),
		order: make([]int64, 0, len(items)),
	}
	for _, item := range items {
		id := item.Key()
		if _, ok := s.items[id]; !ok {
			s.order = append(s.order, id)
		}
		s.items[id] = item
	}
	return s
}

// lock acquires the mutex and reports whether the store is usable. Callers
// must unlock regardless of the result.
func (s *Store[T]) lock() bool {
	s.mu.Lock()
	return !s.poisoned
}

// Update grants exclusive access to the store for the duration of fn. The
// lock is released on every exit path. A panic inside fn poisons the store
// before it propagates.
func (s *Store[T]) Update(fn func(tx *Txn[T]) error) (err error) {
	if !s.lock() {
		s.mu.Unlock()
		return ErrLockPoisoned
	}
	done := false
	defer func() {
		if !done {
			s.poisoned = true
		}
		s.mu.Unlock()
	}()
	err = fn(&Txn[T]{s: s})
	done = true
	return err
}

// Err returns ErrLockPoisoned once the store has been poisoned.
func (s *Store[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.poisoned {
		return ErrLockPoisoned
	}
	return nil
}

// Len returns the number of entities.
func (s *Store[T]) Len() int {
	defer s.mu.Unlock()
	if !s.lock() {
		return 0
	}
	return len(s.order)
}

// Get returns a copy of the entity at pos.
func (s *Store[T]) Get(pos int) (T, bool) {
	defer s.mu.Unlock()
	var zero T
	if !s.lock() || pos < 0 || pos >= len(s.order) {
		return zero, false
	}
	return s.items[s.order[pos]], true
}

// GetByID returns a copy of the entity with the given ID.
func (s *Store[T]) GetByID(id int64) (T, bool) {
	defer s.mu.Unlock()
	var zero T
	if !s.lock() {
		return zero, false
	}
	item, ok := s.items[id]
	return item, ok
}

// Position returns the index of id within the order, scanning linearly.
func (s *Store[T]) Position(id int64) (int, bool) {
	defer s.mu.Unlock()
	if !s.lock() {
		return 0, false
	}
	return position(s.order, id)
}

// Replace swaps the entity at pos for item.
func (s *Store[T]) Replace(pos int, item T) error {
	return s.Update(func(tx *Txn[T]) error {
		return tx.ReplaceAt(pos, item)
	})
}

// Entries returns a copy of every entity in order.
func (s *Store[T]) Entries() []T {
	return Map(s, func(item T) T { return item })
}

// MapOne applies fn to the entity at pos under the lock, without copying the
// collection.
func MapOne[T Entity, R any](s *Store[T], pos int, fn func(T) R) (R, bool) {
	defer s.mu.Unlock()
	var zero R
	if !s.lock() || pos < 0 || pos >= len(s.order) {
		return zero, false
	}
	return fn(s.items[s.order[pos]]), true
}

// MapRange applies fn to every entity in [start, end), clipped to the store.
func MapRange[T Entity, R any](s *Store[T], start, end int, fn func(T) R) []R {
	defer s.mu.Unlock()
	if !s.lock() {
		return nil
	}
	if start < 0 {
		start = 0
	}
	if end > len(s.order) {
		end = len(s.order)
	}
	if start >= end {
		return nil
	}
	out := make([]R, 0, end-start)
	for _, id := range s.order[start:end] {
		out = append(out, fn(s.items[id]))
	}
	return out
}

// Map applies fn to every entity in order.
func Map[T Entity, R any](s *Store[T], fn func(T) R) []R {
	return MapRange(s, 0, math.MaxInt, fn)
}

// Txn is the view of a store handed to an Update scope. It must not be
// retained after the scope returns.
type Txn[T Entity] struct {
	s *Store[T]
}

// Len returns the number of entities.
func (tx *Txn[T]) Len() int {
	return len(tx.s.order)
}

// At returns the entity at pos.
func (tx *Txn[T]) At(pos int) (T, bool) {
	var zero T
	if pos < 0 || pos >= len(tx.s.order) {
		return zero, false
	}
	return tx.s.items[tx.s.order[pos]], true
}

// Get returns the entity with the given ID.
func (tx *Txn[T]) Get(id int64) (T, bool) {
	item, ok := tx.s.items[id]
	return item, ok
}

// Position returns the index of id within the order.
func (tx *Txn[T]) Position(id int64) (int, bool) {
	return position(tx.s.order, id)
}

// Set overwrites the entity sharing item's ID, keeping its position.
func (tx *Txn[T]) Set(item T) bool {
	id := item.Key()
	if _, ok := tx.s.items[id]; !ok {
		return false
	}
	tx.s.items[id] = item
	return true
}

// ReplaceAt puts item at pos, dropping the entity previously there.
func (tx *Txn[T]) ReplaceAt(pos int, item T) error {
	if pos < 0 || pos >= len(tx.s.order) {
		return fmt.Errorf("replace at %d of %d: %w", pos, len(tx.s.order), ErrInvalidIndex)
	}
	oldID := tx.s.order[pos]
	newID := item.Key()
	if newID != oldID {
		if _, ok := tx.s.items[newID]; ok {
			return fmt.Errorf("replace at %d with id %d: %w", pos, newID, ErrDuplicateID)
		}
		delete(tx.s.items, oldID)
		tx.s.order[pos] = newID
	}
	tx.s.items[newID] = item
	return nil
}

// Append adds item at the end. An item whose ID is already present
// overwrites the existing entity in place instead.
func (tx *Txn[T]) Append(item T) {
	id := item.Key()
	if _, ok := tx.s.items[id]; !ok {
		tx.s.order = append(tx.s.order, id)
	}
	tx.s.items[id] = item
}

// Each calls fn for every entity in order until fn returns false.
func (tx *Txn[T]) Each(fn func(pos int, item T) bool) {
	for i, id := range tx.s.order {
		if !fn(i, tx.s.items[id]) {
			return
		}
	}
}

// SortFunc reorders the entities with cmp, stable for equal elements.
func (tx *Txn[T]) SortFunc(cmp func(a, b T) int) {
	items := tx.s.items
	slices.SortStableFunc(tx.s.order, func(a, b int64) int { return cmp(items[a], items[b]) })
}

// Reset replaces the whole collection.
func (tx *Txn[T]) Reset(items []T) {
	fresh := NewStore(items)
	tx.s.items = fresh.items
	tx.s.order = fresh.order
}

func position(order []int64, id int64) (int, bool) {
	for i, v := range order {
		if v == id {
			return i, true
		}
	}
	return 0, false
}

// Package form holds the proposal draft state: generic dynamic list stores
// with stable row keys, the budget ledger, and the step-wise validation
// machine. All mutations on a draft must be serialized by a single writer
// (the owning session); the types here do no locking of their own.
package form

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Row is one entry in a List. Key is assigned once at creation and never
// regenerated, so removals elsewhere in the list can never misattribute
// in-flight edits.
type Row[T any] struct {
	Key  string `json:"key"`
	Data T      `json:"data"`
}

// List is an ordered collection with stable UUID keys. Insertion order is
// significant and survives any sequence of Add/Remove/Update.
type List[T any] struct {
	rows  []Row[T]
	index map[string]int
}

// NewList returns an empty list.
func NewList[T any]() *List[T] {
	return &List[T]{index: make(map[string]int)}
}

// Add appends a new row and returns its key. Keys are UUIDs, not wall-clock
// derived, so two rows added within the same tick still get distinct keys.
func (l *List[T]) Add(data T) string {
	key := uuid.NewString()
	l.index[key] = len(l.rows)
	l.rows = append(l.rows, Row[T]{Key: key, Data: data})
	return key
}

// Remove deletes the row with the given key. Absent keys are a no-op.
// Remaining rows keep their keys and relative order.
func (l *List[T]) Remove(key string) {
	i, ok := l.index[key]
	if !ok {
		return
	}
	l.rows = append(l.rows[:i], l.rows[i+1:]...)
	delete(l.index, key)
	for j := i; j < len(l.rows); j++ {
		l.index[l.rows[j].Key] = j
	}
}

// Update replaces the row's data with patch(old). Absent keys are a silent
// no-op: a recoverable condition, not an error. The old value is never
// mutated in place; patch receives a copy and returns the replacement.
func (l *List[T]) Update(key string, patch func(T) T) {
	i, ok := l.index[key]
	if !ok {
		return
	}
	l.rows[i] = Row[T]{Key: key, Data: patch(l.rows[i].Data)}
}

// Get returns the row data for key.
func (l *List[T]) Get(key string) (T, bool) {
	if i, ok := l.index[key]; ok {
		return l.rows[i].Data, true
	}
	var zero T
	return zero, false
}

// Rows returns a copy of the rows in insertion order.
func (l *List[T]) Rows() []Row[T] {
	out := make([]Row[T], len(l.rows))
	copy(out, l.rows)
	return out
}

// Len returns the number of rows.
func (l *List[T]) Len() int {
	return len(l.rows)
}

// MarshalJSON serializes the rows in insertion order.
func (l *List[T]) MarshalJSON() ([]byte, error) {
	if l == nil || l.rows == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.rows)
}

// UnmarshalJSON restores rows and rebuilds the key index. Used when a
// persisted draft is reloaded.
func (l *List[T]) UnmarshalJSON(b []byte) error {
	var rows []Row[T]
	if err := json.Unmarshal(b, &rows); err != nil {
		return err
	}
	l.rows = rows
	l.index = make(map[string]int, len(rows))
	for i, r := range rows {
		l.index[r.Key] = i
	}
	return nil
}

// Package draftstore persists form drafts to disk so a proposal in progress
// survives a process restart. Drafts are JSON blobs keyed by session ID in a
// diskv store; losing one is an inconvenience, not a failure, so callers
// treat write errors as warnings.
package draftstore

import (
	"encoding/json"
	"fmt"

	"github.com/peterbourgon/diskv/v3"
)

// Store wraps a diskv keyspace of serialized drafts.
type Store struct {
	d *diskv.Diskv
}

// Open creates (or reopens) a draft store rooted at dir.
func Open(dir string) *Store {
	return &Store{d: diskv.New(diskv.Options{
		BasePath:     dir,
		CacheSizeMax: 1024 * 1024, // 1MB
	})}
}

// Save serializes v under the given ID, overwriting any previous draft.
func (s *Store) Save(id string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode draft %s: %w", id, err)
	}
	if err := s.d.Write(id, b); err != nil {
		return fmt.Errorf("write draft %s: %w", id, err)
	}
	return nil
}

// Load reads the draft stored under ID into v.
func (s *Store) Load(id string, v any) error {
	b, err := s.d.Read(id)
	if err != nil {
		return fmt.Errorf("read draft %s: %w", id, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode draft %s: %w", id, err)
	}
	return nil
}

// Delete removes a draft; absent IDs are not an error.
func (s *Store) Delete(id string) error {
	if !s.d.Has(id) {
		return nil
	}
	return s.d.Erase(id)
}

// Keys lists the IDs of every persisted draft.
func (s *Store) Keys() []string {
	var out []string
	for key := range s.d.Keys(nil) {
		out = append(out, key)
	}
	return out
}

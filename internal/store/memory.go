package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MemoryStore keeps records in process memory. Writers are serialized and
// buffer their writes in an overlay that is applied only on success.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string][]byte)}
}

func (s *MemoryStore) Update(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{base: s.records, writes: make(map[string][]byte), writable: true}
	if err := fn(tx); err != nil {
		return err
	}
	for k, v := range tx.writes {
		if v == nil {
			delete(s.records, k)
			continue
		}
		s.records[k] = v
	}
	return nil
}

func (s *MemoryStore) View(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&memTx{base: s.records})
}

// Len reports the number of committed records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

type memTx struct {
	base     map[string][]byte
	writes   map[string][]byte // nil value marks a delete
	writable bool
}

func (t *memTx) Get(key string) ([]byte, bool, error) {
	if v, ok := t.writes[key]; ok {
		if v == nil {
			return nil, false, nil
		}
		return clone(v), true, nil
	}
	v, ok := t.base[key]
	if !ok {
		return nil, false, nil
	}
	return clone(v), true, nil
}

func (t *memTx) Put(key string, value []byte) error {
	if !t.writable {
		return fmt.Errorf("put %s: read-only transaction", key)
	}
	if value == nil {
		value = []byte{}
	}
	t.writes[key] = clone(value)
	return nil
}

func (t *memTx) Delete(key string) error {
	if !t.writable {
		return fmt.Errorf("delete %s: read-only transaction", key)
	}
	t.writes[key] = nil
	return nil
}

func (t *memTx) Scan(prefix string, fn func(key string, value []byte) error) error {
	keys := make([]string, 0)
	seen := make(map[string]struct{})
	for k := range t.base {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
			seen[k] = struct{}{}
		}
	}
	for k := range t.writes {
		if _, ok := seen[k]; !ok && strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		v, ok, _ := t.Get(k)
		if !ok {
			continue
		}
		if err := fn(k, v); err != nil {
			return err
		}
	}
	return nil
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

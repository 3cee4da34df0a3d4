// Package store is the keyed record store every ledger and trading
// operation runs against. An Update either commits all of its writes or
// none of them.
package store

import (
	"context"
	"encoding/json"
	"fmt"
)

type Store interface {
	// Update runs fn in a read-write transaction. Any error returned by fn
	// discards every write made through tx.
	Update(ctx context.Context, fn func(tx Tx) error) error
	// View runs fn in a read-only transaction.
	View(ctx context.Context, fn func(tx Tx) error) error
}

type Tx interface {
	Get(key string) ([]byte, bool, error)
	Put(key string, value []byte) error
	Delete(key string) error
	// Scan visits every key with the given prefix in ascending key order.
	Scan(prefix string, fn func(key string, value []byte) error) error
}

// GetJSON loads key into v and reports whether it existed.
func GetJSON(tx Tx, key string, v any) (bool, error) {
	raw, ok, err := tx.Get(key)
	if err != nil || !ok {
		return ok, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func PutJSON(tx Tx, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return tx.Put(key, raw)
}

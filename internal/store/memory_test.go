package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	N uint64 `json:"n"`
}

func TestMemoryStoreCommitsOnSuccess(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Update(ctx, func(tx Tx) error {
		return PutJSON(tx, "a/1", record{N: 7})
	}))

	var got record
	require.NoError(t, s.View(ctx, func(tx Tx) error {
		ok, err := GetJSON(tx, "a/1", &got)
		assert.True(t, ok)
		return err
	}))
	assert.Equal(t, uint64(7), got.N)
}

func TestMemoryStoreDiscardsOnError(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Update(ctx, func(tx Tx) error {
		return PutJSON(tx, "a/1", record{N: 1})
	}))

	boom := errors.New("boom")
	err := s.Update(ctx, func(tx Tx) error {
		if err := PutJSON(tx, "a/1", record{N: 2}); err != nil {
			return err
		}
		if err := PutJSON(tx, "a/2", record{N: 3}); err != nil {
			return err
		}
		if err := tx.Delete("a/1"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, s.Len())

	var got record
	_ = s.View(ctx, func(tx Tx) error {
		_, err := GetJSON(tx, "a/1", &got)
		return err
	})
	assert.Equal(t, uint64(1), got.N)
}

func TestMemoryStoreReadYourWritesAndScan(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Update(ctx, func(tx Tx) error {
		_ = tx.Put("p/b", []byte(`{"n":2}`))
		_ = tx.Put("p/a", []byte(`{"n":1}`))
		return tx.Put("q/a", []byte(`{"n":9}`))
	}))

	require.NoError(t, s.Update(ctx, func(tx Tx) error {
		_ = tx.Put("p/c", []byte(`{"n":3}`))
		_ = tx.Delete("p/a")

		var keys []string
		err := tx.Scan("p/", func(k string, _ []byte) error {
			keys = append(keys, k)
			return nil
		})
		assert.Equal(t, []string{"p/b", "p/c"}, keys)
		return err
	}))
}

func TestMemoryStoreViewIsReadOnly(t *testing.T) {
	s := NewMemoryStore()
	err := s.View(context.Background(), func(tx Tx) error {
		return tx.Put("x", []byte("1"))
	})
	assert.Error(t, err)
}

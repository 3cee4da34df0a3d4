package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/GoPolymarket/premarket/internal/store"
)

// PostgresStore keeps ledger and trading records in one key/value table.
// Every Update is a SERIALIZABLE transaction and reads lock their rows.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) (*PostgresStore, error) {
	s := &PostgresStore{db: db}
	if err := s.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) Update(ctx context.Context, fn func(tx store.Tx) error) error {
	return s.run(ctx, false, fn)
}

func (s *PostgresStore) View(ctx context.Context, fn func(tx store.Tx) error) error {
	return s.run(ctx, true, fn)
}

func (s *PostgresStore) run(ctx context.Context, readOnly bool, fn func(tx store.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable, ReadOnly: readOnly})
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(&pgTx{ctx: ctx, tx: tx, readOnly: readOnly}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS ledger_records (
			key TEXT PRIMARY KEY,
			value BYTEA NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	return err
}

type pgTx struct {
	ctx      context.Context
	tx       *sqlx.Tx
	readOnly bool
}

func (t *pgTx) Get(key string) ([]byte, bool, error) {
	query := `SELECT value FROM ledger_records WHERE key = $1`
	if !t.readOnly {
		query += ` FOR UPDATE`
	}
	var value []byte
	err := t.tx.QueryRowxContext(t.ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

func (t *pgTx) Put(key string, value []byte) error {
	if t.readOnly {
		return fmt.Errorf("put %s: read-only transaction", key)
	}
	if value == nil {
		value = []byte{}
	}
	_, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO ledger_records (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`, key, value)
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (t *pgTx) Delete(key string) error {
	if t.readOnly {
		return fmt.Errorf("delete %s: read-only transaction", key)
	}
	_, err := t.tx.ExecContext(t.ctx, `DELETE FROM ledger_records WHERE key = $1`, key)
	return err
}

func (t *pgTx) Scan(prefix string, fn func(key string, value []byte) error) error {
	type row struct {
		Key   string `db:"key"`
		Value []byte `db:"value"`
	}
	// Rows are fetched up front so fn may issue its own queries on the transaction.
	var rows []row
	err := t.tx.SelectContext(t.ctx, &rows, `
		SELECT key, value FROM ledger_records
		WHERE key LIKE $1 ESCAPE '\'
		ORDER BY key COLLATE "C"
	`, likePrefix(prefix))
	if err != nil {
		return fmt.Errorf("scan %s: %w", prefix, err)
	}
	for _, r := range rows {
		if err := fn(r.Key, r.Value); err != nil {
			return err
		}
	}
	return nil
}

func likePrefix(prefix string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(prefix) + "%"
}

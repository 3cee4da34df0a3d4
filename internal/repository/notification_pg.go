package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jmoiron/sqlx"

	"github.com/GoPolymarket/premarket/internal/model"
)

type PostgresNotificationRepo struct {
	db *sqlx.DB
}

func NewPostgresNotificationRepo(db *sqlx.DB) *PostgresNotificationRepo {
	repo := &PostgresNotificationRepo{db: db}
	_ = repo.ensureSchema(context.Background())
	return repo
}

func (r *PostgresNotificationRepo) Insert(ctx context.Context, n *model.Notification) error {
	if n == nil {
		return nil
	}
	fields, err := json.Marshal(n.Fields)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO notifications (id, module, operation, fields, created_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO NOTHING
	`, n.ID, n.Module.Hex(), n.Operation, fields, n.CreatedAt)
	return err
}

func (r *PostgresNotificationRepo) List(ctx context.Context, filter model.NotificationFilter) ([]*model.Notification, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	query := `SELECT id, module, operation, fields, created_at FROM notifications`
	clauses := []string{}
	args := []interface{}{}
	idx := 1

	if filter.Module != nil {
		clauses = append(clauses, fmt.Sprintf("module = $%d", idx))
		args = append(args, filter.Module.Hex())
		idx++
	}
	if filter.Operation != "" {
		clauses = append(clauses, fmt.Sprintf("operation = $%d", idx))
		args = append(args, filter.Operation)
		idx++
	}
	if filter.From != nil {
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", idx))
		args = append(args, *filter.From)
		idx++
	}
	if filter.To != nil {
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", idx))
		args = append(args, *filter.To)
		idx++
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", idx)
	args = append(args, limit)

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*model.Notification, 0, limit)
	for rows.Next() {
		var (
			n      model.Notification
			module string
			fields []byte
		)
		if err := rows.Scan(&n.ID, &module, &n.Operation, &fields, &n.CreatedAt); err != nil {
			return nil, err
		}
		n.Module = common.HexToAddress(module)
		n.Fields = model.Fields{}
		if len(fields) > 0 {
			_ = json.Unmarshal(fields, &n.Fields)
		}
		out = append(out, &n)
	}
	return out, rows.Err()
}

func (r *PostgresNotificationRepo) ensureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS notifications (
			id TEXT PRIMARY KEY,
			module TEXT NOT NULL,
			operation TEXT NOT NULL,
			fields JSONB,
			created_at TIMESTAMPTZ NOT NULL
		)
	`)
	if err != nil {
		return err
	}
	_, _ = r.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_notifications_op ON notifications(operation, created_at DESC)`)
	return nil
}

func (r *PostgresNotificationRepo) Cleanup(ctx context.Context, olderThan time.Duration) error {
	if olderThan <= 0 {
		return nil
	}
	cutoff := time.Now().UTC().Add(-olderThan)
	_, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE created_at < $1`, cutoff)
	return err
}

package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	e "nuclight.org/relay-tg-bot/pkg/entities"
)

// SQLite is a block list store backed by a sqlite database.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(ctx context.Context, filePath string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", filePath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite3 database: %w", err)
	}

	client := &SQLite{
		db: db,
	}

	err = client.init(ctx)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing sqlite3 database: %w", err)
	}

	return client, nil
}

func (c *SQLite) Close() error {
	return c.db.Close()
}

func (c *SQLite) Load(ctx context.Context) ([]e.Identity, error) {
	rows, err := c.db.QueryContext(ctx, "SELECT user_id FROM blocked_users ORDER BY user_id")
	if err != nil {
		return nil, fmt.Errorf("selecting blocked users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []e.Identity
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning blocked user: %w", err)
		}
		ids = append(ids, e.Identity(id))
	}

	return ids, rows.Err()
}

// Save replaces the stored set with ids in a single transaction.
func (c *SQLite) Save(ctx context.Context, ids []e.Identity) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	keep := make(map[e.Identity]struct{}, len(ids))
	for _, id := range ids {
		keep[id] = struct{}{}

		_, err = tx.ExecContext(
			ctx,
			`INSERT INTO blocked_users (user_id, created_at)
				VALUES (?, CURRENT_TIMESTAMP)
				ON CONFLICT(user_id) DO NOTHING`,
			int64(id),
		)
		if err != nil {
			return fmt.Errorf("inserting blocked user: %w", err)
		}
	}

	stored, err := selectIDs(ctx, tx)
	if err != nil {
		return err
	}

	for _, id := range stored {
		if _, ok := keep[id]; ok {
			continue
		}

		_, err = tx.ExecContext(ctx, "DELETE FROM blocked_users WHERE user_id = ?", int64(id))
		if err != nil {
			return fmt.Errorf("deleting blocked user: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func selectIDs(ctx context.Context, tx *sql.Tx) ([]e.Identity, error) {
	rows, err := tx.QueryContext(ctx, "SELECT user_id FROM blocked_users")
	if err != nil {
		return nil, fmt.Errorf("selecting blocked users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []e.Identity
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning blocked user: %w", err)
		}
		ids = append(ids, e.Identity(id))
	}

	return ids, rows.Err()
}

//go:embed init.sql
var initQuery string

func (c *SQLite) init(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, initQuery)
	return err
}

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fluxorio/todolist/pkg/db"
	"github.com/fluxorio/todolist/pkg/models"
	_ "github.com/mattn/go-sqlite3"
)

const (
	sqliteSchema = `CREATE TABLE IF NOT EXISTS todos (
	position    INTEGER NOT NULL,
	id          TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	description TEXT NOT NULL,
	completed   INTEGER NOT NULL
)`
	sqliteTableExists = `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'todos'`
	sqliteSelectAll   = `SELECT id, title, description, completed FROM todos ORDER BY position`
	sqliteDeleteAll   = `DELETE FROM todos`
	sqliteInsert      = `INSERT INTO todos (position, id, title, description, completed) VALUES (?, ?, ?, ?, ?)`
)

// SQLitePersister mirrors the collection into a SQLite table.
// Save replaces every row in one transaction; position keeps collection order.
type SQLitePersister struct {
	pool *db.Pool
}

// NewSQLitePersister opens (or creates) the database at path.
func NewSQLitePersister(path string) (*SQLitePersister, error) {
	pool, err := db.NewPool(db.SingleWriterPoolConfig(path, "sqlite3"))
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	return &SQLitePersister{pool: pool}, nil
}

// Load returns the rows in position order, or ErrNoSnapshot if the table
// has never been written.
func (p *SQLitePersister) Load(ctx context.Context) ([]models.Todo, error) {
	var tables int
	if err := p.pool.DB().QueryRowContext(ctx, sqliteTableExists).Scan(&tables); err != nil {
		return nil, fmt.Errorf("inspect schema: %w", err)
	}
	if tables == 0 {
		return nil, ErrNoSnapshot
	}

	rows, err := p.pool.DB().QueryContext(ctx, sqliteSelectAll)
	if err != nil {
		return nil, fmt.Errorf("query todos: %w", err)
	}
	defer rows.Close()

	todos := []models.Todo{}
	for rows.Next() {
		var t models.Todo
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Completed); err != nil {
			return nil, fmt.Errorf("scan todo: %w", err)
		}
		todos = append(todos, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate todos: %w", err)
	}
	return todos, nil
}

// Save replaces the table contents with todos.
func (p *SQLitePersister) Save(ctx context.Context, todos []models.Todo) error {
	return p.pool.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, sqliteSchema); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		if _, err := tx.ExecContext(ctx, sqliteDeleteAll); err != nil {
			return fmt.Errorf("clear todos: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx, sqliteInsert)
		if err != nil {
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer stmt.Close()

		for i, t := range todos {
			if _, err := stmt.ExecContext(ctx, i, t.ID, t.Title, t.Description, t.Completed); err != nil {
				return fmt.Errorf("insert todo %s: %w", t.ID, err)
			}
		}
		return nil
	})
}

// Pool exposes the connection pool, e.g. for pool statistics.
func (p *SQLitePersister) Pool() *db.Pool {
	return p.pool
}

// Close closes the underlying pool.
func (p *SQLitePersister) Close() error {
	return p.pool.Close()
}

package sqlxdb

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/censo/core"
)

type entry struct {
	Key       string    `db:"entry_key"`
	Value     string    `db:"entry_value"`
	UpdatedAt time.Time `db:"updated_at"`
}

// DB stores the key-value entries in the kv_entries table (see storage/database migrations).
type DB struct {
	db     *sqlx.DB
	driver string
}

var _ core.KVStore = (*DB)(nil)

func New(db *sqlx.DB) *DB {
	return &DB{db: db, driver: db.DriverName()}
}

func (kv *DB) Get(ctx context.Context, key string) ([]byte, error) {
	var e entry
	q := kv.db.Rebind(`SELECT entry_key, entry_value, updated_at FROM kv_entries WHERE entry_key = ?`)
	if err := kv.db.GetContext(ctx, &e, q, key); err != nil {
		if err == sql.ErrNoRows {
			return nil, core.ErrKeyNotFound
		}
		return nil, errors.Wrap(err, "selecting entry")
	}
	return []byte(e.Value), nil
}

func (kv *DB) Set(ctx context.Context, key string, value []byte) error {
	return kv.upsert(ctx, kv.db, key, value)
}

// Update runs fn inside a transaction holding a lock on the entry.
func (kv *DB) Update(ctx context.Context, key string, fn func(current []byte) ([]byte, error)) error {
	tx, err := kv.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	q := `SELECT entry_value FROM kv_entries WHERE entry_key = ?`
	if kv.driver == "postgres" {
		// make sure the row exists so FOR UPDATE has something to lock
		ins := `INSERT INTO kv_entries (entry_key, entry_value, updated_at) VALUES ($1, '', $2) ON CONFLICT (entry_key) DO NOTHING`
		if _, err := tx.ExecContext(ctx, ins, key, time.Now().UTC()); err != nil {
			return errors.Wrap(err, "reserving entry")
		}
		q += " FOR UPDATE"
	}

	var current []byte
	var value string
	switch err := tx.GetContext(ctx, &value, tx.Rebind(q), key); {
	case err == sql.ErrNoRows:
	case err != nil:
		return errors.Wrap(err, "selecting entry")
	case value != "":
		current = []byte(value)
	}

	next, err := fn(current)
	if err != nil {
		return err
	}
	if err := kv.upsert(ctx, tx, key, next); err != nil {
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

func (kv *DB) upsert(ctx context.Context, ext sqlx.ExtContext, key string, value []byte) error {
	q := ext.Rebind(`INSERT INTO kv_entries (entry_key, entry_value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (entry_key) DO UPDATE SET entry_value = excluded.entry_value, updated_at = excluded.updated_at`)
	if _, err := ext.ExecContext(ctx, q, key, string(value), time.Now().UTC()); err != nil {
		return errors.Wrap(err, "saving entry")
	}
	return nil
}

func (kv *DB) Close() error {
	return kv.db.Close()
}

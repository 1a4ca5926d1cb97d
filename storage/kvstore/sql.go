package kvstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/bolsa/core"
)

// SQLStore keeps values in the kv_store table.
type SQLStore struct {
	db *sqlx.DB
}

var _ core.KVStore = (*SQLStore)(nil)

func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Get(ctx context.Context, key string) (string, bool, error) {
	var val string
	err := s.db.GetContext(ctx, &val, s.db.Rebind(`SELECT value FROM kv_store WHERE key = ?`), key)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "selecting key %s", key)
	}
	return val, true, nil
}

func (s *SQLStore) Set(ctx context.Context, key, value string) error {
	q := s.db.Rebind(`
		INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`)
	_, err := s.db.ExecContext(ctx, q, key, value, time.Now().UTC())
	return errors.Wrapf(err, "upserting key %s", key)
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(`DELETE FROM kv_store WHERE key = ?`), key)
	return errors.Wrapf(err, "deleting key %s", key)
}

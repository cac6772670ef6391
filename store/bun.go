// Package store provides durable Storage backends: a bun/SQLite keyring
// for desktop and CLI hosts, and a Redis keyring for server-hosted
// sessions.
package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	goerrors "github.com/goliatone/go-errors"
	authclient "github.com/hemolink/go-auth-client"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// KeyringItem is a single persisted session value.
type KeyringItem struct {
	bun.BaseModel `bun:"table:auth_keyring,alias:akr"`
	Key           string    `bun:"key,pk" json:"key"`
	Value         string    `bun:"value,notnull" json:"value"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at"`
}

// BunStore persists session keys in a SQLite keyring table.
type BunStore struct {
	db *bun.DB
}

var _ authclient.Storage = (*BunStore)(nil)

// OpenSQLite opens (or creates) a SQLite database at path. Use
// "file::memory:?cache=shared" for an in-memory keyring.
func OpenSQLite(path string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, path)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to open sqlite database")
	}

	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

// NewBunStore wraps an existing bun DB.
func NewBunStore(db *bun.DB) *BunStore {
	return &BunStore{db: db}
}

// Init creates the keyring table if it does not exist.
func (s *BunStore) Init(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*KeyringItem)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create keyring table")
	}
	return nil
}

func (s *BunStore) Get(ctx context.Context, key string) (string, error) {
	item := &KeyringItem{}
	err := s.db.NewSelect().
		Model(item).
		Where("key = ?", key).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", authclient.ErrKeyNotFound
		}
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "keyring read failed")
	}

	return item.Value, nil
}

func (s *BunStore) Set(ctx context.Context, key, value string) error {
	item := &KeyringItem{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now(),
	}

	_, err := s.db.NewInsert().
		Model(item).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "keyring write failed")
	}

	return nil
}

func (s *BunStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	_, err := s.db.NewDelete().
		Model((*KeyringItem)(nil)).
		Where("key IN (?)", bun.In(keys)).
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "keyring delete failed")
	}

	return nil
}

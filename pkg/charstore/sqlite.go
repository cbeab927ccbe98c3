package charstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jbkun069/AnimeChatCraft/pkg/apperr"
	"github.com/jbkun069/AnimeChatCraft/pkg/character"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
	create table if not exists characters (
		char_key   text primary key,
		data       text not null,
		updated_at integer not null
	)
`

var _ Store = &SQLiteStore{}

// SQLiteStore keeps the same JSON documents as FileStore, one row per key.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db %s: %w", dbPath, err)
	}

	// a single connection serializes writers and keeps :memory: databases shared
	db.SetMaxOpenConns(1)

	if _, err = db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create characters table: %w", err)
	}

	return &SQLiteStore{
		db: db,
	}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Save(ctx context.Context, c *character.Character) (key string, err error) {
	defer func() { observe(BackendSQLite, "save", err) }()

	if err = c.Validate(); err != nil {
		return "", err
	}

	key, err = Key(c.Name)
	if err != nil {
		return "", err
	}

	data, err := c.ToJSON()
	if err != nil {
		return "", apperr.Wrap(apperr.CodeStoreWrite, err, "failed to encode character")
	}

	_, err = s.db.ExecContext(ctx, `
		insert into characters (char_key, data, updated_at)
		values (?, ?, ?)
		on conflict (char_key) do update set
			data = excluded.data,
			updated_at = excluded.updated_at
	`, key, string(data), time.Now().UnixMilli())
	if err != nil {
		return "", apperr.Wrap(apperr.CodeStoreWrite, err, "failed to upsert character")
	}

	return key, nil
}

func (s *SQLiteStore) Load(ctx context.Context, name string) (c *character.Character, err error) {
	defer func() { observe(BackendSQLite, "load", err) }()

	key, err := Key(name)
	if err != nil {
		return nil, err
	}

	var data string
	err = s.db.QueryRowContext(ctx, `
		select
			data
		from characters
		where
			char_key = ?
	`, key).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.Wrap(apperr.CodeNotFound, err, fmt.Sprintf("Character '%s' not found.", name))
		}

		return nil, apperr.Wrap(apperr.CodeStoreRead, err, "failed to query character")
	}

	c, err = character.FromJSON([]byte(data))
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeStoreRead, err, "failed to decode character")
	}

	return c, nil
}

func (s *SQLiteStore) List(ctx context.Context) (names []string, err error) {
	defer func() { observe(BackendSQLite, "list", err) }()

	rows, err := s.db.QueryContext(ctx, `select char_key from characters order by char_key`)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeStoreRead, err, "failed to list characters")
	}
	defer rows.Close()

	names = []string{}
	for rows.Next() {
		var key string
		if err = rows.Scan(&key); err != nil {
			return nil, apperr.Wrap(apperr.CodeStoreRead, err, "failed to scan character key")
		}

		names = append(names, key)
	}

	if err = rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.CodeStoreRead, err, "failed to iterate characters")
	}

	return names, nil
}

package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	_ "modernc.org/sqlite"
)

type SQLConfig struct {
	DSN        string `envconfig:"DSN" split_words:"true"`
	SQLitePath string `envconfig:"SQLITE_PATH" split_words:"true" default:"data/fincoach.db"`
}

type memoryRecord struct {
	bun.BaseModel `bun:"table:memory_records"`

	Name      string    `bun:"name,pk"`
	Payload   string    `bun:"payload,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// BunStore persists records as rows of memory_records.
type BunStore struct {
	db  *bun.DB
	now func() time.Time
}

var _ RecordStore = (*BunStore)(nil)

// NewPostgresDB opens a bun handle over pgdriver.
func NewPostgresDB(cfg SQLConfig) (*bun.DB, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("database dsn is required")
	}
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New()), nil
}

// NewSQLiteDB opens a bun handle over a modernc sqlite file.
func NewSQLiteDB(cfg SQLConfig) (*bun.DB, error) {
	path := strings.TrimSpace(cfg.SQLitePath)
	if path == "" {
		return nil, errors.New("database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	sqldb, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	sqldb.SetMaxOpenConns(1)
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

// NewBunStore creates the records table when missing.
func NewBunStore(ctx context.Context, db *bun.DB) (*BunStore, error) {
	if db == nil {
		return nil, errors.New("nil bun db")
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.NewCreateTable().
		Model((*memoryRecord)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return nil, fmt.Errorf("create memory_records: %w", err)
	}
	return &BunStore{db: db, now: time.Now}, nil
}

func (s *BunStore) Load(ctx context.Context, name string) ([]byte, error) {
	key, err := validName(name)
	if err != nil {
		return nil, err
	}

	var rec memoryRecord
	err = s.db.NewSelect().
		Model(&rec).
		Where("name = ?", key).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select record %s: %w", key, err)
	}
	return []byte(rec.Payload), nil
}

func (s *BunStore) Save(ctx context.Context, name string, payload []byte) error {
	key, err := validName(name)
	if err != nil {
		return err
	}

	rec := &memoryRecord{
		Name:      key,
		Payload:   string(payload),
		UpdatedAt: s.now().UTC(),
	}
	if _, err := s.db.NewInsert().
		Model(rec).
		On("CONFLICT (name) DO UPDATE").
		Set("payload = EXCLUDED.payload").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx); err != nil {
		return fmt.Errorf("upsert record %s: %w", key, err)
	}
	return nil
}

func (s *BunStore) Delete(ctx context.Context, name string) error {
	key, err := validName(name)
	if err != nil {
		return err
	}
	if _, err := s.db.NewDelete().
		Model((*memoryRecord)(nil)).
		Where("name = ?", key).
		Exec(ctx); err != nil {
		return fmt.Errorf("delete record %s: %w", key, err)
	}
	return nil
}

func (s *BunStore) Close() error {
	return s.db.Close()
}

package state

import (
	"context"
	"fmt"
	"strings"
)

type Backend string

const (
	BackendFile     Backend = "file"
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
	BackendUpstash  Backend = "upstash"
	BackendMemory   Backend = "memory"
)

// OpenOptions selects and configures a RecordStore. Only the section that
// matches Backend is read.
type OpenOptions struct {
	Backend Backend
	DataDir string
	SQL     SQLConfig
	Upstash UpstashRedisConfig
}

// Open builds the store for opts.Backend. The returned close func is never
// nil.
func Open(ctx context.Context, opts OpenOptions) (RecordStore, func() error, error) {
	noop := func() error { return nil }

	switch Backend(strings.ToLower(strings.TrimSpace(string(opts.Backend)))) {
	case BackendFile, "":
		s, err := NewFileStore(opts.DataDir)
		if err != nil {
			return nil, noop, err
		}
		return s, noop, nil
	case BackendMemory:
		return NewMemoryStore(), noop, nil
	case BackendUpstash:
		s, err := NewUpstashRedisStore(opts.Upstash)
		if err != nil {
			return nil, noop, err
		}
		return s, noop, nil
	case BackendSQLite:
		db, err := NewSQLiteDB(opts.SQL)
		if err != nil {
			return nil, noop, err
		}
		s, err := NewBunStore(ctx, db)
		if err != nil {
			db.Close()
			return nil, noop, err
		}
		return s, s.Close, nil
	case BackendPostgres:
		db, err := NewPostgresDB(opts.SQL)
		if err != nil {
			return nil, noop, err
		}
		s, err := NewBunStore(ctx, db)
		if err != nil {
			db.Close()
			return nil, noop, err
		}
		return s, s.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}

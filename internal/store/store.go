package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// ErrNotFound is returned by single-row reads when nothing matches.
var ErrNotFound = errors.New("not found")

// pragmas every harvest log connection runs with. WAL lets `harvest history`
// read while `harvest serve` is writing.
var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA busy_timeout = 5000",
	"PRAGMA foreign_keys = ON",
}

// migration upgrades a log written by an older build. Index i moves the
// database from user_version i to i+1.
type migration struct {
	name string
	stmt string
}

var migrations = []migration{
	{
		name: "position index",
		stmt: `CREATE INDEX IF NOT EXISTS idx_interactions_position
			ON interactions(world, x, y, z)`,
	},
	{
		name: "actor index",
		stmt: `CREATE INDEX IF NOT EXISTS idx_interactions_actor
			ON interactions(actor, seq)`,
	},
}

var currentSchemaVersion = len(migrations)

// Store is the harvest log: one row per dispatched interaction plus every
// catalog the interactions were decided against.
type Store struct {
	db *sql.DB
}

// Open creates or opens the harvest log at path and brings its schema up to
// date. Opening an existing log is a no-op apart from pending migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open harvest log: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open harvest log %s: %w", path, err)
	}

	// one writer; the dispatcher is the only one
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("open harvest log: %q: %w", p, err)
		}
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("open harvest log: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the connection. Safe on a zero Store.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func migrate(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("schema: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	for v := version; v < len(migrations); v++ {
		m := migrations[v]
		if _, err := db.Exec(m.stmt); err != nil {
			return fmt.Errorf("migration %d (%s): %w", v+1, m.name, err)
		}
	}

	if version < currentSchemaVersion {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
			return fmt.Errorf("write user_version: %w", err)
		}
	}
	return nil
}

// pragma reads a single pragma value.
func (s *Store) pragma(name string) (string, error) {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return "", fmt.Errorf("pragma %s: %w", name, err)
	}
	return value, nil
}

package badger

import (
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"

	"github.com/amiyamandal-dev/topalbums/internal/domain"
)

// schemaVersion is bumped whenever the key layout or value encoding changes
const schemaVersion = "1"

var schemaKey = []byte("meta:schema_version")

// DB wraps BadgerDB for the local feed cache
type DB struct {
	*badger.DB
}

// New opens (creating if needed) a BadgerDB instance at dbPath and checks
// its schema version
func New(dbPath string) (*DB, error) {
	if err := os.MkdirAll(dbPath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create badger directory: %w", err)
	}

	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // Disable badger's logger

	return open(opts)
}

// NewInMemory opens a BadgerDB instance that lives only in memory
func NewInMemory() (*DB, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil

	return open(opts)
}

func open(opts badger.Options) (*DB, error) {
	bdb, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	db := &DB{DB: bdb}
	if err := db.checkSchema(); err != nil {
		bdb.Close()
		return nil, err
	}

	return db, nil
}

// checkSchema writes the schema version on first open and rejects a store
// written by a different version
func (db *DB) checkSchema() error {
	return db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(schemaKey)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return txn.Set(schemaKey, []byte(schemaVersion))
		}
		if err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}

		return item.Value(func(val []byte) error {
			if string(val) != schemaVersion {
				return fmt.Errorf("%w: found %q, want %q", domain.ErrSchemaMismatch, val, schemaVersion)
			}
			return nil
		})
	})
}

// Close closes the database
func (db *DB) Close() error {
	return db.DB.Close()
}

// HealthCheck checks if the database is healthy
func (db *DB) HealthCheck() error {
	if db.IsClosed() {
		return errors.New("badger db is closed")
	}
	return db.View(func(txn *badger.Txn) error {
		return nil
	})
}

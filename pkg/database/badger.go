package database

import (
	"fmt"

	badger "github.com/dgraph-io/badger/v3"
)

// OpenBadger opens an embedded Badger store in dir. An empty dir opens an
// in-memory store, which is what the tests use.
func OpenBadger(dir string) (*badger.DB, error) {
	opts := badger.DefaultOptions(dir).WithInMemory(dir == "").WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return db, nil
}

package repomanager

import (
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dmitrijs2005/gophdrive/internal/server/repositories/entries"
	"github.com/dmitrijs2005/gophdrive/internal/server/repositories/grants"
)

// BadgerRepositoryManager keeps metadata in an embedded BadgerDB. An empty
// path runs it fully in memory, which suits single-node setups and tests.
type BadgerRepositoryManager struct {
	db      *badger.DB
	entries *entries.BadgerRepository
	grants  *grants.BadgerRepository
}

func badgerOptions(path string) badger.Options {
	if path == "" {
		return badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}
	return badger.DefaultOptions(path).WithLogger(nil)
}

func NewBadgerRepositoryManager(path string) (*BadgerRepositoryManager, error) {
	db, err := badger.Open(badgerOptions(path))
	if err != nil {
		return nil, fmt.Errorf("badger open error: %w", err)
	}

	er, err := entries.NewBadgerRepository(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	gr, err := grants.NewBadgerRepository(db)
	if err != nil {
		_ = er.Close()
		_ = db.Close()
		return nil, err
	}

	return &BadgerRepositoryManager{db: db, entries: er, grants: gr}, nil
}

func (m *BadgerRepositoryManager) Entries() entries.Repository {
	return m.entries
}

func (m *BadgerRepositoryManager) Grants() grants.Repository {
	return m.grants
}

// Close releases the id sequences before closing the store so unused leases
// are returned.
func (m *BadgerRepositoryManager) Close() error {
	return errors.Join(m.entries.Close(), m.grants.Close(), m.db.Close())
}

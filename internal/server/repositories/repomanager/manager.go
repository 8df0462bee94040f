// Package repomanager opens the metadata store selected in config and vends
// the entry and grant repositories built on it.
package repomanager

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophdrive/internal/server/config"
	"github.com/dmitrijs2005/gophdrive/internal/server/repositories/entries"
	"github.com/dmitrijs2005/gophdrive/internal/server/repositories/grants"
)

type RepositoryManager interface {
	Entries() entries.Repository
	Grants() grants.Repository
	Close() error
}

// New opens the backend named by cfg.MetadataBackend.
func New(ctx context.Context, cfg *config.Config) (RepositoryManager, error) {
	switch cfg.MetadataBackend {
	case config.BackendPostgres:
		return NewPostgresRepositoryManager(ctx, cfg.DatabaseDSN)
	case config.BackendBadger:
		return NewBadgerRepositoryManager(cfg.BadgerPath)
	default:
		return nil, fmt.Errorf("unknown metadata backend %q", cfg.MetadataBackend)
	}
}

// Package store provides the flat collection persistence used by the bot:
// a named collection maps to one structured document, loaded and replaced
// as a whole. There are no partial updates and no transactions.
package store

import (
	"context"
	"fmt"

	"github.com/condor-estates/condorbot/config"
)

// Collection names. The document shapes are owned by the session package.
const (
	CollectionSessions = "userInfo"
	CollectionFlows    = "userStates"
	CollectionAnswers  = "questionnaireAnswer"
	CollectionIntakes  = "expertHelpInfo"
)

// Collections lists every collection the bot persists.
var Collections = []string{
	CollectionSessions,
	CollectionFlows,
	CollectionAnswers,
	CollectionIntakes,
}

// Store is the persistence boundary for whole-collection documents.
type Store interface {
	// Load decodes the collection document into v. An absent collection
	// leaves v untouched and returns nil.
	Load(ctx context.Context, collection string, v any) error
	// Save replaces the whole collection document with v.
	Save(ctx context.Context, collection string, v any) error
	Close() error
}

// Open builds the store backend selected by configuration.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case config.BackendFile:
		return NewFile(cfg.FilePath), nil
	case config.BackendPostgres:
		return OpenPostgres(ctx, cfg.Postgres)
	case config.BackendRedis:
		return OpenRedis(ctx, cfg.Redis)
	default:
		return nil, fmt.Errorf("store: unknown backend %q", cfg.Backend)
	}
}

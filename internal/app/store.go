package app

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/karlmdavis/justdavis-finances-sub001/internal/config"
	"github.com/karlmdavis/justdavis-finances-sub001/internal/ctxlog"
	"github.com/karlmdavis/justdavis-finances-sub001/internal/filestate"
	"github.com/karlmdavis/justdavis-finances-sub001/internal/inmemorystate"
	"github.com/karlmdavis/justdavis-finances-sub001/internal/sqlitestate"
	"github.com/karlmdavis/justdavis-finances-sub001/internal/statestore"
)

// sqliteFile is the database file name inside the state directory.
const sqliteFile = "state.db"

// openStore opens the change-detector state backend. The returned close
// function is never nil.
func openStore(ctx context.Context, backend, dir string) (statestore.Store, func() error, error) {
	logger := ctxlog.FromContext(ctx)
	noop := func() error { return nil }

	switch backend {
	case config.BackendMemory:
		logger.Debug("Using in-memory state store.")
		return inmemorystate.New(), noop, nil
	case config.BackendSQLite:
		path := filepath.Join(dir, sqliteFile)
		store, err := sqlitestate.Open(path)
		if err != nil {
			return nil, noop, err
		}
		logger.Debug("Using SQLite state store.", "path", path)
		return store, store.Close, nil
	case config.BackendJSON, "":
		logger.Debug("Using JSON file state store.", "dir", dir)
		return filestate.New(dir), noop, nil
	default:
		return nil, noop, fmt.Errorf("unsupported state backend %q", backend)
	}
}

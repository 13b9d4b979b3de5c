// Package filestate stores detector state as one JSON file per node.
package filestate

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/karlmdavis/justdavis-finances-sub001/internal/ctxlog"
	"github.com/karlmdavis/justdavis-finances-sub001/internal/statestore"
)

const ext = ".json"

// Store keeps records under a directory, created on first write.
type Store struct {
	dir string
}

var _ statestore.Store = (*Store)(nil)

// New returns a store rooted at dir.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir is the directory the store writes to.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the file that holds node's record. Node names are escaped,
// so any name maps to a single file inside Dir.
func (s *Store) Path(node string) string {
	return filepath.Join(s.dir, url.PathEscape(node)+ext)
}

// Save writes the record for node atomically: the JSON is written to a
// temporary file in the same directory and renamed over the old record.
func (s *Store) Save(ctx context.Context, node string, state statestore.State) error {
	if err := statestore.ValidateName(node); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	data, err := statestore.Encode(state)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, ".tmp-"+url.PathEscape(node)+"-*")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(append(data, '\n')); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp state file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path(node)); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	ctxlog.FromContext(ctx).Debug("Saved node state.", "node", node, "path", s.Path(node))
	return nil
}

// Load reads the record for node; a missing file yields an empty State.
func (s *Store) Load(_ context.Context, node string) (statestore.State, error) {
	if err := statestore.ValidateName(node); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path(node))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return statestore.State{}, nil
		}
		return nil, err
	}
	return statestore.Decode(data)
}

// Nodes lists the node names that have a record, sorted by file name.
func (s *Store) Nodes() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".tmp-") || !strings.HasSuffix(name, ext) {
			continue
		}
		node, err := url.PathUnescape(strings.TrimSuffix(name, ext))
		if err != nil {
			continue
		}
		names = append(names, node)
	}
	return names, nil
}

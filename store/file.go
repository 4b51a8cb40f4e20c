package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"log/slog"

	"github.com/condor-estates/condorbot/logger"
)

// fileStore persists every collection inside a single JSON document on disk,
// mirroring the flat data file the bot historically used. Writes replace the
// file atomically via rename.
type fileStore struct {
	mu   sync.Mutex
	path string
}

// NewFile returns a file-backed store rooted at path.
func NewFile(path string) Store {
	return &fileStore{path: path}
}

func (s *fileStore) Load(ctx context.Context, collection string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.readAll()
	if err != nil {
		return err
	}
	raw, ok := doc[collection]
	if !ok || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("store: decode collection %s: %w", collection, err)
	}
	return nil
}

func (s *fileStore) Save(ctx context.Context, collection string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.readAll()
	if err != nil {
		return err
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("store: encode collection %s: %w", collection, err)
	}
	doc[collection] = raw

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encode document: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil && filepath.Dir(s.path) != "." {
		return fmt.Errorf("store: create data dir: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("store: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("store: replace %s: %w", s.path, err)
	}
	logger.STORE.Debug("collection saved",
		slog.String("event", "collection.save"),
		slog.String("backend", "file"),
		slog.String("collection", collection),
	)
	return nil
}

func (s *fileStore) Close() error { return nil }

func (s *fileStore) readAll() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]json.RawMessage{}, nil
		}
		return nil, fmt.Errorf("store: read %s: %w", s.path, err)
	}
	doc := map[string]json.RawMessage{}
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("store: parse %s: %w", s.path, err)
	}
	return doc, nil
}

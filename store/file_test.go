package store

import (
	"context"
	"path/filepath"
	"testing"
)

func TestFileStoreRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	s := NewFile(path)
	ctx := context.Background()

	in := map[string]string{"100": "start", "200": "questionnaire"}
	if err := s.Save(ctx, CollectionSessions, in); err != nil {
		t.Fatalf("save: %v", err)
	}

	out := map[string]string{}
	if err := s.Load(ctx, CollectionSessions, &out); err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(out) != 2 || out["100"] != "start" || out["200"] != "questionnaire" {
		t.Fatalf("unexpected roundtrip result: %v", out)
	}
}

func TestFileStoreMissingCollection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	s := NewFile(path)
	ctx := context.Background()

	out := map[string]string{"keep": "me"}
	if err := s.Load(ctx, CollectionAnswers, &out); err != nil {
		t.Fatalf("load: %v", err)
	}
	if out["keep"] != "me" {
		t.Fatalf("load of absent collection must leave destination untouched, got %v", out)
	}
}

func TestFileStoreKeepsOtherCollections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	s := NewFile(path)
	ctx := context.Background()

	if err := s.Save(ctx, CollectionSessions, map[string]string{"1": "a"}); err != nil {
		t.Fatalf("save sessions: %v", err)
	}
	if err := s.Save(ctx, CollectionFlows, map[string]string{"2": "b"}); err != nil {
		t.Fatalf("save flows: %v", err)
	}

	sessions := map[string]string{}
	if err := s.Load(ctx, CollectionSessions, &sessions); err != nil {
		t.Fatalf("load sessions: %v", err)
	}
	if sessions["1"] != "a" {
		t.Fatalf("sessions collection lost after saving another collection: %v", sessions)
	}
}

func TestFileStoreReplacesCollection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	s := NewFile(path)
	ctx := context.Background()

	if err := s.Save(ctx, CollectionFlows, map[string]string{"1": "a", "2": "b"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Save(ctx, CollectionFlows, map[string]string{"3": "c"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	out := map[string]string{}
	if err := s.Load(ctx, CollectionFlows, &out); err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(out) != 1 || out["3"] != "c" {
		t.Fatalf("save must replace the whole collection, got %v", out)
	}
}

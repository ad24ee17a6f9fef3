package logging

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
)

func TestRotatingJSONLStore_Rotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shortfall.jsonl")
	store, err := NewRotatingJSONLStore(path, 1, 2, 1)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer func() { _ = store.Close() }()
	// Records of roughly 10 KB force a rotation before 200 writes.
	pad := strings.Repeat("x", 10_000)
	for i := 0; i < 200; i++ {
		if err := store.Append(context.Background(), LogRecord{RunID: pad, Timestep: i}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	files, _ := filepath.Glob(filepath.Join(dir, "shortfall*"))
	if len(files) < 2 {
		t.Fatalf("expected rotated files, got %v", files)
	}
}

func TestRotatingJSONLStore_Query(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "shortfall.jsonl")
	store, err := NewRotatingJSONLStore(path, 1, 2, 1)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer func() { _ = store.Close() }()
	for i := 0; i < 5; i++ {
		_ = store.Append(context.Background(), LogRecord{RunID: "r", Timestep: i})
	}
	out, err := store.Query(context.Background(), LogQuery{FromStep: 2})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(out) != 3 || out[0].Timestep != 2 {
		t.Fatalf("unexpected records %+v", out)
	}
}

package index

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stackguia/stackguia/internal/knowledge"
)

type fakeStore struct {
	docs []knowledge.Doc
	err  error
}

func (f *fakeStore) Add(_ context.Context, doc knowledge.Doc) error {
	if f.err != nil {
		return f.err
	}
	f.docs = append(f.docs, doc)
	return nil
}

func TestBuild_EmptyDirectory(t *testing.T) {
	b := NewBuilder(&fakeStore{}, BuilderConfig{DocsDir: t.TempDir()})

	_, err := b.Build(context.Background())
	if !errors.Is(err, ErrNoDocuments) {
		t.Errorf("Build() error = %v, want ErrNoDocuments", err)
	}
}

func TestBuild_MissingDirectory(t *testing.T) {
	b := NewBuilder(&fakeStore{}, BuilderConfig{DocsDir: "/nonexistent/docs"})

	_, err := b.Build(context.Background())
	if !errors.Is(err, ErrNoDocuments) {
		t.Errorf("Build() error = %v, want ErrNoDocuments", err)
	}
}

func TestBuild_SkipsUnreadablePDF(t *testing.T) {
	dir := t.TempDir()
	// the file matches the glob but is not a real PDF
	if err := os.WriteFile(filepath.Join(dir, "broken.pdf"), []byte("not a pdf"), 0o600); err != nil {
		t.Fatal(err)
	}

	store := &fakeStore{}
	b := NewBuilder(store, BuilderConfig{DocsDir: dir})

	_, err := b.Build(context.Background())
	if !errors.Is(err, ErrNoDocuments) {
		t.Errorf("Build() error = %v, want ErrNoDocuments after skipping", err)
	}
	if len(store.docs) != 0 {
		t.Errorf("store received %d docs, want 0", len(store.docs))
	}
}

func TestChunkID(t *testing.T) {
	a := chunkID("/docs/css.pdf", 2, 0)
	b := chunkID("/docs/css.pdf", 2, 0)
	if a != b {
		t.Error("chunkID must be deterministic")
	}

	if chunkID("/docs/css.pdf", 2, 1) == a {
		t.Error("different chunks must get different IDs")
	}
	if chunkID("/docs/css.pdf", 3, 0) == a {
		t.Error("different pages must get different IDs")
	}

	// the same file indexed from another directory keeps its IDs
	if chunkID("/elsewhere/css.pdf", 2, 0) != a {
		t.Error("chunkID must depend on the base name, not the full path")
	}
}

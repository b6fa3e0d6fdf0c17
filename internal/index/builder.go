package index

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/stackguia/stackguia/internal/knowledge"
)

// ErrNoDocuments indicates the documents directory holds no PDF files.
var ErrNoDocuments = errors.New("index: no pdf documents found")

// Store receives the chunked passages. *knowledge.Store satisfies it.
type Store interface {
	Add(ctx context.Context, doc knowledge.Doc) error
}

// Builder indexes every PDF of a directory into the passage store.
type Builder struct {
	store   Store
	docsDir string
	size    int
	overlap int
	logger  *slog.Logger
}

// BuilderConfig configures NewBuilder.
type BuilderConfig struct {
	// DocsDir is scanned non-recursively for *.pdf files.
	DocsDir string

	// ChunkSize and ChunkOverlap are in runes. Defaults 1000 and 10.
	ChunkSize    int
	ChunkOverlap int

	Logger *slog.Logger
}

// NewBuilder creates a Builder.
func NewBuilder(store Store, cfg BuilderConfig) *Builder {
	size := cfg.ChunkSize
	if size <= 0 {
		size = 1000
	}
	overlap := cfg.ChunkOverlap
	if overlap < 0 {
		overlap = 10
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Builder{
		store:   store,
		docsDir: cfg.DocsDir,
		size:    size,
		overlap: overlap,
		logger:  logger,
	}
}

// Result summarizes one indexing run.
type Result struct {
	Files    int
	Pages    int
	Passages int
}

// Build indexes all PDFs under the configured directory. Unreadable files
// are skipped with a warning; a directory without any PDF is an error so a
// misconfigured path does not silently produce an empty knowledge base.
func (b *Builder) Build(ctx context.Context) (Result, error) {
	pattern := filepath.Join(b.docsDir, "*.pdf")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return Result{}, fmt.Errorf("listing documents in %s: %w", b.docsDir, err)
	}
	if len(files) == 0 {
		return Result{}, fmt.Errorf("%w in %s", ErrNoDocuments, b.docsDir)
	}
	sort.Strings(files)

	var res Result
	for _, file := range files {
		pages, err := ExtractPages(file)
		if err != nil {
			b.logger.Warn("skipping unreadable pdf", "file", file, "error", err)
			continue
		}

		b.logger.Info("indexing document", "file", filepath.Base(file), "pages", len(pages))
		res.Files++

		for _, page := range pages {
			if err := ctx.Err(); err != nil {
				return res, fmt.Errorf("indexing interrupted: %w", err)
			}
			res.Pages++

			for i, chunk := range SplitText(page.Text, b.size, b.overlap) {
				doc := knowledge.Doc{
					ID:      chunkID(file, page.Number, i),
					Content: chunk,
					Source:  file,
					Page:    page.Number,
				}
				if err := b.store.Add(ctx, doc); err != nil {
					return res, fmt.Errorf("indexing %s page %d: %w", filepath.Base(file), page.Number+1, err)
				}
				res.Passages++
			}
		}
	}

	if res.Passages == 0 {
		return res, fmt.Errorf("%w: no text extracted in %s", ErrNoDocuments, b.docsDir)
	}

	b.logger.Info("index built",
		"files", res.Files,
		"pages", res.Pages,
		"passages", res.Passages,
	)
	return res, nil
}

// chunkID derives a stable passage ID so re-indexing the same document
// updates rows in place instead of duplicating them.
func chunkID(file string, page, chunk int) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s|%d|%d", filepath.Base(file), page, chunk))
	return hex.EncodeToString(sum[:16])
}

package rag

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/stackguia/stackguia/internal/knowledge"
)

// MaxCitations is the maximum number of citations attached to one answer.
const MaxCitations = 3

// DefaultExcerptWindow is the default excerpt width in characters.
const DefaultExcerptWindow = 240

// Citation points back to the source document and page backing an answer,
// with a short supporting excerpt. Wire keys are PT-BR for compatibility.
type Citation struct {
	Document string `json:"documento"`
	Page     int    `json:"pagina"` // 1-based for display
	Excerpt  string `json:"trecho"`
}

var (
	whitespaceRE = regexp.MustCompile(`\s+`)
	wordRE       = regexp.MustCompile(`[\p{L}\p{N}_]+`)
)

// FormatCitations converts retrieved passages into at most MaxCitations
// presentable citations, deduplicated by (document, page) with the first
// occurrence winning, in retrieval-rank order. Pure and deterministic.
func FormatCitations(passages []knowledge.Passage, query string, window int) []Citation {
	if window <= 0 {
		window = DefaultExcerptWindow
	}

	type key struct {
		doc  string
		page int
	}

	seen := make(map[key]struct{}, len(passages))
	citations := make([]Citation, 0, MaxCitations)

	for _, p := range passages {
		doc := filepath.Base(p.Source)
		page := p.Page + 1

		k := key{doc, page}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}

		citations = append(citations, Citation{
			Document: doc,
			Page:     page,
			Excerpt:  ExtractExcerpt(p.Content, query, window),
		})
		if len(citations) == MaxCitations {
			break
		}
	}

	return citations
}

// ExtractExcerpt returns a window of the normalized passage text around the
// first query term found in it.
//
// The passage text is normalized by collapsing whitespace runs and trimming.
// Query terms are words of at least 4 characters, matched case-insensitively
// in order; the window is centered on the first hit and clamped to the text
// bounds. With no hit, the excerpt is the first window characters.
// Positions and widths are measured in characters, not bytes.
func ExtractExcerpt(text, query string, window int) string {
	txt := strings.TrimSpace(whitespaceRE.ReplaceAllString(text, " "))
	runes := []rune(txt)

	pos, found := findFirstTerm(txt, query)
	if !found {
		end := min(len(runes), window)
		return string(runes[:end])
	}

	start := max(0, pos-window/2)
	end := min(len(runes), pos+window/2)
	return string(runes[start:end])
}

// findFirstTerm returns the character position of the first query term
// (length >= 4) found in txt, case-insensitively.
func findFirstTerm(txt, query string) (int, bool) {
	lower := strings.ToLower(txt)

	for _, term := range wordRE.FindAllString(query, -1) {
		if utf8.RuneCountInString(term) < 4 {
			continue
		}
		bytePos := strings.Index(lower, strings.ToLower(term))
		if bytePos < 0 {
			continue
		}
		return utf8.RuneCountInString(lower[:bytePos]), true
	}

	return 0, false
}

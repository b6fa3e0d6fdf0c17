// Package index builds the knowledge base from PDF handouts: page
// extraction, chunking and embedding into the passage store.
package index

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PageText is the extracted text of a single PDF page.
type PageText struct {
	// Number is zero-based; citations render it one-based.
	Number int
	Text   string
}

// ExtractPages reads a PDF file and returns the plain text of each page
// that has any. Pages that fail to decode are skipped rather than aborting
// the whole file; malformed pages are common in real-world PDFs.
func ExtractPages(path string) ([]PageText, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pdf %s: %w", path, err)
	}
	defer f.Close()

	total := reader.NumPage()
	pages := make([]PageText, 0, total)

	for n := 1; n <= total; n++ {
		page := reader.Page(n)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		pages = append(pages, PageText{Number: n - 1, Text: text})
	}

	return pages, nil
}

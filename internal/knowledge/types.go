package knowledge

// Doc is a passage to be indexed: one chunk of one page of one source
// document.
type Doc struct {
	ID      string // deterministic identifier, stable across re-indexing
	Content string
	Source  string // path of the source document
	Page    int    // 0-based page index within the source
}

// Passage is a retrieved chunk with its similarity score.
type Passage struct {
	ID      string
	Content string
	Source  string
	Page    int     // 0-based page index
	Score   float32 // cosine similarity in [0, 1]
}

package models

// Document is the raw text extracted from one source file, before chunking.
type Document struct {
	SourceURL string
	FilePath  string
	Format    string
	Content   string
}

// Chunk is the unit of retrieval. Chunks are immutable once created and
// Index records the chunk's position in source order.
type Chunk struct {
	Text   string
	Tokens int
	Index  int
}

// SearchMatch pairs a resolved chunk with the similarity distance reported
// by the index backend. Lower distance means more similar.
type SearchMatch struct {
	Chunk    Chunk
	Distance float32
}

// RankedChunk pairs a chunk with its lexical relevance score for one question.
type RankedChunk struct {
	Chunk Chunk
	Score float64
}

// QARequest is the bulk question-answering payload: one document, many
// questions, answered against the same per-request index.
type QARequest struct {
	Documents string   `json:"documents"`
	Questions []string `json:"questions"`
	TopK      int      `json:"top_k,omitempty"`
}

// QAResponse carries the answers in question order.
type QAResponse struct {
	Answers []string `json:"answers"`
}

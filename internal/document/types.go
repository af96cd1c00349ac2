// Package document loads study notes from disk and normalizes them into a
// common form for chunking and embedding.
package document

// Format identifies a source file type.
type Format string

const (
	FormatTXT  Format = "txt"
	FormatMD   Format = "md"
	FormatPDF  Format = "pdf"
	FormatHTML Format = "html"
)

// Document is a single loaded notes file.
type Document struct {
	ID       string            `json:"id"`     // filename, unique within a notes folder
	Path     string            `json:"path"`   // absolute or folder-relative path
	Format   Format            `json:"format"` //
	Text     string            `json:"text"`   // full extracted text
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Chunk is a piece of a document sized for embedding.
type Chunk struct {
	ID         string            `json:"id"` // "<doc-id>::chunk_<n>"
	DocumentID string            `json:"document_id"`
	Index      int               `json:"index"`
	Text       string            `json:"text"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

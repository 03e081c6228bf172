package extraction

// Extractor defines the interface for pulling text lines out of a document
type Extractor interface {
	// ExtractLines returns the document's text as an ordered, flattened
	// sequence of trimmed, non-empty lines
	ExtractLines(data []byte) ([]string, error)
	// Close closes the extractor and releases resources
	Close() error
}

package extraction

import (
	"fmt"
	"log/slog"

	"github.com/gen2brain/go-fitz"
)

// Fitz extracts text from PDF documents using go-fitz (MuPDF)
type Fitz struct{}

// NewFitz creates a new Fitz extractor
func NewFitz() (*Fitz, error) {
	return &Fitz{}, nil
}

// ExtractLines opens the document from memory and collects the text of every
// page as trimmed, non-empty lines in page order. A page whose text cannot be
// read contributes no lines; only a document that cannot be opened at all is
// an error.
func (f *Fitz) ExtractLines(data []byte) ([]string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("opening document: %w", err)
	}
	defer doc.Close()

	lines := make([]string, 0)
	for i := 0; i < doc.NumPage(); i++ {
		pageText, err := doc.Text(i)
		if err != nil {
			slog.Warn("Failed to extract page text", "page", i, "error", err)
			continue
		}
		lines = append(lines, splitLines(pageText)...)
	}

	return lines, nil
}

// Close releases extractor resources
func (f *Fitz) Close() error {
	return nil
}

package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFExtractor pulls the text layer out of a PDF, page by page.
type PDFExtractor struct{}

func NewPDFExtractor() *PDFExtractor { return &PDFExtractor{} }

func (p *PDFExtractor) Extract(ctx context.Context, filename string, data []byte) (Document, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		if errors.Is(err, pdf.ErrInvalidPassword) {
			return Document{}, &ExtractionError{Kind: KindEncrypted, Filename: filename, Err: err}
		}
		return Document{}, &ExtractionError{Kind: KindCorrupt, Filename: filename, Err: fmt.Errorf("open PDF: %w", err)}
	}

	var b strings.Builder
	pages := reader.NumPage()
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return Document{}, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		// a page whose fonts cannot be decoded is skipped, the rest still counts
		text, err := page.GetPlainText(nil)
		if err != nil || strings.TrimSpace(text) == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(text)
	}
	return Document{Format: FormatPDF, MIME: MIMEPDF, Text: b.String(), Pages: pages}, nil
}

package extract

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
)

// Registry options

type Option func(*Registry)

// WithMaxBytes rejects uploads larger than n bytes; n <= 0 disables the cap.
func WithMaxBytes(n int64) Option { return func(r *Registry) { r.maxBytes = n } }

// WithTimeout bounds a single extraction.
func WithTimeout(d time.Duration) Option { return func(r *Registry) { r.timeout = d } }

// Registry routes a file to the extractor for its detected format.
type Registry struct {
	extractors map[Format]Extractor
	maxBytes   int64
	timeout    time.Duration
}

// NewRegistry installs the PDF and DOCX extractors.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		extractors: map[Format]Extractor{
			FormatPDF:  NewPDFExtractor(),
			FormatDOCX: NewDOCXExtractor(),
		},
		timeout: 30 * time.Second,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *Registry) Register(f Format, e Extractor) { r.extractors[f] = e }

// Detect sniffs the content type and falls back to the extension only when
// the content is a generic zip, which is how some writers package DOCX.
func Detect(filename string, data []byte) (Format, string, error) {
	m := mimetype.Detect(data)
	ext := strings.ToLower(filepath.Ext(filename))
	switch {
	case m.Is(MIMEPDF):
		return FormatPDF, MIMEPDF, nil
	case m.Is(MIMEDOCX):
		return FormatDOCX, MIMEDOCX, nil
	case m.Is("application/zip") && ext == ".docx":
		return FormatDOCX, MIMEDOCX, nil
	case m.Is("application/x-ole-storage"):
		// Office files saved with a password are wrapped in an OLE container.
		return "", m.String(), &ExtractionError{Kind: KindEncrypted, Filename: filename, Err: errors.New("OLE compound document")}
	}
	return "", m.String(), &ExtractionError{Kind: KindUnsupported, Filename: filename, Err: fmt.Errorf("content type %s", m.String())}
}

// Extract detects the format of data and extracts its text.
func (r *Registry) Extract(ctx context.Context, filename string, data []byte) (Document, error) {
	filename = filepath.Base(filename)
	if r.maxBytes > 0 && int64(len(data)) > r.maxBytes {
		return Document{}, &ExtractionError{Kind: KindTooLarge, Filename: filename, Err: fmt.Errorf("%d bytes exceeds %d", len(data), r.maxBytes)}
	}
	format, _, err := Detect(filename, data)
	if err != nil {
		return Document{}, err
	}
	ex, ok := r.extractors[format]
	if !ok {
		return Document{}, &ExtractionError{Kind: KindUnsupported, Filename: filename, Err: fmt.Errorf("no extractor for %s", format)}
	}

	doc, err := r.run(ctx, ex, filename, data)
	if err != nil {
		var xerr *ExtractionError
		if errors.As(err, &xerr) {
			return Document{}, err
		}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return Document{}, &ExtractionError{Kind: KindTimeout, Filename: filename, Err: err}
		}
		return Document{}, &ExtractionError{Kind: KindCorrupt, Filename: filename, Err: err}
	}
	if strings.TrimSpace(doc.Text) == "" {
		return Document{}, &ExtractionError{Kind: KindEmpty, Filename: filename}
	}
	doc.Filename = filename
	doc.Chars = utf8.RuneCountInString(doc.Text)
	return doc, nil
}

type outcome struct {
	doc Document
	err error
}

// run executes ex under the registry timeout. Third-party parsers may panic
// on malformed input; a panic is reported as an error.
func (r *Registry) run(ctx context.Context, ex Extractor, filename string, data []byte) (Document, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- outcome{err: fmt.Errorf("parser panic: %v", p)}
			}
		}()
		doc, err := ex.Extract(ctx, filename, data)
		done <- outcome{doc: doc, err: err}
	}()
	select {
	case o := <-done:
		return o.doc, o.err
	case <-ctx.Done():
		return Document{}, ctx.Err()
	}
}

// Package extract turns uploaded report files (PDF or DOCX) into plain text.
package extract

import (
	"context"
	"fmt"
)

type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

const (
	MIMEPDF  = "application/pdf"
	MIMEDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// Document is the text extracted from one uploaded file.
type Document struct {
	Filename string `json:"filename"`
	Format   Format `json:"format"`
	MIME     string `json:"mime"`
	Text     string `json:"-"`
	Pages    int    `json:"pages,omitempty"` // 0 when the format has no fixed pages
	Chars    int    `json:"chars"`
}

// Preview returns at most n runes of the extracted text.
func (d Document) Preview(n int) string {
	return truncateRunes(d.Text, n)
}

// Extractor converts raw file bytes into a Document.
type Extractor interface {
	Extract(ctx context.Context, filename string, data []byte) (Document, error)
}

type Kind string

const (
	KindUnsupported Kind = "unsupported"
	KindCorrupt     Kind = "corrupt"
	KindEncrypted   Kind = "encrypted"
	KindEmpty       Kind = "empty"
	KindTooLarge    Kind = "too_large"
	KindTimeout     Kind = "timeout"
)

// ExtractionError reports why a file could not be turned into text. It is
// meant to be shown to the evaluator; the session carries on.
type ExtractionError struct {
	Kind     Kind
	Filename string
	Err      error
}

func (e *ExtractionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("extract %s: %s", e.Filename, e.Kind)
	}
	return fmt.Sprintf("extract %s: %s: %v", e.Filename, e.Kind, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Message is the user-facing explanation, in the language of the UI.
func (e *ExtractionError) Message() string {
	switch e.Kind {
	case KindUnsupported:
		return "Formato no soportado: cargue un archivo PDF o DOCX."
	case KindCorrupt:
		return "No se pudo leer el archivo: parece dañado o incompleto."
	case KindEncrypted:
		return "El documento está protegido con contraseña. Quite la protección y vuelva a cargarlo."
	case KindEmpty:
		return "No se encontró texto en el documento (¿es un escaneo sin capa de texto?)."
	case KindTooLarge:
		return "El archivo supera el tamaño máximo permitido."
	case KindTimeout:
		return "La extracción de texto tardó demasiado y fue cancelada."
	}
	return "No se pudo extraer el texto del documento."
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

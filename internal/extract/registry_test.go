package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleBody = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Informe final</w:t></w:r></w:p>
    <w:p><w:r><w:t xml:space="preserve">Objetivo general: </w:t></w:r><w:r><w:t>cumplido</w:t></w:r></w:p>
    <w:p><w:r><w:t>Director</w:t><w:tab/><w:t>Ana Pérez</w:t><w:br/><w:t>Período 2023</w:t></w:r></w:p>
  </w:body>
</w:document>`

// buildDOCX packages body as a minimal OOXML document.
func buildDOCX(t *testing.T, body string) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)
	w, err := zw.Create("[Content_Types].xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<?xml version="1.0"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`))
	require.NoError(t, err)
	if body != "" {
		w, err = zw.Create(docxBody)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func kindOf(t *testing.T, err error) Kind {
	t.Helper()
	var xerr *ExtractionError
	require.ErrorAs(t, err, &xerr)
	return xerr.Kind
}

func TestRegistry_ExtractDOCX(t *testing.T) {
	r := NewRegistry()
	doc, err := r.Extract(context.Background(), "/tmp/uploads/informe.docx", buildDOCX(t, sampleBody))
	require.NoError(t, err)

	assert.Equal(t, FormatDOCX, doc.Format)
	assert.Equal(t, "informe.docx", doc.Filename)
	assert.Equal(t, "Informe final\nObjetivo general: cumplido\nDirector\tAna Pérez\nPeríodo 2023", doc.Text)
	assert.Equal(t, len([]rune(doc.Text)), doc.Chars)
	assert.Equal(t, "Informe", doc.Preview(7))
}

func TestRegistry_ExtractErrors(t *testing.T) {
	ole := append([]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}, make([]byte, 600)...)
	tests := []struct {
		name     string
		filename string
		data     []byte
		want     Kind
	}{
		{"plain text", "notes.txt", []byte("just some text"), KindUnsupported},
		{"docx without body", "empty.docx", buildDOCX(t, ""), KindCorrupt},
		{"docx with broken xml", "broken.docx", buildDOCX(t, "<w:document><w:body><w:p>"), KindCorrupt},
		{"docx without text", "blank.docx", buildDOCX(t, `<w:document><w:body><w:p/></w:body></w:document>`), KindEmpty},
		{"truncated pdf", "informe.pdf", []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\n"), KindCorrupt},
		{"password protected office file", "secreto.docx", ole, KindEncrypted},
	}
	r := NewRegistry()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Extract(context.Background(), tt.filename, tt.data)
			assert.Equal(t, tt.want, kindOf(t, err))
		})
	}
}

func TestRegistry_TooLarge(t *testing.T) {
	r := NewRegistry(WithMaxBytes(10))
	_, err := r.Extract(context.Background(), "informe.docx", buildDOCX(t, sampleBody))
	assert.Equal(t, KindTooLarge, kindOf(t, err))
}

type slowExtractor struct{}

func (slowExtractor) Extract(ctx context.Context, _ string, _ []byte) (Document, error) {
	<-ctx.Done()
	return Document{}, ctx.Err()
}

type panickyExtractor struct{}

func (panickyExtractor) Extract(context.Context, string, []byte) (Document, error) {
	panic("malformed xref table")
}

func TestRegistry_TimeoutAndPanic(t *testing.T) {
	data := buildDOCX(t, sampleBody)

	r := NewRegistry(WithTimeout(20 * time.Millisecond))
	r.Register(FormatDOCX, slowExtractor{})
	_, err := r.Extract(context.Background(), "informe.docx", data)
	assert.Equal(t, KindTimeout, kindOf(t, err))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	r = NewRegistry()
	r.Register(FormatDOCX, panickyExtractor{})
	_, err = r.Extract(context.Background(), "informe.docx", data)
	assert.Equal(t, KindCorrupt, kindOf(t, err))
	assert.Contains(t, err.Error(), "malformed xref table")
}

func TestExtractionError_Message(t *testing.T) {
	for _, k := range []Kind{KindUnsupported, KindCorrupt, KindEncrypted, KindEmpty, KindTooLarge, KindTimeout} {
		e := &ExtractionError{Kind: k, Filename: "x.pdf"}
		assert.NotEmpty(t, e.Message(), k)
		assert.Contains(t, e.Error(), string(k))
	}
}

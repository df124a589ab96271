package extract

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tabStopsBody = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p>
      <w:pPr><w:tabs><w:tab w:val="left" w:pos="720"/><w:tab w:val="right" w:pos="9000"/></w:tabs></w:pPr>
      <w:r><w:t>Titulo</w:t></w:r>
    </w:p>
    <w:p>
      <w:pPr><w:tabs><w:tab w:val="left" w:pos="720"/></w:tabs></w:pPr>
      <w:r><w:t>Codigo</w:t><w:tab/><w:t>06/B123</w:t></w:r>
    </w:p>
    <w:sectPr><w:pgSz w:w="11906" w:h="16838"/></w:sectPr>
  </w:body>
</w:document>`

func TestDOCX_TabStopsAreNotText(t *testing.T) {
	doc, err := NewDOCXExtractor().Extract(context.Background(), "informe.docx", buildDOCX(t, tabStopsBody))
	require.NoError(t, err)
	assert.Equal(t, "Titulo\nCodigo\t06/B123", doc.Text)
}

func TestDOCX_DocumentXMLLimit(t *testing.T) {
	d := &DOCXExtractor{maxXML: 64}
	_, err := d.Extract(context.Background(), "informe.docx", buildDOCX(t, sampleBody))
	assert.Equal(t, KindTooLarge, kindOf(t, err))

	d = &DOCXExtractor{maxXML: int64(len(sampleBody))}
	doc, err := d.Extract(context.Background(), "informe.docx", buildDOCX(t, sampleBody))
	require.NoError(t, err)
	assert.Contains(t, doc.Text, "Período 2023")
}

func TestCapReader(t *testing.T) {
	// the stream cap holds even when the zip header understates the size
	_, err := paragraphs(context.Background(), &capReader{r: strings.NewReader(sampleBody), left: 32})
	assert.ErrorIs(t, err, errDocumentXMLTooLarge)

	b, err := io.ReadAll(&capReader{r: strings.NewReader("abcdef"), left: 6})
	require.NoError(t, err)
	assert.Equal(t, "abcdef", string(b))

	_, err = io.ReadAll(&capReader{r: strings.NewReader("abcdefg"), left: 6})
	assert.ErrorIs(t, err, errDocumentXMLTooLarge)
}

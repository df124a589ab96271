package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const docxBody = "word/document.xml"

// DefaultMaxDocumentXML caps the inflated size of word/document.xml.
const DefaultMaxDocumentXML = 64 << 20

var errDocumentXMLTooLarge = errors.New(docxBody + " exceeds the size limit")

// DOCXExtractor reads the main document part of an OOXML package and keeps
// paragraph, tab and line-break structure.
type DOCXExtractor struct {
	maxXML int64
}

func NewDOCXExtractor() *DOCXExtractor { return &DOCXExtractor{maxXML: DefaultMaxDocumentXML} }

func (d *DOCXExtractor) Extract(ctx context.Context, filename string, data []byte) (Document, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Document{}, &ExtractionError{Kind: KindCorrupt, Filename: filename, Err: fmt.Errorf("open DOCX: %w", err)}
	}
	var body *zip.File
	for _, f := range zr.File {
		if f.Name == docxBody {
			body = f
			break
		}
	}
	if body == nil {
		return Document{}, &ExtractionError{Kind: KindCorrupt, Filename: filename, Err: errors.New("missing " + docxBody)}
	}
	if d.maxXML > 0 && body.UncompressedSize64 > uint64(d.maxXML) {
		return Document{}, &ExtractionError{Kind: KindTooLarge, Filename: filename,
			Err: fmt.Errorf("%s inflates to %d bytes", docxBody, body.UncompressedSize64)}
	}
	rc, err := body.Open()
	if err != nil {
		return Document{}, &ExtractionError{Kind: KindCorrupt, Filename: filename, Err: err}
	}
	defer rc.Close()

	// the header size can lie, so the stream is capped as well
	var src io.Reader = rc
	if d.maxXML > 0 {
		src = &capReader{r: rc, left: d.maxXML}
	}
	text, err := paragraphs(ctx, src)
	if err != nil {
		if ctx.Err() != nil {
			return Document{}, ctx.Err()
		}
		if errors.Is(err, errDocumentXMLTooLarge) {
			return Document{}, &ExtractionError{Kind: KindTooLarge, Filename: filename, Err: err}
		}
		return Document{}, &ExtractionError{Kind: KindCorrupt, Filename: filename, Err: fmt.Errorf("parse %s: %w", docxBody, err)}
	}
	return Document{Format: FormatDOCX, MIME: MIMEDOCX, Text: text}, nil
}

// capReader fails once more than left bytes have been read.
type capReader struct {
	r    io.Reader
	left int64
}

func (c *capReader) Read(p []byte) (int, error) {
	if c.left < 0 {
		return 0, errDocumentXMLTooLarge
	}
	if int64(len(p)) > c.left+1 {
		p = p[:c.left+1]
	}
	n, err := c.r.Read(p)
	c.left -= int64(n)
	if c.left < 0 {
		return n, errDocumentXMLTooLarge
	}
	return n, err
}

// paragraphs walks WordprocessingML tokens. Only w:t carries text, and tabs
// and breaks count only inside a run (w:pPr/w:tabs holds tab stops).
func paragraphs(ctx context.Context, r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var b strings.Builder
	inText := false
	runDepth := 0
	for n := 0; ; n++ {
		if n%4096 == 0 && ctx.Err() != nil {
			return "", ctx.Err()
		}
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "r":
				runDepth++
			case "t":
				inText = true
			case "tab":
				if runDepth > 0 {
					b.WriteByte('\t')
				}
			case "br", "cr":
				if runDepth > 0 {
					b.WriteByte('\n')
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "r":
				runDepth--
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

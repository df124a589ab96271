package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"

	"github.com/uccuyo/valorador/internal/grading"
)

const (
	bodyFont = "Times New Roman"
	bodySize = 11 // points
)

// Word builds the dictamen as a DOCX document.
func Word(rep Report) ([]byte, error) {
	b, err := word(rep)
	if err != nil {
		return nil, &ExportError{Format: FormatWord, Err: err}
	}
	return b, nil
}

func word(rep Report) ([]byte, error) {
	doc, err := godocx.NewDocument()
	if err != nil {
		return nil, fmt.Errorf("new document: %w", err)
	}
	w := &wordWriter{doc: doc}

	w.heading(0, rep.title())
	w.para(plain("Fecha: " + rep.date()))
	if rep.Document.Filename != "" {
		w.para(plain("Documento: " + rep.Document.Filename))
	}
	w.para(plain(fmt.Sprintf("Dictamen: %s · Cumplimiento: %s%% · Puntaje bruto: %d/%d",
		rep.Result.Verdict.Upper(), rep.Result.Display(), rep.Result.RawTotal, rep.Result.MaxRawTotal)))

	w.heading(1, "Resultados por criterio")
	for _, c := range rep.Result.Contributions {
		w.para(
			span{text: c.Label + " ", bold: true},
			plain(fmt.Sprintf("(Puntaje: %d/%d · Peso: %s%% · Aporte: %s%%)",
				c.Score, grading.MaxScore, rep.weightPercent(c.Weight).String(), c.Display())),
		)
		if comment := strings.TrimSpace(rep.Sheet.Comments[c.CriterionID]); comment != "" {
			w.para(span{text: "Comentario: ", italic: true}, plain(comment))
		}
	}

	w.heading(1, "Interpretación")
	w.para(span{text: "Fortalezas: ", bold: true},
		plain(listOr(grading.Strengths(rep.Result), "no se identifican fortalezas destacadas.")))
	w.para(span{text: "Aspectos a mejorar: ", bold: true},
		plain(listOr(grading.Improvements(rep.Result), "no se identifican aspectos críticos.")))

	if general := strings.TrimSpace(rep.Sheet.GeneralComment); general != "" {
		w.heading(1, "Observaciones generales")
		w.lines(general)
	}

	w.heading(1, "Evidencia analizada (extracto)")
	w.lines(rep.excerpt())

	if w.err != nil {
		return nil, w.err
	}
	buf := new(bytes.Buffer)
	if err := doc.Write(buf); err != nil {
		return nil, fmt.Errorf("write document: %w", err)
	}
	return buf.Bytes(), nil
}

func listOr(items []string, empty string) string {
	if len(items) == 0 {
		return empty
	}
	return strings.Join(items, ", ")
}

type span struct {
	text         string
	bold, italic bool
}

func plain(s string) span { return span{text: s} }

// wordWriter appends paragraphs to doc and keeps the first error.
type wordWriter struct {
	doc *docx.RootDoc
	err error
}

func (w *wordWriter) heading(level uint, text string) {
	if w.err != nil {
		return
	}
	if _, err := w.doc.AddHeading(text, level); err != nil {
		w.err = fmt.Errorf("heading %q: %w", text, err)
	}
}

func (w *wordWriter) para(spans ...span) {
	if w.err != nil || len(spans) == 0 {
		return
	}
	p := w.doc.AddParagraph("")
	for _, s := range spans {
		r := p.AddText(s.text).Font(bodyFont).Size(bodySize)
		if s.bold {
			r.Bold(true)
		}
		if s.italic {
			r.Italic(true)
		}
	}
}

// lines writes one paragraph per line of text.
func (w *wordWriter) lines(text string) {
	for _, line := range strings.Split(text, "\n") {
		w.para(plain(strings.TrimRight(line, "\r")))
	}
}

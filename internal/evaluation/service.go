// Package evaluation ties extraction, scoring and export together for a
// single evaluator session.
package evaluation

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/uccuyo/valorador/internal/export"
	"github.com/uccuyo/valorador/internal/extract"
	"github.com/uccuyo/valorador/internal/grading"
	"github.com/uccuyo/valorador/internal/metrics"
)

var (
	ErrSessionNotFound = errors.New("evaluation session not found")
	ErrNoDocument      = errors.New("no document has been extracted in this session")
	ErrNotScored       = errors.New("the score sheet has not been submitted")
)

type Options struct {
	Institution  string
	ExcerptChars int
}

type Service struct {
	rubric    *grading.Rubric
	extractor extract.Extractor
	store     *Store
	metrics   *metrics.Metrics
	log       *slog.Logger
	opts      Options
	now       func() time.Time
}

func NewService(r *grading.Rubric, ex extract.Extractor, st *Store, m *metrics.Metrics, log *slog.Logger, opts Options) *Service {
	if log == nil {
		log = slog.Default()
	}
	if m == nil {
		m = metrics.New()
	}
	return &Service{rubric: r, extractor: ex, store: st, metrics: m, log: log, opts: opts, now: time.Now}
}

func (s *Service) Rubric() *grading.Rubric { return s.rubric }

func (s *Service) Start(evaluator string) Session {
	sess := s.store.Create(evaluator)
	s.log.Info("evaluation session started", "session", sess.ID, "evaluator", evaluator)
	return sess
}

func (s *Service) Get(id string) (Session, error) { return s.store.Get(id) }

func (s *Service) End(id string) {
	s.store.Delete(id)
	s.log.Info("evaluation session ended", "session", id)
}

// Upload extracts the text of a new report. Any previous document, sheet and
// result are discarded, also when extraction fails, so nothing can be scored
// until a readable document is in place.
func (s *Service) Upload(ctx context.Context, id, filename string, data []byte) (Session, error) {
	if _, err := s.store.Get(id); err != nil {
		return Session{}, err
	}

	start := time.Now()
	doc, xerr := s.extractor.Extract(ctx, filename, data)
	s.metrics.ObserveExtraction(string(doc.Format), xerr == nil, time.Since(start))

	sess, err := s.store.Update(id, func(sess *Session) error {
		sess.Document, sess.Suggested, sess.Sheet, sess.Result = nil, nil, nil, nil
		if xerr != nil {
			return nil
		}
		sess.Document = &doc
		sess.Suggested = grading.Suggest(doc.Text, s.rubric)
		return nil
	})
	if err != nil {
		return Session{}, err
	}
	if xerr != nil {
		s.log.Warn("document extraction failed", "session", id, "filename", filename, "error", xerr)
		return sess, xerr
	}
	s.log.Info("document extracted", "session", id, "filename", doc.Filename,
		"format", doc.Format, "pages", doc.Pages, "chars", doc.Chars)
	return sess, nil
}

// Submit scores sheet against the rubric and records both. A rejected sheet
// leaves the previous submission in place.
func (s *Service) Submit(id string, sheet grading.ScoreSheet) (Session, error) {
	sheet = cleanSheet(sheet)
	sess, err := s.store.Update(id, func(sess *Session) error {
		if sess.Document == nil {
			return ErrNoDocument
		}
		res, err := grading.Score(sheet, s.rubric)
		if err != nil {
			return err
		}
		sess.Sheet, sess.Result = &sheet, &res
		return nil
	})
	if err != nil {
		var verr *grading.ValidationError
		if errors.As(err, &verr) {
			s.metrics.ValidationFailed()
			s.log.Info("score sheet rejected", "session", id, "problems", len(verr.Problems))
		}
		return sess, err
	}
	s.metrics.Scored(string(sess.Result.Verdict))
	s.log.Info("score sheet accepted", "session", id,
		"percentage", sess.Result.Display(), "verdict", sess.Result.Verdict)
	return sess, nil
}

// Export renders the scored session. The bytes go straight to the caller.
func (s *Service) Export(id string, f export.Format) ([]byte, error) {
	sess, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	if sess.Result == nil || sess.Document == nil {
		return nil, ErrNotScored
	}
	b, err := export.Render(f, export.Report{
		Institution:  s.opts.Institution,
		Rubric:       s.rubric,
		Sheet:        *sess.Sheet,
		Result:       *sess.Result,
		Document:     *sess.Document,
		GeneratedAt:  s.now(),
		ExcerptChars: s.opts.ExcerptChars,
	})
	s.metrics.Exported(string(f), err == nil)
	if err != nil {
		s.log.Error("export failed", "session", id, "format", f, "error", err)
		return nil, err
	}
	s.log.Info("report exported", "session", id, "format", f, "bytes", len(b))
	return b, nil
}

func cleanSheet(in grading.ScoreSheet) grading.ScoreSheet {
	out := grading.ScoreSheet{
		Scores:         make(map[string]int, len(in.Scores)),
		Comments:       make(map[string]string, len(in.Comments)),
		GeneralComment: strings.TrimSpace(in.GeneralComment),
	}
	for k, v := range in.Scores {
		out.Scores[k] = v
	}
	for k, v := range in.Comments {
		if v = strings.TrimSpace(v); v != "" {
			out.Comments[k] = v
		}
	}
	return out
}

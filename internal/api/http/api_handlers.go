package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"

	auth "github.com/uccuyo/valorador/internal/auth/middleware"
	"github.com/uccuyo/valorador/internal/evaluation"
	"github.com/uccuyo/valorador/internal/export"
	"github.com/uccuyo/valorador/internal/extract"
	"github.com/uccuyo/valorador/internal/grading"
)

// multipartOverhead is allowed on top of the file limit for form boundaries
// and the other fields of the upload form.
const multipartOverhead = 1 << 20

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResp struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	SessionID   string    `json:"session_id"`
}

// POST /api/auth/login
func LoginHandler(svc *evaluation.Service, a *auth.AuthService, creds *auth.Credentials) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, http.StatusBadRequest, "bad json: "+err.Error())
			return
		}
		tok, exp, sess, err := startSession(svc, a, creds, req.Username, req.Password)
		if err != nil {
			writeErr(w, http.StatusUnauthorized, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, loginResp{AccessToken: tok, TokenType: "Bearer", ExpiresAt: exp, SessionID: sess.ID})
	}
}

var errBadCredentials = errors.New("invalid credentials")

// startSession checks the credentials, opens a fresh evaluation session and
// issues a token bound to it.
func startSession(svc *evaluation.Service, a *auth.AuthService, creds *auth.Credentials, user, pass string) (string, time.Time, evaluation.Session, error) {
	if creds == nil || !creds.Check(user, pass) {
		return "", time.Time{}, evaluation.Session{}, errBadCredentials
	}
	sess := svc.Start(user)
	tok, exp, err := a.IssueJWT(user, sess.ID)
	if err != nil {
		svc.End(sess.ID)
		return "", time.Time{}, evaluation.Session{}, fmt.Errorf("issue token: %w", err)
	}
	return tok, exp, sess, nil
}

// GET /api/rubric
func RubricHandler(svc *evaluation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, newRubricView(svc.Rubric()))
	}
}

// GET /rubric.yaml
func RubricSourceHandler(svc *evaluation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="rubric.yaml"`)
		_, _ = w.Write(svc.Rubric().Source())
	}
}

// GET /api/session
func GetSessionHandler(svc *evaluation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := svc.Get(auth.SessionFromContext(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newSessionView(sess, svc.Rubric().Unit))
	}
}

type uploadResp struct {
	Document  *documentView  `json:"document"`
	Suggested map[string]int `json:"suggested"`
}

// POST /api/document (multipart: file=informe.pdf|informe.docx)
func UploadDocumentHandler(svc *evaluation.Service, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name, data, err := readUpload(w, r, maxBytes)
		if err != nil {
			writeError(w, err)
			return
		}
		sess, err := svc.Upload(r.Context(), auth.SessionFromContext(r.Context()), name, data)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, uploadResp{Document: newDocumentView(sess.Document), Suggested: sess.Suggested})
	}
}

var errFileRequired = errors.New("file required")

// readUpload pulls the "file" part out of a multipart request. A body over
// the limit is reported the same way the extractor reports a large file.
func readUpload(w http.ResponseWriter, r *http.Request, maxBytes int64) (string, []byte, error) {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return "", nil, &extract.ExtractionError{Kind: extract.KindTooLarge, Err: err}
		}
		return "", nil, errFileRequired
	}
	defer f.Close()

	name := filepath.Base(hdr.Filename)
	var rd io.Reader = f
	if maxBytes > 0 {
		rd = io.LimitReader(f, maxBytes+1)
	}
	data, err := io.ReadAll(rd)
	if err != nil {
		return "", nil, &extract.ExtractionError{Kind: extract.KindCorrupt, Filename: name, Err: err}
	}
	return name, data, nil
}

// PUT /api/scores
func SubmitScoresHandler(svc *evaluation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var sheet grading.ScoreSheet
		if err := json.NewDecoder(r.Body).Decode(&sheet); err != nil {
			writeErr(w, http.StatusBadRequest, "bad json: "+err.Error())
			return
		}
		sess, err := svc.Submit(auth.SessionFromContext(r.Context()), sheet)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newResultView(sess.Result, svc.Rubric().Unit))
	}
}

// GET /export/{format}, GET /api/export/{format}
func ExportHandler(svc *evaluation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, ok := export.ParseFormat(chi.URLParam(r, "format"))
		if !ok {
			writeErr(w, http.StatusNotFound, "unknown export format")
			return
		}
		b, err := svc.Export(auth.SessionFromContext(r.Context()), f)
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", f.ContentType())
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", f.Filename()))
		w.Header().Set("Content-Length", fmt.Sprint(len(b)))
		_, _ = w.Write(b)
	}
}

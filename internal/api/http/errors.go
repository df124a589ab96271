package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/uccuyo/valorador/internal/evaluation"
	"github.com/uccuyo/valorador/internal/export"
	"github.com/uccuyo/valorador/internal/extract"
	"github.com/uccuyo/valorador/internal/grading"
)

type errorBody struct {
	Error    string               `json:"error"`
	Kind     string               `json:"kind,omitempty"`
	Problems []grading.FieldError `json:"problems,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	var verr *grading.ValidationError
	var xerr *extract.ExtractionError
	switch {
	case errors.As(err, &verr), errors.As(err, &xerr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, evaluation.ErrNoDocument), errors.Is(err, evaluation.ErrNotScored):
		return http.StatusConflict
	case errors.Is(err, evaluation.ErrSessionNotFound), errors.Is(err, errBadCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, errFileRequired):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	body := errorBody{Error: err.Error()}
	var verr *grading.ValidationError
	var xerr *extract.ExtractionError
	var eerr *export.ExportError
	switch {
	case errors.As(err, &verr):
		body.Problems = verr.Problems
	case errors.As(err, &xerr):
		body.Kind = string(xerr.Kind)
		body.Error = xerr.Message()
	case errors.As(err, &eerr):
		body.Error = "no se pudo generar el archivo (" + string(eerr.Format) + "); intente nuevamente"
	}
	writeJSON(w, statusFor(err), body)
}

// extractionMessage is the evaluator-facing text for a failed upload, or ""
// when err is not an extraction failure.
func extractionMessage(err error) string {
	var xerr *extract.ExtractionError
	if errors.As(err, &xerr) {
		return xerr.Message()
	}
	return ""
}

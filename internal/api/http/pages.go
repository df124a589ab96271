package http

import (
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	auth "github.com/uccuyo/valorador/internal/auth/middleware"
	"github.com/uccuyo/valorador/internal/evaluation"
	"github.com/uccuyo/valorador/internal/grading"
)

//go:embed templates/page.html
var templatesFS embed.FS

var pageTmpl = template.Must(template.ParseFS(templatesFS, "templates/page.html"))

// pages serves the form-based UI. State lives in the evaluation session;
// every successful POST redirects back to GET /.
type pages struct {
	svc       *evaluation.Service
	auth      *auth.AuthService
	creds     *auth.Credentials
	log       *slog.Logger
	maxUpload int64
	secure    bool
}

func newPages(d Deps) *pages {
	return &pages{
		svc:       d.Service,
		auth:      d.Auth,
		creds:     d.Credentials,
		log:       d.Logger,
		maxUpload: d.MaxUploadBytes,
		secure:    d.SecureCookies,
	}
}

type scoreOption struct {
	Value     int
	Selected  bool
	Suggested bool
}

type criterionRow struct {
	ID      string
	Label   string
	Weight  string
	Options []scoreOption
	Comment string
	Problem string
}

type pageData struct {
	Title     string
	LoggedIn  bool
	Evaluator string
	Error     string

	Document       *documentView
	Rows           []criterionRow
	GeneralComment string
	Problems       []grading.FieldError
	Result         *resultView
}

func (p *pages) render(w http.ResponseWriter, status int, data pageData) {
	data.Title = p.svc.Rubric().Title
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTmpl.Execute(w, data); err != nil {
		p.log.Error("render page", "error", err)
	}
}

// session returns the live session behind the request cookie. A token whose
// session is gone (logout elsewhere, expiry) is cleared.
func (p *pages) session(w http.ResponseWriter, r *http.Request) (evaluation.Session, bool) {
	sid := auth.SessionFromContext(r.Context())
	if sid == "" {
		return evaluation.Session{}, false
	}
	sess, err := p.svc.Get(sid)
	if err != nil {
		auth.ClearCookie(w, p.secure)
		return evaluation.Session{}, false
	}
	return sess, true
}

// GET /
func (p *pages) index(w http.ResponseWriter, r *http.Request) {
	sess, ok := p.session(w, r)
	if !ok {
		p.render(w, http.StatusOK, pageData{})
		return
	}
	p.render(w, http.StatusOK, p.evaluationData(sess, nil))
}

// POST /login
func (p *pages) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		p.render(w, http.StatusBadRequest, pageData{Error: "Formulario inválido."})
		return
	}
	tok, exp, _, err := startSession(p.svc, p.auth, p.creds, r.PostForm.Get("username"), r.PostForm.Get("password"))
	if err != nil {
		p.log.Info("login rejected", "user", r.PostForm.Get("username"))
		p.render(w, http.StatusUnauthorized, pageData{Error: "Usuario o contraseña incorrectos."})
		return
	}
	auth.SetCookie(w, tok, exp, p.secure)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// POST /logout
func (p *pages) logout(w http.ResponseWriter, r *http.Request) {
	if sid := auth.SessionFromContext(r.Context()); sid != "" {
		p.svc.End(sid)
	}
	auth.ClearCookie(w, p.secure)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// POST /document
func (p *pages) upload(w http.ResponseWriter, r *http.Request) {
	sess, ok := p.session(w, r)
	if !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	name, data, err := readUpload(w, r, p.maxUpload)
	if err == nil {
		sess, err = p.svc.Upload(r.Context(), sess.ID, name, data)
	}
	if err != nil {
		d := p.evaluationData(sess, nil)
		d.Error = uploadMessage(err)
		p.render(w, statusFor(err), d)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// POST /scores
func (p *pages) scores(w http.ResponseWriter, r *http.Request) {
	sess, ok := p.session(w, r)
	if !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		d := p.evaluationData(sess, nil)
		d.Error = "Formulario inválido."
		p.render(w, http.StatusBadRequest, d)
		return
	}
	sheet := sheetFromForm(r)
	sess, err := p.svc.Submit(sess.ID, sheet)
	if err != nil {
		d := p.evaluationData(sess, &sheet)
		var verr *grading.ValidationError
		switch {
		case errors.As(err, &verr):
			d.Problems = verr.Problems
			d.Error = "Revise los puntajes marcados: cada criterio necesita un valor entre 0 y 4."
		case statusFor(err) == http.StatusConflict:
			d.Error = "Primero cargue un informe legible; la valoración queda bloqueada hasta entonces."
		default:
			d.Error = "No se pudo registrar la valoración."
		}
		for i := range d.Rows {
			d.Rows[i].Problem = problemFor(d.Problems, d.Rows[i].ID)
		}
		p.render(w, statusFor(err), d)
		return
	}
	http.Redirect(w, r, "/#resultado", http.StatusSeeOther)
}

// sheetFromForm reads score_<id>, comment_<id> and general_comment. Every
// score_ field is passed on so unknown criteria are reported, and blank or
// non-numeric values are left out so they show up as missing.
func sheetFromForm(r *http.Request) grading.ScoreSheet {
	sheet := grading.ScoreSheet{
		Scores:         map[string]int{},
		Comments:       map[string]string{},
		GeneralComment: r.PostForm.Get("general_comment"),
	}
	for key, vals := range r.PostForm {
		if len(vals) == 0 {
			continue
		}
		switch {
		case strings.HasPrefix(key, "score_"):
			if n, err := strconv.Atoi(strings.TrimSpace(vals[0])); err == nil {
				sheet.Scores[strings.TrimPrefix(key, "score_")] = n
			}
		case strings.HasPrefix(key, "comment_"):
			sheet.Comments[strings.TrimPrefix(key, "comment_")] = vals[0]
		}
	}
	return sheet
}

// evaluationData builds the evaluation page. Scores come from override (a
// rejected form), else the last accepted sheet, else the keyword suggestion.
func (p *pages) evaluationData(sess evaluation.Session, override *grading.ScoreSheet) pageData {
	d := pageData{
		LoggedIn:  true,
		Evaluator: sess.Evaluator,
		Document:  newDocumentView(sess.Document),
		Result:    newResultView(sess.Result, p.svc.Rubric().Unit),
	}
	sheet := override
	if sheet == nil {
		sheet = sess.Sheet
	}
	var scores map[string]int
	var comments map[string]string
	switch {
	case sheet != nil:
		scores, comments, d.GeneralComment = sheet.Scores, sheet.Comments, sheet.GeneralComment
	default:
		scores = sess.Suggested
	}

	rub := p.svc.Rubric()
	for _, c := range rub.Criteria {
		row := criterionRow{ID: c.ID, Label: c.Label, Weight: rub.Unit.Percent(c.Weight).String(), Comment: comments[c.ID]}
		cur, has := scores[c.ID]
		sug, hasSug := sess.Suggested[c.ID]
		for v := 0; v <= grading.MaxScore; v++ {
			row.Options = append(row.Options, scoreOption{
				Value:     v,
				Selected:  has && cur == v,
				Suggested: hasSug && sug == v,
			})
		}
		d.Rows = append(d.Rows, row)
	}
	return d
}

func uploadMessage(err error) string {
	if m := extractionMessage(err); m != "" {
		return m
	}
	if statusFor(err) == http.StatusBadRequest {
		return "Seleccione un archivo PDF o DOCX."
	}
	return "No se pudo procesar el archivo."
}

func problemFor(problems []grading.FieldError, id string) string {
	for _, pr := range problems {
		if pr.Field != id {
			continue
		}
		switch {
		case pr.Message == "missing score":
			return "Seleccione un puntaje."
		case strings.Contains(pr.Message, "out of range"):
			return "Puntaje fuera de rango (0 a 4)."
		}
		return pr.Message
	}
	return ""
}

package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	auth "github.com/uccuyo/valorador/internal/auth/middleware"
	"github.com/uccuyo/valorador/internal/evaluation"
	"github.com/uccuyo/valorador/internal/metrics"
)

// Deps is what the router needs from the rest of the process.
type Deps struct {
	Service     *evaluation.Service
	Auth        *auth.AuthService
	Credentials *auth.Credentials
	Metrics     *metrics.Metrics
	Logger      *slog.Logger

	CORSOrigins    []string
	MaxUploadBytes int64
	SecureCookies  bool          // set when served over https
	RequestTimeout time.Duration // 0 = 60s
}

func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Metrics == nil {
		d.Metrics = metrics.New()
	}
	if d.RequestTimeout <= 0 {
		d.RequestTimeout = 60 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, RequestLogger(d.Logger), middleware.Recoverer)
	r.Use(middleware.Timeout(d.RequestTimeout))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", ReadyHandler(d.Service))
	r.Handle("/metrics", d.Metrics.Handler())

	// Browser pages (cookie auth, form posts).
	p := newPages(d)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.OptionalJWT(d.Auth))
		pr.Get("/", p.index)
		pr.Post("/login", p.login)
		pr.Post("/logout", p.logout)
		pr.Post("/document", p.upload)
		pr.Post("/scores", p.scores)
	})
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(d.Auth))
		pr.Get("/export/{format}", ExportHandler(d.Service))
		pr.Get("/rubric.yaml", RubricSourceHandler(d.Service))
	})

	// JSON API (bearer token or cookie).
	r.Route("/api", func(ar chi.Router) {
		ar.Use(cors.Handler(cors.Options{
			AllowedOrigins:   d.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length", "Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
		ar.Post("/auth/login", LoginHandler(d.Service, d.Auth, d.Credentials))

		ar.Group(func(pr chi.Router) {
			pr.Use(auth.JWTMiddleware(d.Auth))
			pr.Get("/rubric", RubricHandler(d.Service))
			pr.Get("/session", GetSessionHandler(d.Service))
			pr.Post("/document", UploadDocumentHandler(d.Service, d.MaxUploadBytes))
			pr.Put("/scores", SubmitScoresHandler(d.Service))
			pr.Get("/export/{format}", ExportHandler(d.Service))
		})
	})

	return r
}

// GET /readyz
func ReadyHandler(svc *evaluation.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || svc.Rubric() == nil {
			http.Error(w, "rubric not loaded", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(200)
	}
}

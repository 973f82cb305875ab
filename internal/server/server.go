package server

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"github.com/kkfinancial/loan-consult/internal/config"
	"github.com/kkfinancial/loan-consult/internal/leads"
	"github.com/kkfinancial/loan-consult/internal/site"
	"github.com/kkfinancial/loan-consult/pkg/constants"
	"github.com/kkfinancial/loan-consult/pkg/format"
	"go.uber.org/zap"
)

//go:embed static/*
var staticFiles embed.FS

//go:embed templates/*.html
var templateFiles embed.FS

const requestTimeout = 30 * time.Second

// Dependencies are the collaborators the handler serves.
type Dependencies struct {
	Leads    *leads.Service
	Content  *site.Content
	Grouping format.Grouping
	Version  string
	// Limiter throttles form submissions. Nil disables throttling.
	Limiter *RateLimiter
}

type handler struct {
	logger      *zap.Logger
	leads       *leads.Service
	content     *site.Content
	grouping    format.Grouping
	maxBodySize int64
	version     string
	limiter     *RateLimiter
	pages       map[string]*template.Template
	upgrader    websocket.Upgrader
	now         func() time.Time
}

// NewHandler constructs the HTTP handler that serves the website pages, the
// JSON API and the live calculator socket.
func NewHandler(logger *zap.Logger, cfg *Config, deps Dependencies) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}

	maxBodySize := cfg.BodySizeBytes()
	if maxBodySize <= 0 {
		maxBodySize = constants.DefaultMaxBodySizeBytes
	}

	trimmedVersion := strings.TrimSpace(deps.Version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	content := deps.Content
	if content == nil {
		content = site.New(config.Configuration{})
	}

	h := &handler{
		logger:      logger,
		leads:       deps.Leads,
		content:     content,
		grouping:    deps.Grouping,
		maxBodySize: maxBodySize,
		version:     trimmedVersion,
		limiter:     deps.Limiter,
		now:         time.Now,
	}
	if h.grouping == "" {
		h.grouping = format.Indian
	}
	h.pages = h.parsePages()
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(cfg.CORS.AllowedOrigins),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.logRequests)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"Retry-After"},
		MaxAge:         300,
	}))

	// The socket is long-lived, so it stays outside the timeout group.
	r.Get("/ws/emi", h.handleLiveCalculator)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))

		r.Get("/", h.handleHome)
		r.Get("/about", h.handleAbout)
		r.Get("/services", h.handleServices)
		r.Get("/calculator", h.handleCalculator)
		r.Get("/contact", h.handleContact)
		r.Post("/contact", h.handleContactSubmit)
		r.Post("/contact/feedback", h.handleFeedbackSubmit)

		r.Route("/api", func(r chi.Router) {
			r.Get("/health", h.handleHealth)
			r.Get("/version", h.handleVersion)
			r.Post("/emi", h.handleEMI)

			r.Route("/consultations", func(r chi.Router) {
				r.With(h.rateLimit).Post("/", h.handleCreateConsultation)
				r.Get("/", h.handleListConsultations)
				r.Get("/{id}", h.handleGetConsultation)
				r.Patch("/{id}/status", h.handleUpdateConsultationStatus)
			})
			r.With(h.rateLimit).Post("/feedback", h.handleCreateFeedback)

			r.NotFound(h.handleAPINotFound)
		})
	})

	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(fmt.Sprintf("failed to prepare embedded static files: %v", err))
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(sub))))

	r.NotFound(h.handleNotFound)

	return r
}

// logRequests logs every request once it has been served.
func (h *handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		fields := []zap.Field{
			zap.String("op", "server.request"),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("requestID", middleware.GetReqID(r.Context())),
			zap.String("remote", r.RemoteAddr),
		}
		if status >= http.StatusInternalServerError {
			h.logger.Error("request failed", fields...)
			return
		}
		h.logger.Debug("request served", fields...)
	})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response",
			zap.String("op", "server.writeJSON"),
			zap.Error(err),
		)
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		// Same-origin pages are always allowed.
		return strings.EqualFold(strings.TrimPrefix(strings.TrimPrefix(origin, "https://"), "http://"), r.Host)
	}
}

package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/voiceclone/voiceclone/internal/observe"
	"github.com/voiceclone/voiceclone/internal/tts"
	"github.com/voiceclone/voiceclone/internal/voice"
)

// VoiceService is the orchestration layer behind the /tts endpoints.
type VoiceService interface {
	ListVoices(ctx context.Context, f tts.VoiceFilter) ([]tts.Voice, error)
	Clone(ctx context.Context, sample io.Reader, filename string) (string, error)
	Synthesize(ctx context.Context, in voice.SynthesisInput) (*voice.SynthesisResult, error)
	CloneAndSynthesize(ctx context.Context, sample io.Reader, filename string, in voice.SynthesisInput) (*voice.SynthesisResult, error)
}

type RouterConfig struct {
	// PublicBaseURL prefixes returned file links, e.g. http://localhost:8000/static
	PublicBaseURL string

	// OutputDir is served under /static.
	OutputDir string

	// MaxUploadBytes caps multipart request bodies.
	MaxUploadBytes int64

	// Metrics and MetricsHandler are optional.
	Metrics        *observe.Metrics
	MetricsHandler http.Handler
}

type Router struct {
	cfg    RouterConfig
	logger *slog.Logger
	voice  VoiceService
	mux    chi.Router
}

const defaultMaxUploadBytes = 20 << 20

func NewRouter(cfg RouterConfig, logger *slog.Logger, svc VoiceService) http.Handler {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}

	r := &Router{
		cfg:    cfg,
		logger: logger,
		voice:  svc,
		mux:    chi.NewRouter(),
	}

	r.mux.Use(withSentryRecovery)
	r.mux.Use(cors.Handler(cors.Options{
		// Echo the caller's origin; a literal "*" is rejected by browsers
		// once credentials are allowed.
		AllowOriginFunc:  func(*http.Request, string) bool { return true },
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))
	if cfg.Metrics != nil {
		r.mux.Use(observe.Middleware(cfg.Metrics, logger))
	}

	r.routes()
	return r.mux
}

func (r *Router) routes() {
	r.mux.Get("/", r.handleRoot)
	r.mux.Get("/healthz", r.handleHealthz)
	if r.cfg.MetricsHandler != nil {
		r.mux.Method(http.MethodGet, "/metrics", r.cfg.MetricsHandler)
	}

	r.mux.Route("/tts", func(tr chi.Router) {
		tr.Get("/health", r.handleTTSHealth)
		tr.Get("/voices", r.handleListVoices)
		tr.Post("/voices", r.handleListVoices)
		tr.Post("/clone", r.handleClone)
		tr.Post("/clone-synthesize", r.handleCloneSynthesize)
		tr.Post("/synthesize", r.handleSynthesize)
	})

	if r.cfg.OutputDir != "" {
		r.mux.Handle("/static/*", http.StripPrefix("/static/", staticFiles(r.cfg.OutputDir)))
	}
}

func (r *Router) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Speechify TTS API"})
}

func (r *Router) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// staticFiles serves synthesized audio. Names starting with "_" belong to
// the transient upload area and are never served.
func staticFiles(dir string) http.Handler {
	fs := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		name := strings.TrimPrefix(req.URL.Path, "/")
		if name == "" || strings.HasPrefix(name, "_") || strings.Contains(name, "/") {
			http.NotFound(w, req)
			return
		}
		fs.ServeHTTP(w, req)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func withSentryRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				hub := sentry.CurrentHub().Clone()
				hub.Scope().SetRequest(req)
				hub.RecoverWithContext(req.Context(), err)
				hub.Flush(2 * time.Second)
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, req)
	})
}

// captureError sends an error to Sentry with request context
func captureError(req *http.Request, err error, msg string) {
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetRequest(req)
		scope.SetExtra("message", msg)
		sentry.CaptureException(err)
	})
}

package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hearthd/internal/contextengine"
	"hearthd/internal/license"
	"hearthd/internal/orchestrator"
	"hearthd/internal/proto"
	"hearthd/pkg/types"
)

// Orchestrator is the slice of the resource orchestrator the API layer
// consumes.
type Orchestrator interface {
	Request(name string, keepWarm bool) *orchestrator.SlotHandle
	Release(name string)
	Generate(ctx context.Context, task proto.Task) (proto.Result, error)
	Reload(ctx context.Context, modelPath string) (proto.Result, error)
	Status() types.StatusResponse
	CollapseToZero(force bool)
}

// ContextStore is the series-bible surface used by handlers.
type ContextStore interface {
	AddEntry(topic, content string) (int64, error)
	Retrieve(query string, k int) ([]contextengine.Entry, error)
	AddShadowNode(description string) (int64, error)
	OpenShadowNodes() ([]string, error)
	AugmentPrompt(query string, includeShadowNodes bool) (string, string, error)
	SetVisualState(character, description string) error
	VisualState(character string) (string, error)
}

// VoiceSynth produces cached wav files for character speech.
type VoiceSynth interface {
	Synthesize(text, voice string) (string, error)
}

// Config wires the collaborators behind the HTTP surface. Context and
// Voice may be nil; their endpoints then answer 503.
type Config struct {
	Orchestrator Orchestrator
	Models       []types.Model
	License      *license.Validator
	Context      ContextStore
	Voice        VoiceSynth
	// DefaultModel names the generation model used when a request does
	// not pick one.
	DefaultModel string
	// GenTimeout bounds one generate round-trip; 0 means the default.
	GenTimeout time.Duration
}

// Server holds the wired collaborators for the handler set.
type Server struct {
	orch       Orchestrator
	models     []types.Model
	lic        *license.Validator
	store      ContextStore
	voice      VoiceSynth
	defModel   string
	genTimeout time.Duration
}

// NewMux builds the chi router with the full hearthd API surface.
func NewMux(cfg Config) http.Handler {
	s := &Server{
		orch:       cfg.Orchestrator,
		models:     cfg.Models,
		lic:        cfg.License,
		store:      cfg.Context,
		voice:      cfg.Voice,
		defModel:   cfg.DefaultModel,
		genTimeout: cfg.GenTimeout,
	}
	if s.lic == nil {
		s.lic = license.FromEnv()
	}
	if s.genTimeout <= 0 {
		s.genTimeout = defaultGenTimeout
	}

	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	r.Use(MetricsMiddleware)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/generate", s.handleGenerate)
		r.Get("/status", s.handleStatus)
		r.Get("/models", s.handleModels)
		r.Post("/collapse", s.handleCollapse)
		r.Post("/reload", s.handleReload)
		r.Post("/voice", s.handleVoice)
		r.Get("/context", s.handleContextQuery)
		r.Post("/context", s.handleContextAdd)
		r.Get("/context/shadow", s.handleShadowList)
		r.Post("/context/shadow", s.handleShadowAdd)
		r.Get("/context/visual", s.handleVisualGet)
		r.Post("/context/visual", s.handleVisualSet)
	})

	r.Get("/hearth/stream", s.handleStream)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", s.handleReady)

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return r
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.orch.Status())
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"models": s.models})
}

func (s *Server) handleCollapse(w http.ResponseWriter, r *http.Request) {
	force := r.URL.Query().Get("force") == "1"
	s.orch.CollapseToZero(force)
	writeJSON(w, http.StatusOK, map[string]any{"status": "collapsed", "force": force})
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Model string `json:"model"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	path := s.modelPath(req.Model)
	if path == "" {
		writeJSONError(w, http.StatusNotFound, "unknown model: "+req.Model)
		return
	}
	ctx, cancel := joinContexts(serverBaseCtx, r.Context())
	defer cancel()
	ctx, tcancel := context.WithTimeout(ctx, s.genTimeout)
	defer tcancel()
	res, err := s.orch.Reload(ctx, path)
	if err != nil {
		writeJSONError(w, http.StatusBadGateway, err.Error())
		return
	}
	if res.Fatal || res.Error != "" {
		writeJSONError(w, http.StatusInternalServerError, res.Error)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": res.Status, "path": res.Path})
}

// handleReady reports readiness: the daemon is ready as soon as the mux is
// up, since every model loads lazily.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready"))
}

// modelPath resolves a request's model name, falling back to the default.
func (s *Server) modelPath(name string) string {
	if name == "" {
		name = s.defModel
	}
	return pathFor(s.models, name)
}

func (s *Server) modelName(name string) string {
	if name == "" {
		return s.defModel
	}
	return name
}

func pathFor(models []types.Model, name string) string {
	for _, m := range models {
		if m.ID == name || m.Name == name {
			return m.Path
		}
	}
	return ""
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zlog.Error().Err(err).Msg("encode response")
	}
}

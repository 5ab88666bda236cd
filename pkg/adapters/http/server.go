package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/aretw0/plotline"
	"github.com/aretw0/plotline/internal/logging"
	"github.com/aretw0/plotline/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Engine defines the interface for the Plotline engine the server drives.
type Engine interface {
	Plans() []string
	Describe(name string) (domain.PlanInfo, error)
	StartSession(ctx context.Context, sessionID string) (*domain.ConversationSnapshot, error)
	Session(ctx context.Context, sessionID string) (*domain.ConversationSnapshot, error)
	DeleteSession(ctx context.Context, sessionID string) error
	ListSessions(ctx context.Context) ([]string, error)
	Turn(ctx context.Context, sessionID string, in domain.TurnInput) (*domain.TurnResult, error)
	Watch(ctx context.Context) (<-chan string, error)
}

// Server serves the Plotline HTTP API.
type Server struct {
	Engine  Engine
	Streams *StreamManager

	metrics http.Handler
	logger  *slog.Logger
}

// Option configures the handler.
type Option func(*Server)

// WithMetricsHandler exposes h on GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewHandler creates a new HTTP handler for the engine.
// Requests are validated against the embedded OpenAPI document before routing.
func NewHandler(engine Engine, opts ...Option) (http.Handler, error) {
	server := &Server{
		Engine: engine,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(server)
	}
	server.Streams = NewStreamManager(server.logger)

	doc, err := Spec()
	if err != nil {
		return nil, err
	}
	v, err := newValidator(doc, server.logger)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(enableCORS)
	r.Use(v.middleware)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(rawSpec)
	})
	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)
	r.Get("/plans", server.ListPlans)
	r.Get("/plans/{name}", server.GetPlan)
	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", server.ListSessions)
		r.Post("/", server.CreateSession)
		r.Get("/{id}", server.GetSession)
		r.Delete("/{id}", server.DeleteSession)
		r.Post("/{id}/turns", server.PostTurn)
	})
	r.Get("/events", server.SubscribeEvents)
	if server.metrics != nil {
		r.Method(http.MethodGet, "/metrics", server.metrics)
	}

	return r, nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if doc, err := Spec(); err == nil && doc.Info != nil {
		apiVersion = doc.Info.Version
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "plotline-http",
		"version":     plotline.Version,
		"api_version": apiVersion,
	})
}

// ListPlans handles the GET /plans request.
func (s *Server) ListPlans(w http.ResponseWriter, r *http.Request) {
	type summary struct {
		Name        string          `json:"name"`
		Kind        domain.PlanKind `json:"kind"`
		Description string          `json:"description,omitempty"`
	}
	plans := make([]summary, 0)
	for _, name := range s.Engine.Plans() {
		info, err := s.Engine.Describe(name)
		if err != nil {
			continue
		}
		plans = append(plans, summary{Name: info.Name, Kind: info.Kind, Description: info.Description})
	}
	writeJSON(w, http.StatusOK, plans)
}

// GetPlan handles the GET /plans/{name} request.
func (s *Server) GetPlan(w http.ResponseWriter, r *http.Request) {
	info, err := s.Engine.Describe(chi.URLParam(r, "name"))
	if err != nil {
		s.fail(w, "GetPlan", err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// ListSessions handles the GET /sessions request.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Engine.ListSessions(r.Context())
	if err != nil {
		s.fail(w, "ListSessions", err)
		return
	}
	writeJSON(w, http.StatusOK, ids)
}

// CreateSession handles the POST /sessions request. Without a session_id a UUID is assigned.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if body.SessionID == "" {
		body.SessionID = uuid.NewString()
	}

	snap, err := s.Engine.StartSession(r.Context(), body.SessionID)
	if err != nil {
		s.fail(w, "CreateSession", err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

// GetSession handles the GET /sessions/{id} request.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Engine.Session(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, "GetSession", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// DeleteSession handles the DELETE /sessions/{id} request.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Engine.DeleteSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, "DeleteSession", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PostTurn handles the POST /sessions/{id}/turns request.
func (s *Server) PostTurn(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	var in domain.TurnInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if in.Plan != "" {
		if _, err := s.Engine.Describe(in.Plan); err != nil {
			s.fail(w, "PostTurn", err)
			return
		}
	}

	res, err := s.Engine.Turn(r.Context(), sessionID, in)
	if err != nil {
		s.fail(w, "PostTurn", err)
		return
	}

	if res.Diff != nil {
		if payload, err := json.Marshal(res.Diff); err == nil {
			s.Streams.Broadcast(sessionID, string(payload))
		}
	}

	writeJSON(w, http.StatusOK, res)
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnknownPlan), errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionExists):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnknownAction),
		errors.Is(err, domain.ErrCycleDetected),
		errors.Is(err, domain.ErrTurnLimit),
		errors.Is(err, domain.ErrInvalidDefinition):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error(op+" failed", "err", err)
	} else {
		s.logger.Debug(op+" rejected", "status", status, "err", err)
	}
	writeError(w, status, err)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

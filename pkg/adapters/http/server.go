package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aretw0/switchboard/internal/logging"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/guardrail"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Engine defines the interface of the turn executor used by the transport.
type Engine interface {
	RunTurn(ctx context.Context, conversationID, message string) (*domain.TurnResult, error)
	Bootstrap(ctx context.Context) (*domain.TurnResult, error)
	Snapshot(ctx context.Context, conversationID string) (*domain.Snapshot, error)
	Handlers() []domain.HandlerInfo
}

// ChatRequest is the body of POST /chat and of each websocket frame.
type ChatRequest struct {
	ConversationID *string `json:"conversation_id,omitempty"`
	Message        string  `json:"message"`
}

// Server exposes an Engine over HTTP.
type Server struct {
	Engine  Engine
	Streams *StreamManager

	logger     *slog.Logger
	version    string
	corsOrigin string
	rps        float64
	burst      int
	gatherer   prometheus.Gatherer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger for request handling.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithVersion sets the version reported by /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// WithCORSOrigin sets the allowed browser origin. Empty disables CORS headers.
func WithCORSOrigin(origin string) Option {
	return func(s *Server) {
		s.corsOrigin = origin
	}
}

// WithRateLimit limits each client IP to rps requests per second.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) {
		s.rps = rps
		s.burst = burst
	}
}

// WithGatherer sets the metrics source served on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// NewServer creates a Server for engine.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		Engine:   engine,
		logger:   logging.NewNop(),
		version:  "dev",
		gatherer: prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams = NewStreamManager(s.logger)
	return s
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	return NewServer(engine, opts...).Routes()
}

// Routes builds the chi router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS(s.corsOrigin))

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		spec, err := rawSpec()
		if err != nil {
			http.Error(w, "Failed to load spec", http.StatusInternalServerError)
			s.logger.Error("Failed to load OpenAPI spec", "err", err)
			return
		}
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(spec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})

	r.Group(func(r chi.Router) {
		if s.rps > 0 {
			r.Use(rateLimit(s.rps, s.burst))
		}
		r.Post("/chat", s.Chat)
		r.Get("/chat/bootstrap", s.Bootstrap)
		r.Get("/chat/state", s.GetState)
		r.Get("/agents", s.ListAgents)
		r.Get("/events", s.SubscribeEvents)
		r.Get("/ws", s.ChatSocket)
	})
	return r
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Switchboard API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// Chat handles the POST /chat request.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var body ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		s.logger.Warn("Chat: Invalid request body", "err", err)
		return
	}

	res, status, err := s.turn(r.Context(), body)
	if err != nil {
		writeError(w, status, err.Error())
		return
	}
	if err := writeJSON(w, http.StatusOK, res); err != nil {
		s.logger.Error("Chat response encode failed", "err", err)
	}
}

// turn sanitizes the request, runs it and broadcasts the result.
// The returned status is meaningful only with a non-nil error.
func (s *Server) turn(ctx context.Context, req ChatRequest) (*domain.TurnResult, int, error) {
	msg := req.Message
	if msg != "" {
		clean, err := guardrail.SanitizeInput(msg)
		if err != nil {
			s.logger.Warn("Chat: Input rejected", "err", err, "size", len(msg))
			return nil, http.StatusBadRequest, fmt.Errorf("invalid input: %w", err)
		}
		msg = clean
	}

	var id string
	if req.ConversationID != nil {
		id = *req.ConversationID
	}

	res, err := s.Engine.RunTurn(ctx, id, msg)
	if err != nil {
		s.logger.Error("Turn failed", "conversation_id", id, "err", err)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, http.StatusServiceUnavailable, errors.New("turn abandoned")
		}
		return nil, http.StatusInternalServerError, errors.New("turn failed")
	}

	if payload, err := json.Marshal(res); err == nil {
		s.Streams.Broadcast(res.ConversationID, payload)
	}
	return res, 0, nil
}

// Bootstrap handles the GET /chat/bootstrap request.
func (s *Server) Bootstrap(w http.ResponseWriter, r *http.Request) {
	res, err := s.Engine.Bootstrap(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "bootstrap failed")
		s.logger.Error("Bootstrap failed", "err", err)
		return
	}
	if err := writeJSON(w, http.StatusOK, res); err != nil {
		s.logger.Error("Bootstrap response encode failed", "err", err)
	}
}

// GetState handles the GET /chat/state request.
func (s *Server) GetState(w http.ResponseWriter, r *http.Request) {
	id, ok := s.conversationParam(w, r)
	if !ok {
		return
	}

	snap, err := s.Engine.Snapshot(r.Context(), id)
	switch {
	case errors.Is(err, domain.ErrConversationNotFound):
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "failed to load conversation")
		s.logger.Error("GetState failed", "conversation_id", id, "err", err)
		return
	}
	if err := writeJSON(w, http.StatusOK, snap); err != nil {
		s.logger.Error("GetState response encode failed", "err", err)
	}
}

// ListAgents handles the GET /agents request.
func (s *Server) ListAgents(w http.ResponseWriter, r *http.Request) {
	if err := writeJSON(w, http.StatusOK, s.Engine.Handlers()); err != nil {
		s.logger.Error("ListAgents response encode failed", "err", err)
	}
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	_ = writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	}
	_ = writeJSON(w, http.StatusOK, map[string]string{
		"app":         "switchboard-http",
		"version":     s.version,
		"api_version": apiVersion,
	})
}

// SubscribeEvents handles the GET /events request (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}
	id, ok := s.conversationParam(w, r)
	if !ok {
		return
	}

	ch, cancel := s.Streams.Subscribe(id)
	defer cancel()
	s.logger.Info("SSE: Subscribing to conversation", "conversation_id", id)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE Client Disconnected", "conversation_id", id)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: turn\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func (s *Server) conversationParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	var id string
	if err := runtime.BindQueryParameter("form", true, true, "conversation_id", r.URL.Query(), &id); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid format for parameter conversation_id: %v", err))
		return "", false
	}
	if id == "" {
		writeError(w, http.StatusBadRequest, "conversation_id is required")
		return "", false
	}
	return id, true
}

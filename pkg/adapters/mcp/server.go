package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/switchboard/internal/logging"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/guardrail"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mitchellh/mapstructure"
)

// AgentsURI is the resource listing the handler roster.
const AgentsURI = "switchboard://agents"

// Engine defines the interface required by the MCP server.
type Engine interface {
	RunTurn(ctx context.Context, conversationID, message string) (*domain.TurnResult, error)
	Snapshot(ctx context.Context, conversationID string) (*domain.Snapshot, error)
	Handlers() []domain.HandlerInfo
}

// SendMessageArgs are the arguments of the send_message tool.
type SendMessageArgs struct {
	ConversationID string `mapstructure:"conversation_id"`
	Message        string `mapstructure:"message"`
}

// GetConversationArgs are the arguments of the get_conversation tool.
type GetConversationArgs struct {
	ConversationID string `mapstructure:"conversation_id"`
}

// Server wraps the executor and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, version string, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("switchboard-mcp", version),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the SSE transport on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	sendTool := mcp.NewTool("send_message",
		mcp.WithDescription("Send a customer message to the airline service desk. Omit conversation_id to start a new conversation."),
		mcp.WithString("message", mcp.Required(), mcp.Description("The customer's message")),
		mcp.WithString("conversation_id", mcp.Description("Conversation to continue (optional)")),
		mcp.WithOutputSchema[domain.TurnResult](),
	)
	s.mcpServer.AddTool(sendTool, mcp.NewStructuredToolHandler(s.handleSendMessage))

	getTool := mcp.NewTool("get_conversation",
		mcp.WithDescription("Get the full history, context and activity log of a conversation."),
		mcp.WithString("conversation_id", mcp.Required(), mcp.Description("Conversation identifier")),
		mcp.WithOutputSchema[domain.Snapshot](),
	)
	s.mcpServer.AddTool(getTool, mcp.NewStructuredToolHandler(s.handleGetConversation))
}

func decodeArgs[T any](args map[string]any) (T, error) {
	var out T
	if err := mapstructure.Decode(args, &out); err != nil {
		return out, fmt.Errorf("invalid arguments: %w", err)
	}
	return out, nil
}

func (s *Server) handleSendMessage(ctx context.Context, _ mcp.CallToolRequest, raw map[string]any) (domain.TurnResult, error) {
	args, err := decodeArgs[SendMessageArgs](raw)
	if err != nil {
		return domain.TurnResult{}, err
	}

	clean, err := guardrail.SanitizeInput(args.Message)
	if err != nil {
		s.logger.Warn("MCP send_message: Input rejected", "err", err, "size", len(args.Message))
		return domain.TurnResult{}, fmt.Errorf("input rejected: %w", err)
	}

	res, err := s.engine.RunTurn(ctx, args.ConversationID, clean)
	if err != nil {
		s.logger.Error("MCP send_message: Turn failed", "conversation_id", args.ConversationID, "err", err)
		return domain.TurnResult{}, fmt.Errorf("turn failed: %w", err)
	}
	return *res, nil
}

func (s *Server) handleGetConversation(ctx context.Context, _ mcp.CallToolRequest, raw map[string]any) (domain.Snapshot, error) {
	args, err := decodeArgs[GetConversationArgs](raw)
	if err != nil {
		return domain.Snapshot{}, err
	}
	if args.ConversationID == "" {
		return domain.Snapshot{}, errors.New("conversation_id is required")
	}

	snap, err := s.engine.Snapshot(ctx, args.ConversationID)
	if err != nil {
		return domain.Snapshot{}, err
	}
	return *snap, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(AgentsURI, "Handler Roster",
		mcp.WithResourceDescription("Handlers, their tools, transfer targets and required filters."),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.engine.Handlers())
		if err != nil {
			return nil, fmt.Errorf("failed to encode handlers: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      AgentsURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/plotline"
	"github.com/aretw0/plotline/internal/logging"
	"github.com/aretw0/plotline/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// PlansURI is the resource listing every registered plan.
const PlansURI = "plotline://plans"

// Engine defines the interface required by the MCP server to interact with Plotline.
type Engine interface {
	Plans() []string
	Describe(name string) (domain.PlanInfo, error)
	Session(ctx context.Context, sessionID string) (*domain.ConversationSnapshot, error)
	Turn(ctx context.Context, sessionID string, in domain.TurnInput) (*domain.TurnResult, error)
}

// TurnArgs are the arguments of the turn tool.
type TurnArgs struct {
	SessionID string         `json:"session_id"`
	Intent    string         `json:"intent"`
	Slots     map[string]any `json:"slots,omitempty"`
	Plan      string         `json:"plan,omitempty"`
}

// TurnResponse aligns with the HTTP turn response.
type TurnResponse struct {
	SessionID string                       `json:"session_id" jsonschema_description:"The session the turn ran on"`
	Actions   []domain.ExecutedAction      `json:"actions" jsonschema_description:"Actions executed during the turn, in order"`
	State     *domain.ConversationSnapshot `json:"state" jsonschema_description:"The conversation after the turn"`
}

// Server wraps the Plotline Engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the MCP server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("plotline-mcp", plotline.Version),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer exposes the underlying server, mostly for in-process transports.
func (s *Server) MCPServer() *server.MCPServer { return s.mcpServer }

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and stops when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

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
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutting down MCP server")
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
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_plans",
		mcp.WithDescription("List the names of every registered plan."),
	), s.handleListPlans)

	s.mcpServer.AddTool(mcp.NewTool("describe_plan",
		mcp.WithDescription("Get the definition, description and actions of a plan."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Plan name")),
	), s.handleDescribePlan)

	turnTool := mcp.NewTool("turn",
		mcp.WithDescription("Process one user message: update slots, optionally activate a plan, then run actions until the engine listens."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Conversation session ID; created on first use")),
		mcp.WithString("intent", mcp.Required(), mcp.Description("Recognized intent of the user message")),
		mcp.WithObject("slots", mcp.Description("Slot values extracted from the message")),
		mcp.WithString("plan", mcp.Description("Plan to activate before deciding (optional)")),
		mcp.WithOutputSchema[TurnResponse](),
	)
	s.mcpServer.AddTool(turnTool, mcp.NewStructuredToolHandler(s.handleTurn))

	s.mcpServer.AddTool(mcp.NewTool("inspect_session",
		mcp.WithDescription("Get the stored conversation state of a session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Conversation session ID")),
	), s.handleInspectSession)
}

func (s *Server) handleListPlans(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.engine.Plans())
}

func (s *Server) handleDescribePlan(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	info, err := s.engine.Describe(name)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("describe failed: %v", err)), nil
	}
	return jsonResult(info)
}

func (s *Server) handleTurn(ctx context.Context, request mcp.CallToolRequest, args TurnArgs) (TurnResponse, error) {
	if args.SessionID == "" {
		return TurnResponse{}, errors.New("session_id is required")
	}
	res, err := s.engine.Turn(ctx, args.SessionID, domain.TurnInput{
		Intent: args.Intent,
		Slots:  args.Slots,
		Plan:   args.Plan,
	})
	if err != nil {
		s.logger.Warn("MCP turn failed", "session_id", args.SessionID, "err", err)
		return TurnResponse{}, fmt.Errorf("turn failed: %w", err)
	}
	return TurnResponse{SessionID: res.SessionID, Actions: res.Actions, State: res.State}, nil
}

func (s *Server) handleInspectSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	snap, err := s.engine.Session(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("inspect failed: %v", err)), nil
	}
	return jsonResult(snap)
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(PlansURI, "Registered plans",
		mcp.WithResourceDescription("Every plan with its kind and description"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		plans := make([]domain.PlanInfo, 0)
		for _, name := range s.engine.Plans() {
			info, err := s.engine.Describe(name)
			if err != nil {
				return nil, fmt.Errorf("failed to describe plan %s: %w", name, err)
			}
			plans = append(plans, info)
		}
		data, err := json.Marshal(plans)
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      PlansURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

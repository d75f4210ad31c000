package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/skphelp/internal/logging"
	"github.com/aretw0/skphelp/pkg/domain"
	"github.com/aretw0/skphelp/pkg/helpdesk"
	"github.com/aretw0/skphelp/pkg/troubleshoot"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const graphURI = "skphelp://graph"

// StepResponse is the result of every troubleshooting tool.
type StepResponse struct {
	troubleshoot.View
	Notice string `json:"notice,omitempty" jsonschema_description:"Set when the session had to be restarted from the root"`
}

// Server exposes the troubleshooting flow and the FAQ to MCP clients.
type Server struct {
	svc       *troubleshoot.Service
	faqs      *helpdesk.FAQService
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance. faqs may be nil, in which case
// the search_faq tool is not registered.
func NewServer(svc *troubleshoot.Service, faqs *helpdesk.FAQService, version string, opts ...Option) *Server {
	s := &Server{
		svc:       svc,
		faqs:      faqs,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("skphelp-mcp", strings.TrimSpace(version)),
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

// ServeSSE starts the server on the given port using SSE and stops when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
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

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("start_troubleshooting",
		mcp.WithDescription("Start a guided E-Kinerja troubleshooting session at the first question."),
		mcp.WithOutputSchema[StepResponse](),
	), mcp.NewStructuredToolHandler(s.handleStart))

	s.mcpServer.AddTool(mcp.NewTool("choose_option",
		mcp.WithDescription("Answer the current question by choosing one of its options."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session returned by start_troubleshooting")),
		mcp.WithString("next_id", mcp.Required(), mcp.Description("The next_id of the chosen option")),
		mcp.WithOutputSchema[StepResponse](),
	), mcp.NewStructuredToolHandler(s.handleChoose))

	s.mcpServer.AddTool(mcp.NewTool("go_back",
		mcp.WithDescription("Return to the previous question. Does nothing at the first question."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithOutputSchema[StepResponse](),
	), mcp.NewStructuredToolHandler(s.handleBack))

	s.mcpServer.AddTool(mcp.NewTool("restart",
		mcp.WithDescription("Restart the session from the first question."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithOutputSchema[StepResponse](),
	), mcp.NewStructuredToolHandler(s.handleRestart))

	s.mcpServer.AddTool(mcp.NewTool("list_contacts",
		mcp.WithDescription("List the helpdesk officers who can be contacted directly."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jsonBytes, _ := json.Marshal(s.svc.Contacts().All())
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})

	if s.faqs == nil {
		return
	}
	s.mcpServer.AddTool(mcp.NewTool("search_faq",
		mcp.WithDescription("Search the SKP knowledge base. Newest entries come first."),
		mcp.WithString("query", mcp.Description("Words to look for in questions and answers")),
		mcp.WithString("category", mcp.Description("One of the FAQ categories, or Semua for all")),
	), s.handleSearchFAQ)
}

func (s *Server) handleStart(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (StepResponse, error) {
	return s.step(s.svc.Start(ctx))
}

func (s *Server) handleChoose(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (StepResponse, error) {
	sessionID, _ := args["session_id"].(string)
	nextID, _ := args["next_id"].(string)
	if strings.TrimSpace(nextID) == "" {
		return StepResponse{}, errors.New("next_id is required")
	}
	return s.step(s.svc.Advance(ctx, sessionID, strings.TrimSpace(nextID)))
}

func (s *Server) handleBack(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (StepResponse, error) {
	sessionID, _ := args["session_id"].(string)
	return s.step(s.svc.Back(ctx, sessionID))
}

func (s *Server) handleRestart(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (StepResponse, error) {
	sessionID, _ := args["session_id"].(string)
	return s.step(s.svc.Reset(ctx, sessionID))
}

// step turns a service result into a tool result. A session reset after an
// unknown node still carries a view, which is returned with a notice.
func (s *Server) step(view *troubleshoot.View, err error) (StepResponse, error) {
	if err != nil && view == nil {
		return StepResponse{}, err
	}
	resp := StepResponse{View: *view}
	if errors.Is(err, domain.ErrUnknownNode) {
		s.logger.Warn("MCP: session restarted", "session_id", view.SessionID, "err", err)
		resp.Notice = err.Error()
	}
	return resp, nil
}

func (s *Server) handleSearchFAQ(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	query, _ := args["query"].(string)
	category, _ := args["category"].(string)

	items, err := s.faqs.Search(ctx, query, category)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	jsonBytes, _ := json.Marshal(items)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(graphURI, "E-Kinerja Troubleshooting Graph",
		mcp.WithMIMEType("application/json"),
	), s.readGraph)
}

func (s *Server) readGraph(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	nodes := s.svc.Graph().Nodes()
	views := make([]troubleshoot.NodeView, 0, len(nodes))
	for _, n := range nodes {
		views = append(views, troubleshoot.NewNodeView(n))
	}
	jsonBytes, err := json.Marshal(views)
	if err != nil {
		return nil, fmt.Errorf("failed to encode graph: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      graphURI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}

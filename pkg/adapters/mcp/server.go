// Package mcp exposes an engine as a Model Context Protocol server, so that other
// agents can hold a conversation through tool calls.
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

	"github.com/aretw0/concierge/internal/logging"
	"github.com/aretw0/concierge/internal/presentation/graph"
	"github.com/aretw0/concierge/pkg/domain"
	"github.com/aretw0/concierge/pkg/ports"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"
)

const (
	serverName = "concierge-mcp"

	graphURI    = "concierge://agent/graph"
	glossaryURI = "concierge://agent/glossary"
)

// Engine is the surface served over MCP.
type Engine interface {
	ports.TurnHandler
	Session(ctx context.Context, sessionID string) (*domain.Session, error)
	Agent() *domain.Agent
}

// TurnInput is the input of the handle_turn tool.
type TurnInput struct {
	SessionID string `json:"session_id" jsonschema_description:"Conversation to continue; created on first use"`
	Utterance string `json:"utterance" jsonschema_description:"What the user said"`
}

// TurnOutput is the output of the handle_turn tool.
type TurnOutput struct {
	Response    string              `json:"response" jsonschema_description:"The agent's reply"`
	SideEffects []domain.SideEffect `json:"side_effects" jsonschema_description:"Tool calls, journey and guideline events of the turn"`
	Journey     string              `json:"journey,omitempty" jsonschema_description:"Active journey after the turn"`
}

// SessionInput addresses a session.
type SessionInput struct {
	SessionID string `json:"session_id" jsonschema_description:"Conversation ID"`
}

// Server wraps the engine as an MCP server.
type Server struct {
	engine    Engine
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates the MCP server. A nil logger discards logs; stdio transports
// must never log to stdout.
func NewServer(engine Engine, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer(serverName, strings.TrimSpace(version), server.WithToolCapabilities(false)),
		logger:    logger,
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio serves on Stdin/Stdout until the input closes.
func (s *Server) ServeStdio() error {
	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}

// ServeSSE serves on addr using SSE until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sse := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sse.SSEHandler())
	mux.Handle("/message", sse.MessageHandler())
	httpServer := &http.Server{Addr: addr, Handler: mux}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("mcp server listening", "transport", "sse", "addr", addr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("handle_turn",
		mcp.WithDescription("Send one user utterance to the agent and get its reply."),
		mcp.WithInputSchema[TurnInput](),
		mcp.WithOutputSchema[TurnOutput](),
	), s.handleTurn)

	s.mcpServer.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Get the stored state of a conversation."),
		mcp.WithInputSchema[SessionInput](),
	), s.getSession)

	s.mcpServer.AddTool(mcp.NewTool("reset_session",
		mcp.WithDescription("Discard a conversation."),
		mcp.WithInputSchema[SessionInput](),
	), s.resetSession)

	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Get the journeys of the agent as a Mermaid flowchart."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText(graph.GenerateAgentMermaid(s.engine.Agent(), nil)), nil
	})
}

func (s *Server) handleTurn(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var in TurnInput
	if err := request.BindArguments(&in); err != nil {
		return mcp.NewToolResultErrorFromErr("invalid handle_turn arguments", err), nil
	}
	if in.SessionID == "" || strings.TrimSpace(in.Utterance) == "" {
		return mcp.NewToolResultError("session_id and utterance are required"), nil
	}

	res, err := s.engine.HandleTurn(ctx, in.SessionID, in.Utterance)
	if err != nil {
		s.logger.WarnContext(ctx, "mcp turn failed", "session_id", in.SessionID, "err", err)
		return mcp.NewToolResultErrorFromErr("turn failed", err), nil
	}

	out := TurnOutput{Response: res.Response, SideEffects: res.SideEffects}
	if out.SideEffects == nil {
		out.SideEffects = []domain.SideEffect{}
	}
	if res.Session != nil {
		out.Journey = res.Session.ActiveJourneyID
	}
	return mcp.NewToolResultStructured(out, res.Response), nil
}

func (s *Server) getSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var in SessionInput
	if err := request.BindArguments(&in); err != nil || in.SessionID == "" {
		return mcp.NewToolResultError("session_id is required"), nil
	}
	sess, err := s.engine.Session(ctx, in.SessionID)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("session lookup failed", err), nil
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) resetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var in SessionInput
	if err := request.BindArguments(&in); err != nil || in.SessionID == "" {
		return mcp.NewToolResultError("session_id is required"), nil
	}
	if err := s.engine.Reset(ctx, in.SessionID); err != nil {
		return mcp.NewToolResultErrorFromErr("reset failed", err), nil
	}
	return mcp.NewToolResultText("session reset"), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(graphURI, "Journey graph",
		mcp.WithMIMEType("text/plain"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      graphURI,
				MIMEType: "text/plain",
				Text:     graph.GenerateAgentMermaid(s.engine.Agent(), nil),
			},
		}, nil
	})

	s.mcpServer.AddResource(mcp.NewResource(glossaryURI, "Glossary",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := json.Marshal(s.engine.Agent().Terms)
		if err != nil {
			return nil, fmt.Errorf("failed to encode glossary: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      glossaryURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}

// Package bridge exposes local tools, AI chat and the MCP session registry
// as a synchronous JSON-RPC endpoint over a line-delimited stream, normally
// the agent's own stdin/stdout.
package bridge

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/armatrix/agent-bridge-go/ai"
	"github.com/armatrix/agent-bridge-go/jsonrpc"
	"github.com/armatrix/agent-bridge-go/mcp"
	"github.com/armatrix/agent-bridge-go/tools"
)

// maxLineBytes bounds a single inbound request line.
const maxLineBytes = 10 << 20

// AIClientFactory builds the chat client for ai.init. Injectable for tests.
type AIClientFactory func(cfg ai.ClientConfig) (ai.Client, error)

// handlerFunc handles one method: it returns a result to marshal, or an
// error object.
type handlerFunc func(ctx context.Context, params json.RawMessage) (any, *jsonrpc.Error)

// Server dispatches JSON-RPC requests to the local tool registry, the AI
// client, and the MCP session registry. Requests are handled strictly in
// arrival order.
type Server struct {
	tools       *tools.Registry
	mcp         *mcp.Registry
	logger      *slog.Logger
	toolTimeout time.Duration
	newAIClient AIClientFactory
	usage       *ai.UsageTracker

	aiMu     sync.RWMutex
	aiClient ai.Client

	methods map[string]handlerFunc
}

// NewServer creates a bridge over the given tool registry and MCP registry.
func NewServer(toolRegistry *tools.Registry, mcpRegistry *mcp.Registry, opts ...Option) *Server {
	s := &Server{
		tools:       toolRegistry,
		mcp:         mcpRegistry,
		logger:      slog.Default(),
		newAIClient: ai.NewClient,
		usage:       ai.NewUsageTracker(nil),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.methods = map[string]handlerFunc{
		"tool.execute":   s.handleToolExecute,
		"ai.chat":        s.handleAIChat,
		"ai.init":        s.handleAIInit,
		"tools.list":     s.handleToolsList,
		"mcp.connect":    s.handleMCPConnect,
		"mcp.list_tools": s.handleMCPListTools,
		"mcp.call_tool":  s.handleMCPCallTool,
	}
	return s
}

// Usage returns the tracker accumulating chat token usage.
func (s *Server) Usage() *ai.UsageTracker { return s.usage }

// Run reads newline-delimited JSON-RPC requests from r until EOF, writing
// one response line per request to w. A line that does not parse as a
// request is answered with a parse error carrying a null id, and the loop
// continues.
func (s *Server) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	s.logger.Info("bridge started, listening for requests")

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		line := make([]byte, len(raw))
		copy(line, raw)

		var req jsonrpc.Request
		if err := json.Unmarshal(line, &req); err != nil || req.Method == "" {
			s.logger.Error("failed to parse request", "error", err)
			if werr := writeResponse(w, jsonrpc.ErrorResponse(nil, jsonrpc.ParseError())); werr != nil {
				return werr
			}
			continue
		}

		s.logger.Debug("handling request", "method", req.Method)
		if err := writeResponse(w, s.dispatch(ctx, &req)); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read requests: %w", err)
	}
	s.logger.Info("input closed, bridge shutting down")
	return nil
}

func (s *Server) dispatch(ctx context.Context, req *jsonrpc.Request) *jsonrpc.Response {
	handler, ok := s.methods[req.Method]
	if !ok {
		return jsonrpc.ErrorResponse(req.ID, jsonrpc.MethodNotFound(req.Method))
	}

	result, rpcErr := handler(ctx, req.Params)
	if rpcErr != nil {
		return jsonrpc.ErrorResponse(req.ID, rpcErr)
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return jsonrpc.ErrorResponse(req.ID, jsonrpc.InternalError("Failed to serialize response"))
	}
	return jsonrpc.SuccessResponse(req.ID, raw)
}

func writeResponse(w io.Writer, resp *jsonrpc.Response) error {
	line, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}
	line = append(line, '\n')
	if _, err := w.Write(line); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	return nil
}

// toolCall is the tool.execute params shape.
type toolCall struct {
	ID       string `json:"id"`
	Function struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	} `json:"function"`
}

func (s *Server) handleToolExecute(ctx context.Context, params json.RawMessage) (any, *jsonrpc.Error) {
	if len(params) == 0 {
		return nil, jsonrpc.InvalidParams("Missing params")
	}
	var call toolCall
	if err := json.Unmarshal(params, &call); err != nil {
		return nil, jsonrpc.InvalidParams("Invalid tool call: " + err.Error())
	}
	if call.Function.Name == "" {
		return nil, jsonrpc.InvalidParams("Invalid tool call: missing function name")
	}

	execCtx := ctx
	if s.toolTimeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, s.toolTimeout)
		defer cancel()
	}

	output, err := s.tools.Execute(execCtx, call.Function.Name, call.Function.Arguments)
	if err != nil {
		if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
			return nil, jsonrpc.InternalError(fmt.Sprintf("Tool execution timed out after %s", s.toolTimeout))
		}
		return nil, jsonrpc.InternalError("Tool execution failed: " + err.Error())
	}
	return map[string]any{"output": output}, nil
}

func (s *Server) handleAIChat(ctx context.Context, params json.RawMessage) (any, *jsonrpc.Error) {
	s.aiMu.RLock()
	client := s.aiClient
	s.aiMu.RUnlock()
	if client == nil {
		return nil, jsonrpc.InternalError("AI client not initialized")
	}

	if len(params) == 0 {
		return nil, jsonrpc.InvalidParams("Missing params")
	}
	var req ai.ChatRequest
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, jsonrpc.InvalidParams("Invalid chat request: " + err.Error())
	}

	resp, err := client.Chat(ctx, &req)
	if err != nil {
		return nil, jsonrpc.InternalError("AI chat failed: " + err.Error())
	}
	if resp.Usage != nil {
		s.usage.Record(resp.Model, *resp.Usage)
	}
	return resp, nil
}

// aiInitParams is the ai.init params shape.
type aiInitParams struct {
	Provider string `json:"provider"`
	APIKey   string `json:"apiKey"`
	BaseURL  string `json:"baseURL,omitempty"`
}

func (s *Server) handleAIInit(_ context.Context, params json.RawMessage) (any, *jsonrpc.Error) {
	if len(params) == 0 {
		return nil, jsonrpc.InvalidParams("Missing params")
	}
	var init aiInitParams
	if err := json.Unmarshal(params, &init); err != nil {
		return nil, jsonrpc.InvalidParams("Invalid init params: " + err.Error())
	}
	if init.APIKey == "" {
		return nil, jsonrpc.InvalidParams("Missing apiKey")
	}

	// Unknown provider names fall back to the default rather than failing.
	provider, err := ai.ParseProvider(init.Provider)
	if err != nil {
		provider = ai.ProviderOpenAI
	}

	client, err := s.newAIClient(ai.ClientConfig{
		Provider: provider,
		APIKey:   init.APIKey,
		BaseURL:  init.BaseURL,
	})
	if err != nil {
		return nil, jsonrpc.InternalError("Failed to initialize AI client: " + err.Error())
	}

	s.aiMu.Lock()
	s.aiClient = client
	s.aiMu.Unlock()

	s.logger.Info("AI client initialized", "provider", provider)
	return map[string]any{"status": "initialized"}, nil
}

func (s *Server) handleToolsList(context.Context, json.RawMessage) (any, *jsonrpc.Error) {
	return s.tools.Definitions(), nil
}

func (s *Server) handleMCPConnect(ctx context.Context, params json.RawMessage) (any, *jsonrpc.Error) {
	if len(params) == 0 {
		return nil, jsonrpc.InvalidParams("Missing params")
	}
	var configs []mcp.ServerConfig
	if err := json.Unmarshal(params, &configs); err != nil {
		return nil, jsonrpc.InvalidParams("Invalid server list: " + err.Error())
	}
	return s.mcp.ConnectAll(ctx, configs), nil
}

func (s *Server) handleMCPListTools(context.Context, json.RawMessage) (any, *jsonrpc.Error) {
	return s.mcp.AllTools(), nil
}

// mcpCallParams is the mcp.call_tool params shape.
type mcpCallParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

func (s *Server) handleMCPCallTool(ctx context.Context, params json.RawMessage) (any, *jsonrpc.Error) {
	if len(params) == 0 {
		return nil, jsonrpc.InvalidParams("Missing params")
	}
	var call mcpCallParams
	if err := json.Unmarshal(params, &call); err != nil {
		return nil, jsonrpc.InvalidParams("Invalid call params: " + err.Error())
	}
	if call.Name == "" {
		return nil, jsonrpc.InvalidParams("Missing tool name")
	}

	output, err := s.mcp.CallTool(ctx, call.Name, call.Arguments)
	if err != nil {
		return nil, jsonrpc.InternalError("MCP tool execution failed: " + err.Error())
	}
	return map[string]any{"output": output}, nil
}

package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// rpcSession is the slice of Transport the registry depends on. Tests
// substitute in-memory fakes.
type rpcSession interface {
	Send(ctx context.Context, method string, params any) (json.RawMessage, error)
	Close() error
}

// Registry holds named server sessions and the aggregated tool catalog.
//
// The catalog outlives its sessions: Disconnect removes the live session but
// keeps the server's tools registered, so a later CallTool distinguishes a
// tool that never existed (ErrToolNotFound) from one whose server is gone
// (ErrServerNotConnected).
//
// Tool name collisions across servers resolve last-registered-wins: the most
// recently connected server owns the name, and the shadowed entry is omitted
// from AllTools.
type Registry struct {
	logger *slog.Logger
	dial   func(ServerConfig) (rpcSession, error)

	mu          sync.Mutex
	sessions    map[string]rpcSession
	serverTools map[string][]ToolDefinition
	routes      map[string]string // tool name -> owning server
}

// NewRegistry creates an empty registry. A nil logger falls back to
// slog.Default().
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		logger: logger,
		dial: func(cfg ServerConfig) (rpcSession, error) {
			return Connect(cfg, logger)
		},
		sessions:    make(map[string]rpcSession),
		serverTools: make(map[string][]ToolDefinition),
		routes:      make(map[string]string),
	}
}

// Connect spawns the configured server, performs the initialize handshake,
// discovers its tools, and registers everything under cfg.Name. On any
// failure the session is torn down and no state is recorded. Reconnecting an
// already-registered name replaces its session and tools.
func (r *Registry) Connect(ctx context.Context, cfg ServerConfig) (int, error) {
	if err := cfg.Validate(); err != nil {
		return 0, err
	}

	session, err := r.dial(cfg)
	if err != nil {
		return 0, err
	}

	initRaw, err := session.Send(ctx, "initialize", InitializeParams{
		ProtocolVersion: ProtocolVersion,
		ClientInfo:      Implementation{Name: clientName, Version: clientVersion},
	})
	if err != nil {
		_ = session.Close()
		return 0, fmt.Errorf("initialize %q: %w", cfg.Name, err)
	}
	var initRes InitializeResult
	if err := json.Unmarshal(initRaw, &initRes); err != nil {
		_ = session.Close()
		return 0, fmt.Errorf("%w: initialize result for %q: %v", ErrProtocol, cfg.Name, err)
	}

	toolsRaw, err := session.Send(ctx, "tools/list", nil)
	if err != nil {
		_ = session.Close()
		return 0, fmt.Errorf("tools/list %q: %w", cfg.Name, err)
	}
	var listRes ListToolsResult
	if err := json.Unmarshal(toolsRaw, &listRes); err != nil {
		_ = session.Close()
		return 0, fmt.Errorf("%w: tools/list result for %q: %v", ErrProtocol, cfg.Name, err)
	}

	r.mu.Lock()
	if old, ok := r.sessions[cfg.Name]; ok {
		_ = old.Close()
	}
	r.sessions[cfg.Name] = session
	r.serverTools[cfg.Name] = listRes.Tools
	for tool := range r.routes {
		if r.routes[tool] == cfg.Name {
			delete(r.routes, tool)
		}
	}
	for _, tool := range listRes.Tools {
		r.routes[tool.Name] = cfg.Name
	}
	r.mu.Unlock()

	r.logger.Info("connected to server",
		"server", cfg.Name,
		"serverInfo", initRes.ServerInfo.Name,
		"tools", len(listRes.Tools))
	return len(listRes.Tools), nil
}

// ConnectAll connects every configured server concurrently. Failures are
// isolated per server; the returned slice parallels configs.
func (r *Registry) ConnectAll(ctx context.Context, configs []ServerConfig) []ConnectResult {
	results := make([]ConnectResult, len(configs))

	var wg sync.WaitGroup
	for i, cfg := range configs {
		wg.Add(1)
		go func(i int, cfg ServerConfig) {
			defer wg.Done()
			count, err := r.Connect(ctx, cfg)
			res := ConnectResult{ServerName: cfg.Name, Success: err == nil, ToolCount: count}
			if err != nil {
				res.Error = err.Error()
				r.logger.Warn("server connection failed", "server", cfg.Name, "error", err)
			}
			results[i] = res
		}(i, cfg)
	}
	wg.Wait()

	return results
}

// AllTools returns the aggregated catalog, sorted by tool name. Each
// description is tagged with the owning server; shadowed duplicates are
// omitted.
func (r *Registry) AllTools() []ToolDefinition {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Non-nil even when empty so callers serialize it as [].
	tools := make([]ToolDefinition, 0)
	for server, defs := range r.serverTools {
		for _, def := range defs {
			if r.routes[def.Name] != server {
				continue // shadowed by a later registration
			}
			tagged := def
			if def.Description != "" {
				tagged.Description = fmt.Sprintf("[MCP:%s] %s", server, def.Description)
			} else {
				tagged.Description = fmt.Sprintf("MCP tool from %s", server)
			}
			tools = append(tools, tagged)
		}
	}

	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })
	return tools
}

// CallTool routes a tool invocation to its owning server and returns the
// textual result: the first text block, or a JSON dump of all blocks when no
// text block is present. A result flagged isError comes back as *ToolError.
func (r *Registry) CallTool(ctx context.Context, toolName string, args map[string]any) (string, error) {
	r.mu.Lock()
	server, ok := r.routes[toolName]
	if !ok {
		r.mu.Unlock()
		return "", fmt.Errorf("%w: %q", ErrToolNotFound, toolName)
	}
	session, live := r.sessions[server]
	r.mu.Unlock()
	if !live {
		return "", fmt.Errorf("%w: %q (owns tool %q)", ErrServerNotConnected, server, toolName)
	}

	raw, err := session.Send(ctx, "tools/call", CallToolParams{Name: toolName, Arguments: args})
	if err != nil {
		return "", fmt.Errorf("call %q on %q: %w", toolName, server, err)
	}

	var result CallToolResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", fmt.Errorf("%w: tools/call result for %q: %v", ErrProtocol, toolName, err)
	}

	if result.IsError {
		msg, found := FirstText(result.Content)
		if !found {
			msg = "tool reported an error"
		}
		return "", &ToolError{Server: server, Tool: toolName, Message: msg}
	}

	if text, found := FirstText(result.Content); found {
		return text, nil
	}
	dump, err := json.Marshal(result.Content)
	if err != nil {
		return "", fmt.Errorf("%w: encode result content: %v", ErrProtocol, err)
	}
	return string(dump), nil
}

// Disconnect closes one server's session. Its tools stay in the catalog, so
// calling them afterwards reports ErrServerNotConnected.
func (r *Registry) Disconnect(name string) error {
	r.mu.Lock()
	session, ok := r.sessions[name]
	if ok {
		delete(r.sessions, name)
	}
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %q", ErrServerNotFound, name)
	}
	return session.Close()
}

// DisconnectAll closes every session and empties the catalog. Close failures
// are logged, not returned.
func (r *Registry) DisconnectAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]rpcSession)
	r.serverTools = make(map[string][]ToolDefinition)
	r.routes = make(map[string]string)
	r.mu.Unlock()

	for name, session := range sessions {
		if err := session.Close(); err != nil {
			r.logger.Warn("session close failed", "server", name, "error", err)
		}
	}
}

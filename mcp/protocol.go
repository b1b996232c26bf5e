package mcp

import "encoding/json"

// ProtocolVersion is the MCP revision this client speaks.
const ProtocolVersion = "2024-11-05"

const (
	clientName    = "agent-bridge"
	clientVersion = "1.0.0"
)

// InitializeParams is the payload of the initialize request.
type InitializeParams struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ClientCapabilities `json:"capabilities"`
	ClientInfo      Implementation     `json:"clientInfo"`
}

// ClientCapabilities advertises the features this client supports. Empty:
// the client consumes tools only.
type ClientCapabilities struct{}

// Implementation names a protocol party.
type Implementation struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// InitializeResult is the server's half of the handshake.
type InitializeResult struct {
	ProtocolVersion string          `json:"protocolVersion"`
	Capabilities    json.RawMessage `json:"capabilities,omitempty"`
	ServerInfo      Implementation  `json:"serverInfo"`
}

// ToolDefinition describes one tool exposed by a server.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"inputSchema,omitempty"`
}

// ListToolsResult is the payload of a tools/list response.
type ListToolsResult struct {
	Tools []ToolDefinition `json:"tools"`
}

// CallToolParams is the payload of a tools/call request.
type CallToolParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// CallToolResult is the payload of a tools/call response.
type CallToolResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

// ContentBlock is one element of a tool result. Type selects which of the
// remaining fields are meaningful: "text" carries Text; "image" carries
// Data and MimeType; "resource" carries Resource.
type ContentBlock struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	Data     string          `json:"data,omitempty"`
	MimeType string          `json:"mimeType,omitempty"`
	Resource json.RawMessage `json:"resource,omitempty"`
}

// FirstText returns the text of the first text block, if any.
func FirstText(blocks []ContentBlock) (string, bool) {
	for _, b := range blocks {
		if b.Type == "text" {
			return b.Text, true
		}
	}
	return "", false
}

// ConnectResult reports the outcome of one server connection attempt.
type ConnectResult struct {
	ServerName string `json:"serverName"`
	Success    bool   `json:"success"`
	ToolCount  int    `json:"toolCount,omitempty"`
	Error      string `json:"error,omitempty"`
}

package mcp

import (
	"errors"
	"fmt"
)

// Sentinel errors for transport and registry failures. Callers should match
// with errors.Is; wrapped variants carry the server or tool context.
var (
	// ErrInvalidConfig indicates a server config with no command.
	ErrInvalidConfig = errors.New("invalid server config")

	// ErrSpawn indicates the server subprocess could not be started.
	ErrSpawn = errors.New("failed to spawn server process")

	// ErrTransport indicates an I/O failure on the underlying stream.
	ErrTransport = errors.New("transport error")

	// ErrTransportClosed indicates a send on a transport that has been
	// closed or whose stream has reached EOF.
	ErrTransportClosed = errors.New("transport closed")

	// ErrRequestCanceled resolves requests left pending when the transport
	// shuts down before their responses arrive.
	ErrRequestCanceled = errors.New("request canceled: transport closed")

	// ErrProtocol indicates a malformed or unexpected server payload.
	ErrProtocol = errors.New("protocol error")

	// ErrToolNotFound indicates a tool name absent from the catalog.
	ErrToolNotFound = errors.New("tool not found")

	// ErrServerNotFound indicates a server name absent from the registry.
	ErrServerNotFound = errors.New("server not found")

	// ErrServerNotConnected indicates a known tool whose owning server has
	// no live session.
	ErrServerNotConnected = errors.New("server not connected")
)

// ToolError reports a tool execution that the server itself flagged as
// failed (isError on the call result). Message is the tool's own text.
type ToolError struct {
	Server  string
	Tool    string
	Message string
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("tool %q on server %q failed: %s", e.Tool, e.Server, e.Message)
}

// Package jsonrpc defines the JSON-RPC 2.0 wire types shared by the MCP
// transport and the bridge dispatcher. Messages are framed as one JSON
// object per line, newline-terminated.
package jsonrpc

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Version is the JSON-RPC protocol version carried by every message.
const Version = "2.0"

// Standard JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Request is a JSON-RPC 2.0 request message. The ID is kept raw so that
// requests without an id still round-trip: the bridge answers every inbound
// line, echoing a null id when the request carried none.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// NewRequest creates a request with a numeric id, marshaling params in place.
func NewRequest(id int64, method string, params any) (*Request, error) {
	req := &Request{
		JSONRPC: Version,
		ID:      NumberID(id),
		Method:  method,
	}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("marshal params: %w", err)
		}
		req.Params = raw
	}
	return req, nil
}

// Response is a JSON-RPC 2.0 response message. Exactly one of Result or
// Error is set in a well-formed response. A nil ID marshals as null.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// SuccessResponse builds a response carrying the given result.
func SuccessResponse(id json.RawMessage, result json.RawMessage) *Response {
	return &Response{JSONRPC: Version, ID: id, Result: result}
}

// ErrorResponse builds a response carrying the given error.
func ErrorResponse(id json.RawMessage, rpcErr *Error) *Response {
	return &Response{JSONRPC: Version, ID: id, Error: rpcErr}
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// ParseError reports an inbound line that could not be parsed as a request.
func ParseError() *Error {
	return &Error{Code: CodeParseError, Message: "Parse error"}
}

// MethodNotFound reports a method missing from the dispatch table.
func MethodNotFound(method string) *Error {
	return &Error{Code: CodeMethodNotFound, Message: "Method not found: " + method}
}

// InvalidParams reports missing or malformed request params.
func InvalidParams(msg string) *Error {
	return &Error{Code: CodeInvalidParams, Message: msg}
}

// InternalError reports any non-protocol handler failure.
func InternalError(msg string) *Error {
	return &Error{Code: CodeInternalError, Message: msg}
}

// NumberID encodes a numeric request id.
func NumberID(id int64) json.RawMessage {
	return json.RawMessage(strconv.FormatInt(id, 10))
}

// ParseNumberID decodes a raw id as a number. Returns false for absent,
// null, or non-numeric ids.
func ParseNumberID(raw json.RawMessage) (int64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	id, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// Package tools provides the local tool capability: a typed tool interface,
// a registry that executes tools by name, and the builtin tool set.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/armatrix/agent-bridge-go/internal/schema"
)

// ErrToolNotFound indicates a name absent from the registry.
var ErrToolNotFound = errors.New("tool not found")

// Tool is the generic interface for local tools. The type parameter T defines
// the input struct that arguments are deserialized into.
type Tool[T any] interface {
	Name() string
	Description() string
	Execute(ctx context.Context, input T) (string, error)
}

// Definition is the OpenAI-compatible function shape tools are advertised in.
type Definition struct {
	Type     string      `json:"type"`
	Function FunctionDef `json:"function"`
}

// FunctionDef carries a tool's name, description and input schema.
type FunctionDef struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ExecutionError wraps a failure inside a tool, keeping the tool name.
type ExecutionError struct {
	Tool string
	Err  error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("tool %q: %v", e.Tool, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// entry is the type-erased wrapper stored in the registry.
type entry struct {
	name        string
	description string
	parameters  map[string]any
	execute     func(ctx context.Context, raw json.RawMessage) (string, error)
}

// Registry manages registered tools. It is concurrent-safe.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*entry
	order []string // preserve registration order
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*entry)}
}

// Register adds a generic tool. The input type T is used to auto-generate a
// JSON Schema for the definition. Re-registering a name replaces the tool.
func Register[T any](r *Registry, tool Tool[T]) {
	name := tool.Name()
	e := &entry{
		name:        name,
		description: tool.Description(),
		parameters:  schema.Generate[T](),
		execute: func(ctx context.Context, raw json.RawMessage) (string, error) {
			var input T
			if len(raw) > 0 {
				if err := json.Unmarshal(raw, &input); err != nil {
					return "", &ExecutionError{Tool: name, Err: fmt.Errorf("invalid input: %w", err)}
				}
			}
			out, err := tool.Execute(ctx, input)
			if err != nil {
				return "", &ExecutionError{Tool: name, Err: err}
			}
			return out, nil
		},
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[name]; !exists {
		r.order = append(r.order, name)
	}
	r.tools[name] = e
}

// Execute runs a tool by name with the given arguments.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (string, error) {
	r.mu.RLock()
	e, ok := r.tools[name]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrToolNotFound, name)
	}

	raw, err := json.Marshal(args)
	if err != nil {
		return "", &ExecutionError{Tool: name, Err: fmt.Errorf("encode arguments: %w", err)}
	}
	return e.execute(ctx, raw)
}

// Definitions returns all registered tools in registration order.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		e := r.tools[name]
		defs = append(defs, Definition{
			Type: "function",
			Function: FunctionDef{
				Name:        e.name,
				Description: e.description,
				Parameters:  e.parameters,
			},
		})
	}
	return defs
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// RegisterBuiltins adds the standard local tool set.
func RegisterBuiltins(r *Registry) {
	Register(r, &ReadFileTool{})
	Register(r, &CreateFileTool{})
	Register(r, &InsertLinesTool{})
	Register(r, &ReplaceLinesTool{})
	Register(r, &DeleteLinesTool{})
	Register(r, &FindFilesTool{})
	Register(r, &SearchFileContentsTool{})
	Register(r, &ExecuteBashTool{})
	Register(r, &WebFetchTool{})
}

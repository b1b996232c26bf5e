package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/armatrix/agent-bridge-go/jsonrpc"
)

// maxLineBytes bounds a single framed message; tool results can be large.
const maxLineBytes = 10 << 20

type pendingResult struct {
	result json.RawMessage
	err    error
}

// Transport correlates JSON-RPC requests with responses over a Stream.
// Requests carry monotonically increasing numeric ids; responses are matched
// to callers solely by id, so any number of requests may be in flight and
// responses may arrive in any order.
//
// When the transport closes, or the stream reaches EOF, every request still
// pending is resolved with ErrRequestCanceled rather than left hanging.
type Transport struct {
	stream Stream
	logger *slog.Logger

	writeMu sync.Mutex
	nextID  atomic.Int64

	mu      sync.Mutex
	pending map[int64]chan pendingResult
	closed  bool
}

// NewTransport wraps an existing stream and starts the background reader.
// A nil logger falls back to slog.Default().
func NewTransport(stream Stream, logger *slog.Logger) *Transport {
	if logger == nil {
		logger = slog.Default()
	}
	t := &Transport{
		stream:  stream,
		logger:  logger,
		pending: make(map[int64]chan pendingResult),
	}
	go t.readLoop()
	return t
}

// Connect spawns the configured server subprocess and returns a transport
// over its stdio pipes.
func Connect(cfg ServerConfig, logger *slog.Logger) (*Transport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	stream, err := newProcStream(cfg)
	if err != nil {
		return nil, err
	}
	if logger != nil {
		logger = logger.With("server", cfg.Name)
	}
	return NewTransport(stream, logger), nil
}

// Send issues one request and blocks until its response arrives, the context
// is done, or the transport shuts down. A JSON-RPC error object from the
// server is returned as a *jsonrpc.Error.
func (t *Transport) Send(ctx context.Context, method string, params any) (json.RawMessage, error) {
	id := t.nextID.Add(1)
	ch := make(chan pendingResult, 1)

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil, ErrTransportClosed
	}
	t.pending[id] = ch
	t.mu.Unlock()

	req, err := jsonrpc.NewRequest(id, method, params)
	if err != nil {
		t.forget(id)
		return nil, err
	}
	line, err := json.Marshal(req)
	if err != nil {
		t.forget(id)
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	line = append(line, '\n')

	t.writeMu.Lock()
	_, werr := t.stream.Write(line)
	t.writeMu.Unlock()
	if werr != nil {
		t.forget(id)
		return nil, fmt.Errorf("%w: write %s: %v", ErrTransport, method, werr)
	}

	select {
	case <-ctx.Done():
		// The slot is removed now; a response arriving later is discarded
		// by the read loop as unmatched.
		t.forget(id)
		return nil, ctx.Err()
	case res := <-ch:
		if res.err != nil {
			return nil, res.err
		}
		return res.result, nil
	}
}

// Close shuts the transport down: all pending requests resolve with
// ErrRequestCanceled and the stream is closed. Safe to call more than once.
func (t *Transport) Close() error {
	t.shutdown()
	return t.stream.Close()
}

// forget removes a pending slot without resolving it.
func (t *Transport) forget(id int64) {
	t.mu.Lock()
	if t.pending != nil {
		delete(t.pending, id)
	}
	t.mu.Unlock()
}

// shutdown marks the transport closed and cancels every pending request.
func (t *Transport) shutdown() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	pending := t.pending
	t.pending = nil
	t.mu.Unlock()

	for id, ch := range pending {
		ch <- pendingResult{err: ErrRequestCanceled}
		t.logger.Debug("canceled pending request", "id", id)
	}
}

func (t *Transport) readLoop() {
	scanner := bufio.NewScanner(t.stream)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	for scanner.Scan() {
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		// The scanner reuses its buffer across lines; RawMessage fields
		// would alias it, so take a copy before unmarshaling.
		line := make([]byte, len(raw))
		copy(line, raw)

		var resp jsonrpc.Response
		if err := json.Unmarshal(line, &resp); err != nil {
			t.logger.Debug("discarding unparseable line", "error", err)
			continue
		}

		id, ok := jsonrpc.ParseNumberID(resp.ID)
		if !ok {
			t.logger.Debug("discarding response without numeric id")
			continue
		}

		t.mu.Lock()
		ch, found := t.pending[id]
		if found {
			delete(t.pending, id)
		}
		t.mu.Unlock()

		if !found {
			// Unknown or duplicate id; nothing is waiting.
			t.logger.Debug("discarding unmatched response", "id", id)
			continue
		}

		if resp.Error != nil {
			ch <- pendingResult{err: resp.Error}
		} else {
			ch <- pendingResult{result: resp.Result}
		}
	}

	if err := scanner.Err(); err != nil {
		t.logger.Debug("transport read loop ended", "error", err)
	}
	t.shutdown()
}

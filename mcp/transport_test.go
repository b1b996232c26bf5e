package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armatrix/agent-bridge-go/jsonrpc"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// pipeTransport returns a transport and the far end of its stream.
func pipeTransport(t *testing.T) (*Transport, net.Conn) {
	t.Helper()
	client, server := net.Pipe()
	tr := NewTransport(client, testLogger())
	t.Cleanup(func() {
		_ = tr.Close()
		_ = server.Close()
	})
	return tr, server
}

func readRequestLine(t *testing.T, r *bufio.Reader) jsonrpc.Request {
	t.Helper()
	line, err := r.ReadBytes('\n')
	require.NoError(t, err)
	var req jsonrpc.Request
	require.NoError(t, json.Unmarshal(line, &req))
	return req
}

func writeLine(t *testing.T, w io.Writer, line string) {
	t.Helper()
	_, err := io.WriteString(w, line+"\n")
	require.NoError(t, err)
}

func TestSendCorrelatesResponse(t *testing.T) {
	tr, server := pipeTransport(t)
	reader := bufio.NewReader(server)

	type out struct {
		raw json.RawMessage
		err error
	}
	done := make(chan out, 1)
	go func() {
		raw, err := tr.Send(context.Background(), "tools/list", nil)
		done <- out{raw, err}
	}()

	req := readRequestLine(t, reader)
	assert.Equal(t, "tools/list", req.Method)
	id, ok := jsonrpc.ParseNumberID(req.ID)
	require.True(t, ok)

	writeLine(t, server, fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"result":{"tools":[]}}`, id))

	res := <-done
	require.NoError(t, res.err)
	assert.JSONEq(t, `{"tools":[]}`, string(res.raw))
}

func TestOutOfOrderResponses(t *testing.T) {
	tr, server := pipeTransport(t)
	reader := bufio.NewReader(server)

	const n = 5
	results := make(chan string, n)
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			raw, err := tr.Send(context.Background(), "echo", nil)
			if err != nil {
				errs <- err
				return
			}
			var got string
			errs <- json.Unmarshal(raw, &got)
			results <- got
		}()
	}

	ids := make([]int64, 0, n)
	for i := 0; i < n; i++ {
		req := readRequestLine(t, reader)
		id, ok := jsonrpc.ParseNumberID(req.ID)
		require.True(t, ok)
		ids = append(ids, id)
	}

	// Answer in reverse arrival order; each caller must still receive the
	// payload matching its own id.
	for i := n - 1; i >= 0; i-- {
		writeLine(t, server, fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"result":"reply-%d"}`, ids[i], ids[i]))
	}

	seen := make(map[string]bool)
	for i := 0; i < n; i++ {
		require.NoError(t, <-errs)
		seen[<-results] = true
	}
	for _, id := range ids {
		assert.True(t, seen[fmt.Sprintf("reply-%d", id)])
	}
}

func TestServerErrorObject(t *testing.T) {
	tr, server := pipeTransport(t)
	reader := bufio.NewReader(server)

	done := make(chan error, 1)
	go func() {
		_, err := tr.Send(context.Background(), "tools/call", CallToolParams{Name: "missing"})
		done <- err
	}()

	req := readRequestLine(t, reader)
	id, _ := jsonrpc.ParseNumberID(req.ID)
	writeLine(t, server, fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"error":{"code":-32601,"message":"Method not found: tools/call"}}`, id))

	err := <-done
	var rpcErr *jsonrpc.Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, jsonrpc.CodeMethodNotFound, rpcErr.Code)
}

func TestCloseCancelsPending(t *testing.T) {
	tr, server := pipeTransport(t)
	reader := bufio.NewReader(server)

	const n = 3
	done := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			_, err := tr.Send(context.Background(), "slow", nil)
			done <- err
		}()
	}
	for i := 0; i < n; i++ {
		readRequestLine(t, reader)
	}

	require.NoError(t, tr.Close())

	for i := 0; i < n; i++ {
		assert.ErrorIs(t, <-done, ErrRequestCanceled)
	}
}

func TestEOFCancelsPending(t *testing.T) {
	tr, server := pipeTransport(t)
	reader := bufio.NewReader(server)

	done := make(chan error, 1)
	go func() {
		_, err := tr.Send(context.Background(), "slow", nil)
		done <- err
	}()
	readRequestLine(t, reader)

	// Server hangs up without answering.
	require.NoError(t, server.Close())

	assert.ErrorIs(t, <-done, ErrRequestCanceled)
}

func TestSendAfterClose(t *testing.T) {
	tr, _ := pipeTransport(t)
	require.NoError(t, tr.Close())

	_, err := tr.Send(context.Background(), "tools/list", nil)
	assert.ErrorIs(t, err, ErrTransportClosed)
}

func TestUnmatchedResponseDiscarded(t *testing.T) {
	tr, server := pipeTransport(t)
	reader := bufio.NewReader(server)

	// A response nothing is waiting for must not disturb the read loop.
	writeLine(t, server, `{"jsonrpc":"2.0","id":9999,"result":"stray"}`)
	writeLine(t, server, `not json at all`)

	done := make(chan error, 1)
	var raw json.RawMessage
	go func() {
		var err error
		raw, err = tr.Send(context.Background(), "ping", nil)
		done <- err
	}()

	req := readRequestLine(t, reader)
	id, _ := jsonrpc.ParseNumberID(req.ID)
	writeLine(t, server, fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"result":"pong"}`, id))

	require.NoError(t, <-done)
	assert.JSONEq(t, `"pong"`, string(raw))
}

func TestContextCancellation(t *testing.T) {
	tr, server := pipeTransport(t)
	reader := bufio.NewReader(server)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := tr.Send(ctx, "slow", nil)
		done <- err
	}()
	req := readRequestLine(t, reader)
	id, _ := jsonrpc.ParseNumberID(req.ID)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	// The late response is discarded; the transport keeps working.
	writeLine(t, server, fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"result":"late"}`, id))

	go func() {
		_, err := tr.Send(context.Background(), "ping", nil)
		done <- err
	}()
	req = readRequestLine(t, reader)
	id, _ = jsonrpc.ParseNumberID(req.ID)
	writeLine(t, server, fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"result":"pong"}`, id))
	require.NoError(t, <-done)
}

func TestMonotonicIDs(t *testing.T) {
	tr, server := pipeTransport(t)
	reader := bufio.NewReader(server)

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_, _ = tr.Send(ctx, "noop", nil)
		}()
	}

	seen := make(map[int64]bool)
	for i := 0; i < 3; i++ {
		req := readRequestLine(t, reader)
		id, ok := jsonrpc.ParseNumberID(req.ID)
		require.True(t, ok)
		assert.False(t, seen[id], "duplicate request id %d", id)
		seen[id] = true
		writeLine(t, server, fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"result":null}`, id))
	}
	wg.Wait()
}

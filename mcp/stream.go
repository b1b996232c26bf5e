package mcp

import (
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"sync"
)

// Stream is the duplex byte stream a Transport frames messages over.
// Implementations carry newline-delimited JSON in both directions.
type Stream interface {
	io.Reader
	io.Writer
	Close() error
}

// Environment forced onto every spawned server so its logging does not
// pollute the protocol channel.
var suppressionEnv = []string{
	"LOG_LEVEL=ERROR",
	"DEBUG=0",
	"VERBOSE=0",
}

// procStream runs a server subprocess and exposes its stdio pipes as a
// Stream. Stderr is discarded. The subprocess environment is built from the
// config alone; nothing is inherited from the parent.
type procStream struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser

	closeOnce sync.Once
	closeErr  error
}

// newProcStream spawns the configured command and wires up its pipes.
func newProcStream(cfg ServerConfig) (*procStream, error) {
	cmd := exec.Command(cfg.Command, cfg.Args...)

	env := make([]string, 0, len(cfg.Env)+len(suppressionEnv))
	for k, v := range cfg.Env {
		env = append(env, k+"="+v)
	}
	env = append(env, suppressionEnv...)
	cmd.Env = env

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stdin pipe: %v", ErrSpawn, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stdout pipe: %v", ErrSpawn, err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrSpawn, cfg.Command, err)
	}

	s := &procStream{cmd: cmd, stdin: stdin, stdout: stdout}

	// If the stream is dropped without Close, reap the subprocess rather
	// than leak it.
	runtime.SetFinalizer(s, func(ps *procStream) {
		if ps.cmd.Process != nil {
			_ = ps.cmd.Process.Kill()
		}
	})

	return s, nil
}

func (s *procStream) Read(p []byte) (int, error)  { return s.stdout.Read(p) }
func (s *procStream) Write(p []byte) (int, error) { return s.stdin.Write(p) }

// Close shuts the subprocess down: stdin is closed to signal EOF, the
// process is killed if still running, and its exit is reaped. Idempotent.
func (s *procStream) Close() error {
	s.closeOnce.Do(func() {
		runtime.SetFinalizer(s, nil)
		s.closeErr = s.stdin.Close()
		if s.cmd.Process != nil {
			_ = s.cmd.Process.Kill()
		}
		_ = s.cmd.Wait()
	})
	return s.closeErr
}

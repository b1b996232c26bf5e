package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"

	"github.com/creack/pty"
)

const (
	defaultBashTimeoutMs = 120_000
	maxBashTimeoutMs     = 600_000
	maxOutputBytes       = 30_000
)

// ExecuteBashInput defines the input for the execute_bash tool.
type ExecuteBashInput struct {
	Command string `json:"command" jsonschema:"required,description=The bash command to execute"`
	Timeout *int   `json:"timeout,omitempty" jsonschema:"description=Timeout in milliseconds (max 600000)"`
}

// ExecuteBashTool runs shell commands under a PTY so programs that detect a
// terminal behave normally; falls back to plain pipes when no PTY is
// available.
type ExecuteBashTool struct{}

var _ Tool[ExecuteBashInput] = (*ExecuteBashTool)(nil)

func (t *ExecuteBashTool) Name() string { return "execute_bash" }
func (t *ExecuteBashTool) Description() string {
	return "Execute a bash command and return the output (use for running commands)"
}

func (t *ExecuteBashTool) Execute(ctx context.Context, input ExecuteBashInput) (string, error) {
	if input.Command == "" {
		return "", fmt.Errorf("missing 'command' argument")
	}

	timeoutMs := defaultBashTimeoutMs
	if input.Timeout != nil && *input.Timeout > 0 {
		timeoutMs = min(*input.Timeout, maxBashTimeoutMs)
	}
	cmdCtx, cancel := context.WithTimeout(ctx, time.Duration(timeoutMs)*time.Millisecond)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, "bash", "-c", input.Command)

	ptmx, err := pty.Start(cmd)
	if err != nil {
		return t.executeWithoutPTY(cmdCtx, timeoutMs, input.Command)
	}
	defer ptmx.Close()

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, ptmx) // PTY read returns EIO on process exit

	waitErr := cmd.Wait()
	if cmdCtx.Err() == context.DeadlineExceeded {
		return "", fmt.Errorf("command timed out after %dms", timeoutMs)
	}

	return formatBashOutput(buf.String(), exitCode(waitErr)), nil
}

func (t *ExecuteBashTool) executeWithoutPTY(ctx context.Context, timeoutMs int, command string) (string, error) {
	cmd := exec.CommandContext(ctx, "bash", "-c", command)
	output, err := cmd.CombinedOutput()
	if ctx.Err() == context.DeadlineExceeded {
		return "", fmt.Errorf("command timed out after %dms", timeoutMs)
	}
	return formatBashOutput(string(output), exitCode(err)), nil
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

func formatBashOutput(output string, code int) string {
	if len(output) > maxOutputBytes {
		output = output[:maxOutputBytes] + "\n... [output truncated]"
	}
	return fmt.Sprintf("EXIT_CODE: %d\n%s", code, output)
}

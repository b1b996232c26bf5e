package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteBashSuccess(t *testing.T) {
	out, err := (&ExecuteBashTool{}).Execute(context.Background(), ExecuteBashInput{
		Command: "echo hello world",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "hello world")
	assert.Contains(t, out, "EXIT_CODE: 0")
}

func TestExecuteBashExitCode(t *testing.T) {
	out, err := (&ExecuteBashTool{}).Execute(context.Background(), ExecuteBashInput{
		Command: "exit 42",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "EXIT_CODE: 42")
}

func TestExecuteBashTimeout(t *testing.T) {
	_, err := (&ExecuteBashTool{}).Execute(context.Background(), ExecuteBashInput{
		Command: "sleep 5", Timeout: intPtr(100),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}

func TestExecuteBashTruncation(t *testing.T) {
	out, err := (&ExecuteBashTool{}).Execute(context.Background(), ExecuteBashInput{
		Command: "for i in $(seq 1 5000); do echo 'a long line of output text'; done",
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(out), maxOutputBytes+100)
	assert.Contains(t, out, "output truncated")
}

func TestExecuteBashMissingCommand(t *testing.T) {
	_, err := (&ExecuteBashTool{}).Execute(context.Background(), ExecuteBashInput{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "command")
}

func TestFormatBashOutput(t *testing.T) {
	out := formatBashOutput("done\n", 0)
	assert.True(t, strings.HasPrefix(out, "EXIT_CODE: 0\n"))
	assert.Contains(t, out, "done")
}

// Command agent-bridge serves the JSON-RPC bridge on stdin/stdout, exposing
// local tools, AI chat, and MCP server sessions to a controlling front-end.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/armatrix/agent-bridge-go/bridge"
	"github.com/armatrix/agent-bridge-go/mcp"
	"github.com/armatrix/agent-bridge-go/tools"
)

func main() {
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	toolTimeout := flag.Duration("tool-timeout", 2*time.Minute, "per-call tool execution timeout (0 disables)")
	flag.Parse()

	// stdout carries the protocol; logs go to stderr.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(*logLevel),
	}))

	registry := tools.NewRegistry()
	tools.RegisterBuiltins(registry)

	sessions := mcp.NewRegistry(logger)
	defer sessions.DisconnectAll()

	server := bridge.NewServer(registry, sessions,
		bridge.WithLogger(logger),
		bridge.WithToolTimeout(*toolTimeout),
	)

	if err := server.Run(context.Background(), os.Stdin, os.Stdout); err != nil {
		logger.Error("bridge terminated", "error", err)
		os.Exit(1)
	}
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

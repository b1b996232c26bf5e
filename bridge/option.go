package bridge

import (
	"log/slog"
	"time"

	"github.com/armatrix/agent-bridge-go/ai"
)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithToolTimeout bounds each tool.execute call. Zero means no limit.
func WithToolTimeout(d time.Duration) Option {
	return func(s *Server) { s.toolTimeout = d }
}

// WithAIClientFactory overrides how ai.init builds chat clients.
func WithAIClientFactory(factory AIClientFactory) Option {
	return func(s *Server) {
		if factory != nil {
			s.newAIClient = factory
		}
	}
}

// WithUsageTracker replaces the default usage tracker.
func WithUsageTracker(tracker *ai.UsageTracker) Option {
	return func(s *Server) {
		if tracker != nil {
			s.usage = tracker
		}
	}
}

package mcp

import "fmt"

// ServerConfig describes how to launch one tool-server subprocess.
type ServerConfig struct {
	// Name identifies the server within the registry.
	Name string `json:"name"`

	// Command is the executable to spawn.
	Command string `json:"command"`

	// Args are passed to the command verbatim.
	Args []string `json:"args,omitempty"`

	// Env holds extra environment variables for the subprocess. The parent
	// environment is never inherited.
	Env map[string]string `json:"env,omitempty"`
}

// Validate checks that the config can be used to spawn a process.
func (c ServerConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidConfig)
	}
	if c.Command == "" {
		return fmt.Errorf("%w: missing command for server %q", ErrInvalidConfig, c.Name)
	}
	return nil
}

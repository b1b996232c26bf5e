package tools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

const (
	defaultSearchResults = 30
	maxSearchResults     = 100
)

// SearchFileContentsInput defines the input for the search_file_contents tool.
type SearchFileContentsInput struct {
	Query         string `json:"query" jsonschema:"required,description=The text to search for in file contents"`
	Path          string `json:"path,omitempty" jsonschema:"description=The directory to search in (defaults to the working directory)"`
	MaxResults    *int   `json:"maxResults,omitempty" jsonschema:"description=Maximum number of matches to return (default 30, max 100)"`
	CaseSensitive bool   `json:"caseSensitive,omitempty" jsonschema:"description=Whether the search should be case-sensitive (default false)"`
}

// SearchFileContentsTool searches text within files using ripgrep, falling
// back to grep when rg is not installed.
type SearchFileContentsTool struct{}

var _ Tool[SearchFileContentsInput] = (*SearchFileContentsTool)(nil)

func (t *SearchFileContentsTool) Name() string { return "search_file_contents" }
func (t *SearchFileContentsTool) Description() string {
	return "Search for text within file contents. Returns matching lines with file paths and line numbers. Use this to find code, not for finding files by name (use find_files for that)."
}

func (t *SearchFileContentsTool) Execute(ctx context.Context, input SearchFileContentsInput) (string, error) {
	if input.Query == "" {
		return "", fmt.Errorf("missing 'query' argument")
	}

	limit := defaultSearchResults
	if input.MaxResults != nil && *input.MaxResults > 0 {
		limit = min(*input.MaxResults, maxSearchResults)
	}

	dir := input.Path
	if dir == "" {
		var err error
		dir, err = os.Getwd()
		if err != nil {
			return "", fmt.Errorf("get working directory: %w", err)
		}
	}

	var stdout string
	var err error
	switch {
	case commandExists("rg"):
		stdout, err = runRipgrep(ctx, input.Query, dir, limit, input.CaseSensitive)
	case commandExists("grep"):
		stdout, err = runGrep(ctx, input.Query, dir, input.CaseSensitive)
	default:
		return "", errors.New("neither ripgrep (rg) nor grep found in PATH")
	}
	if err != nil {
		return "", err
	}
	if stdout == "" {
		return fmt.Sprintf("No matches found for %q", input.Query), nil
	}

	return formatSearchResults(stdout, limit), nil
}

func commandExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

func runRipgrep(ctx context.Context, query, dir string, limit int, caseSensitive bool) (string, error) {
	args := []string{"--line-number", "--no-heading", "--color=never", "--max-count", fmt.Sprint(limit)}
	if !caseSensitive {
		args = append(args, "--ignore-case")
	}
	args = append(args, "--fixed-strings", query)

	cmd := exec.CommandContext(ctx, "rg", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		// Exit code 1 means no matches.
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return "", nil
		}
		return "", fmt.Errorf("ripgrep failed: %w", err)
	}
	return string(out), nil
}

func runGrep(ctx context.Context, query, dir string, caseSensitive bool) (string, error) {
	args := []string{"-rnF"}
	if !caseSensitive {
		args = append(args, "-i")
	}
	for _, d := range []string{"node_modules", ".git", "dist", "build", "coverage", "out", ".cache"} {
		args = append(args, "--exclude-dir="+d)
	}
	args = append(args, query, ".")

	cmd := exec.CommandContext(ctx, "grep", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return "", nil
		}
		return "", fmt.Errorf("grep failed: %w", err)
	}
	return string(out), nil
}

// formatSearchResults renders file:line matches as path, line number and
// trimmed content pairs.
func formatSearchResults(stdout string, limit int) string {
	lines := make([]string, 0, limit)
	for _, line := range strings.Split(strings.TrimSpace(stdout), "\n") {
		if line != "" {
			lines = append(lines, line)
		}
	}

	truncated := len(lines) > limit
	if truncated {
		lines = lines[:limit]
	}

	suffix := ""
	if truncated {
		suffix = fmt.Sprintf(" (showing first %d)", limit)
	}
	plural := "es"
	if len(lines) == 1 {
		plural = ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d match%s%s:\n\n", len(lines), plural, suffix)
	for _, line := range lines {
		parts := strings.SplitN(line, ":", 3)
		if len(parts) < 3 {
			continue
		}
		file := strings.TrimPrefix(parts[0], "./")
		fmt.Fprintf(&b, "%s:%s\n  %s\n\n", file, parts[1], strings.TrimSpace(parts[2]))
	}
	return b.String()
}

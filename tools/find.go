package tools

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

const (
	defaultFindResults = 50
	maxFindResults     = 100
)

// FindFilesInput defines the input for the find_files tool.
type FindFilesInput struct {
	Pattern    string `json:"pattern" jsonschema:"required,description=Glob pattern to match file and directory paths. Examples: \"*.go\" or \"src/**/*.ts\" or \"*.{ts,tsx}\""`
	Path       string `json:"path,omitempty" jsonschema:"description=The directory to search in (defaults to the working directory)"`
	MaxResults *int   `json:"maxResults,omitempty" jsonschema:"description=Maximum number of results to return (default 50, max 100)"`
}

// FindFilesTool finds files and directories by glob pattern.
type FindFilesTool struct{}

var _ Tool[FindFilesInput] = (*FindFilesTool)(nil)

func (t *FindFilesTool) Name() string { return "find_files" }
func (t *FindFilesTool) Description() string {
	return "Find files and directories by path pattern or name using glob patterns. Returns matching paths. Does NOT search file contents - use search_file_contents for that."
}

func (t *FindFilesTool) Execute(_ context.Context, input FindFilesInput) (string, error) {
	if input.Pattern == "" {
		return "", fmt.Errorf("missing 'pattern' argument")
	}

	limit := defaultFindResults
	if input.MaxResults != nil && *input.MaxResults > 0 {
		limit = min(*input.MaxResults, maxFindResults)
	}

	base := input.Path
	if base == "" {
		var err error
		base, err = os.Getwd()
		if err != nil {
			return "", fmt.Errorf("get working directory: %w", err)
		}
	}

	matches, err := doublestar.Glob(os.DirFS(base), input.Pattern)
	if err != nil {
		return "", fmt.Errorf("invalid glob pattern %q: %w", input.Pattern, err)
	}

	if len(matches) == 0 {
		return fmt.Sprintf("No files or directories found matching pattern %q", input.Pattern), nil
	}

	sort.Strings(matches)
	truncated := len(matches) > limit
	if truncated {
		matches = matches[:limit]
	}

	suffix := ""
	if truncated {
		suffix = fmt.Sprintf(" (showing first %d)", limit)
	}
	plural := "es"
	if len(matches) == 1 {
		plural = ""
	}
	return fmt.Sprintf("Found %d match%s%s:\n\n%s",
		len(matches), plural, suffix, strings.Join(matches, "\n")), nil
}

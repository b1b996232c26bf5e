package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// metadataThreshold is the line count above which read_file returns a file
// summary instead of content when no range is given.
const metadataThreshold = 300

// ReadFileInput defines the input for the read_file tool.
type ReadFileInput struct {
	Path      string `json:"path" jsonschema:"required,description=The path to the file to read"`
	StartLine *int   `json:"start_line,omitempty" jsonschema:"description=The starting line number (1-indexed inclusive)"`
	EndLine   *int   `json:"end_line,omitempty" jsonschema:"description=The ending line number (1-indexed inclusive)"`
}

// ReadFileTool reads file contents with optional line ranges.
type ReadFileTool struct{}

var _ Tool[ReadFileInput] = (*ReadFileTool)(nil)

func (t *ReadFileTool) Name() string { return "read_file" }
func (t *ReadFileTool) Description() string {
	return "Read the contents of a file from the filesystem. For files over 300 lines, provide start_line and end_line to read specific ranges."
}

func (t *ReadFileTool) Execute(_ context.Context, input ReadFileInput) (string, error) {
	if input.Path == "" {
		return "", fmt.Errorf("missing 'path' argument")
	}

	data, err := os.ReadFile(input.Path)
	if err != nil {
		return "", fmt.Errorf("read file %q: %w", input.Path, err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("file %q exists but is empty", input.Path)
	}

	content := string(data)
	lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	total := len(lines)

	// Metadata-first for large files read without a range: the caller is
	// told how to page through rather than being flooded.
	if input.StartLine == nil && input.EndLine == nil && total > metadataThreshold {
		return fileSummary(input.Path, total, len(data)), nil
	}

	start := 1
	if input.StartLine != nil && *input.StartLine > 1 {
		start = *input.StartLine
	}
	end := total
	if input.EndLine != nil && *input.EndLine < total {
		end = *input.EndLine
	}
	if start > total {
		return "", fmt.Errorf("start_line %d exceeds total lines %d", start, total)
	}
	if end < start {
		return "", fmt.Errorf("invalid line range: %d-%d for file with %d lines", start, end, total)
	}

	var b strings.Builder
	for i := start; i <= end; i++ {
		fmt.Fprintf(&b, "%4d→%s\n", i, lines[i-1])
	}
	return b.String(), nil
}

func fileSummary(path string, totalLines, size int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "File: %s\n", path)
	fmt.Fprintf(&b, "Total lines: %d\n", totalLines)
	fmt.Fprintf(&b, "Size: %d bytes\n", size)
	fmt.Fprintf(&b, "Estimated tokens: ~%d\n\n", (size+3)/4)
	b.WriteString("[Large file - call read_file with start_line and end_line to read sections]\n")

	const chunk = 250
	for i, start := 0, 1; i < 3 && start <= totalLines; i, start = i+1, start+chunk {
		end := min(start+chunk-1, totalLines)
		fmt.Fprintf(&b, "  - read_file({path: %q, start_line: %d, end_line: %d})\n", path, start, end)
	}
	return b.String()
}

// CreateFileInput defines the input for the create_file tool.
type CreateFileInput struct {
	Path    string `json:"path" jsonschema:"required,description=The path to the file to write"`
	Content string `json:"content" jsonschema:"required,description=The content to write to the file"`
}

// CreateFileTool creates or overwrites a file.
type CreateFileTool struct{}

var _ Tool[CreateFileInput] = (*CreateFileTool)(nil)

func (t *CreateFileTool) Name() string { return "create_file" }
func (t *CreateFileTool) Description() string {
	return "Create a new file with the specified content (overwrites if file exists)"
}

func (t *CreateFileTool) Execute(_ context.Context, input CreateFileInput) (string, error) {
	if input.Path == "" {
		return "", fmt.Errorf("missing 'path' argument")
	}

	if dir := filepath.Dir(input.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create parent directories: %w", err)
		}
	}
	if err := os.WriteFile(input.Path, []byte(input.Content), 0o644); err != nil {
		return "", fmt.Errorf("write file %q: %w", input.Path, err)
	}
	return "File written successfully", nil
}

// InsertLinesInput defines the input for the insert_lines tool.
type InsertLinesInput struct {
	Path       string `json:"path" jsonschema:"required,description=The path to the file"`
	LineNumber int    `json:"line_number" jsonschema:"required,description=The line number where content will be inserted (1-indexed)"`
	Content    string `json:"content" jsonschema:"required,description=The content to insert"`
}

// InsertLinesTool inserts lines at a specific position.
type InsertLinesTool struct{}

var _ Tool[InsertLinesInput] = (*InsertLinesTool)(nil)

func (t *InsertLinesTool) Name() string { return "insert_lines" }
func (t *InsertLinesTool) Description() string {
	return "Insert new lines into a file at the specified line number"
}

func (t *InsertLinesTool) Execute(_ context.Context, input InsertLinesInput) (string, error) {
	lines, err := readLines(input.Path)
	if err != nil {
		return "", err
	}

	pos := input.LineNumber
	if pos > 0 {
		pos--
	}
	if pos > len(lines) {
		return "", fmt.Errorf("line number %d exceeds file length %d", input.LineNumber, len(lines))
	}

	inserted := strings.Split(input.Content, "\n")
	out := make([]string, 0, len(lines)+len(inserted))
	out = append(out, lines[:pos]...)
	out = append(out, inserted...)
	out = append(out, lines[pos:]...)

	if err := writeLines(input.Path, out); err != nil {
		return "", err
	}
	return fmt.Sprintf("Inserted %d lines at line %d", len(inserted), input.LineNumber), nil
}

// ReplaceLinesInput defines the input for the replace_lines tool.
type ReplaceLinesInput struct {
	Path      string `json:"path" jsonschema:"required,description=The path to the file"`
	StartLine int    `json:"start_line" jsonschema:"required,description=The starting line number (1-indexed inclusive)"`
	EndLine   int    `json:"end_line" jsonschema:"required,description=The ending line number (1-indexed inclusive)"`
	Content   string `json:"content" jsonschema:"required,description=The new content to replace the lines with"`
}

// ReplaceLinesTool replaces a range of lines with new content.
type ReplaceLinesTool struct{}

var _ Tool[ReplaceLinesInput] = (*ReplaceLinesTool)(nil)

func (t *ReplaceLinesTool) Name() string { return "replace_lines" }
func (t *ReplaceLinesTool) Description() string {
	return "Replace a range of lines in a file with new content"
}

func (t *ReplaceLinesTool) Execute(_ context.Context, input ReplaceLinesInput) (string, error) {
	lines, err := readLines(input.Path)
	if err != nil {
		return "", err
	}
	if input.StartLine < 1 || input.EndLine < input.StartLine || input.EndLine > len(lines) {
		return "", fmt.Errorf("invalid line range: %d-%d for file with %d lines",
			input.StartLine, input.EndLine, len(lines))
	}

	replacement := strings.Split(input.Content, "\n")
	out := make([]string, 0, len(lines))
	out = append(out, lines[:input.StartLine-1]...)
	out = append(out, replacement...)
	out = append(out, lines[input.EndLine:]...)

	if err := writeLines(input.Path, out); err != nil {
		return "", err
	}
	return fmt.Sprintf("Replaced lines %d-%d with %d new lines",
		input.StartLine, input.EndLine, len(replacement)), nil
}

// DeleteLinesInput defines the input for the delete_lines tool.
type DeleteLinesInput struct {
	Path      string `json:"path" jsonschema:"required,description=The path to the file"`
	StartLine int    `json:"start_line" jsonschema:"required,description=The starting line number (1-indexed inclusive)"`
	EndLine   int    `json:"end_line" jsonschema:"required,description=The ending line number (1-indexed inclusive)"`
}

// DeleteLinesTool deletes a range of lines.
type DeleteLinesTool struct{}

var _ Tool[DeleteLinesInput] = (*DeleteLinesTool)(nil)

func (t *DeleteLinesTool) Name() string        { return "delete_lines" }
func (t *DeleteLinesTool) Description() string { return "Delete a range of lines from a file" }

func (t *DeleteLinesTool) Execute(_ context.Context, input DeleteLinesInput) (string, error) {
	lines, err := readLines(input.Path)
	if err != nil {
		return "", err
	}
	if input.StartLine < 1 || input.EndLine < input.StartLine || input.EndLine > len(lines) {
		return "", fmt.Errorf("invalid line range: %d-%d for file with %d lines",
			input.StartLine, input.EndLine, len(lines))
	}

	deleted := input.EndLine - input.StartLine + 1
	out := make([]string, 0, len(lines)-deleted)
	out = append(out, lines[:input.StartLine-1]...)
	out = append(out, lines[input.EndLine:]...)

	if err := writeLines(input.Path, out); err != nil {
		return "", err
	}
	return fmt.Sprintf("Deleted %d lines (%d-%d)", deleted, input.StartLine, input.EndLine), nil
}

func readLines(path string) ([]string, error) {
	if path == "" {
		return nil, fmt.Errorf("missing 'path' argument")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file %q: %w", path, err)
	}
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n"), nil
}

func writeLines(path string, lines []string) error {
	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write file %q: %w", path, err)
	}
	return nil
}

package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	maxFetchBytes   = 512_000
	fetchTimeout    = 30 * time.Second
	fetchUserAgent  = "agent-bridge/1.0"
	contentTypeHTML = "text/html"
)

// WebFetchInput defines the input for the web_fetch tool.
type WebFetchInput struct {
	URL string `json:"url" jsonschema:"required,description=The URL to fetch"`
	Raw bool   `json:"raw,omitempty" jsonschema:"description=Return the body verbatim instead of stripping HTML (default false)"`
}

// WebFetchTool fetches content from a URL. HTML responses are reduced to
// plain text unless raw output is requested.
type WebFetchTool struct {
	// Client is injectable for testing; nil uses a default with a timeout.
	Client *http.Client
}

var _ Tool[WebFetchInput] = (*WebFetchTool)(nil)

func (t *WebFetchTool) Name() string { return "web_fetch" }
func (t *WebFetchTool) Description() string {
	return "Fetch content from a URL. Returns the page content, with HTML reduced to plain text for easier reading."
}

func (t *WebFetchTool) Execute(ctx context.Context, input WebFetchInput) (string, error) {
	if input.URL == "" {
		return "", fmt.Errorf("missing 'url' argument")
	}

	parsed, err := url.Parse(input.URL)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", input.URL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("URL must use HTTP or HTTPS protocol")
	}

	client := t.Client
	if client == nil {
		client = &http.Client{Timeout: fetchTimeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, input.URL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", fetchUserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %q: %w", input.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("HTTP error %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	text := string(body)
	if !input.Raw && isHTML(resp.Header.Get("Content-Type"), text) {
		text = stripHTMLTags(text)
		return fmt.Sprintf("# Content from %s\n\n%s", input.URL, text), nil
	}
	return text, nil
}

func isHTML(contentType, body string) bool {
	if strings.Contains(contentType, contentTypeHTML) {
		return true
	}
	trimmed := strings.TrimSpace(body)
	return strings.HasPrefix(trimmed, "<!DOCTYPE") || strings.HasPrefix(trimmed, "<html")
}

// stripHTMLTags removes tags and script/style bodies, collapsing whitespace.
func stripHTMLTags(s string) string {
	var b strings.Builder
	inTag := false
	skipDepth := 0
	i := 0
	for i < len(s) {
		if s[i] == '<' {
			rest := strings.ToLower(s[i:])
			switch {
			case strings.HasPrefix(rest, "<script") || strings.HasPrefix(rest, "<style"):
				skipDepth++
			case strings.HasPrefix(rest, "</script") || strings.HasPrefix(rest, "</style"):
				if skipDepth > 0 {
					skipDepth--
				}
			}
			inTag = true
			i++
			continue
		}
		if s[i] == '>' {
			inTag = false
			b.WriteByte(' ')
			i++
			continue
		}
		if !inTag && skipDepth == 0 {
			b.WriteByte(s[i])
		}
		i++
	}

	lines := make([]string, 0, 64)
	for _, line := range strings.Split(b.String(), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

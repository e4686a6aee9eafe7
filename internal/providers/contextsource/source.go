// Package contextsource retrieves short local-knowledge snippets that are
// passed to the generative providers as grounding context.
package contextsource

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Source returns an opaque context blob for a city and its preferences.
// An empty string is a valid answer.
type Source interface {
	Retrieve(ctx context.Context, city string, preferences []string) (string, error)
}

type Doc struct {
	Title   string `json:"title"`
	City    string `json:"city"`
	Content string `json:"content"`
}

// Query is the free-text search string: the city followed by preferences.
func Query(city string, preferences []string) string {
	return strings.Join(append([]string{city}, preferences...), " ")
}

// Render formats docs as "[title] content" blocks separated by blank lines,
// truncating each content to snippetChars runes.
func Render(docs []Doc, snippetChars int) string {
	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		parts = append(parts, fmt.Sprintf("[%s] %s", d.Title, truncate(d.Content, snippetChars)))
	}
	return strings.Join(parts, "\n\n")
}

func truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// Noop is used when grounding context is disabled.
type Noop struct{}

func (Noop) Retrieve(context.Context, string, []string) (string, error) { return "", nil }

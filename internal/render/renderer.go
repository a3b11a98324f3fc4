// Package render defines how a segment URL becomes the visible text of a
// fully loaded results page.
package render

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"
)

// DefaultMinContentLength is the content length (in characters) a page must
// exceed to count as loaded
const DefaultMinContentLength = 1000

// ErrPageLoadInsufficient is matched by every InsufficientContentError
var ErrPageLoadInsufficient = errors.New("page load insufficient")

// InsufficientContentError reports a page that never rendered enough text
type InsufficientContentError struct {
	URL       string
	Length    int
	Threshold int
}

func (e *InsufficientContentError) Error() string {
	return fmt.Sprintf("insufficient content for %s: %d characters (need more than %d)", e.URL, e.Length, e.Threshold)
}

func (e *InsufficientContentError) Unwrap() error {
	return ErrPageLoadInsufficient
}

// Renderer returns the visible text of the page at url
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// RendererFunc adapts a function to Renderer
type RendererFunc func(ctx context.Context, url string) (string, error)

// Render implements Renderer
func (f RendererFunc) Render(ctx context.Context, url string) (string, error) {
	return f(ctx, url)
}

// CheckContent rejects content at or below threshold characters. A
// non-positive threshold means DefaultMinContentLength.
func CheckContent(url, content string, threshold int) error {
	if threshold <= 0 {
		threshold = DefaultMinContentLength
	}
	if n := utf8.RuneCountInString(content); n <= threshold {
		return &InsufficientContentError{URL: url, Length: n, Threshold: threshold}
	}
	return nil
}

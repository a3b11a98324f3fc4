package render

import (
	"context"
	"fmt"
	"mime"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	fhttp "github.com/farewatch/fare-service/internal/http"
	"github.com/farewatch/fare-service/internal/parsers/charset"
)

// StatusError is a non-2xx answer from the render endpoint
type StatusError struct {
	URL        string
	Code       int
	retryAfter string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("render endpoint returned HTTP %d for %s", e.Code, e.URL)
}

// StatusCode returns the HTTP status
func (e *StatusError) StatusCode() int {
	return e.Code
}

// RetryAfter returns the Retry-After header of the response, if any
func (e *StatusError) RetryAfter() string {
	return e.retryAfter
}

// HTTPOptions configures an HTTPRenderer
type HTTPOptions struct {
	// Endpoint of a headless-browser render service
	Endpoint string
	// WaitFor is how long the browser waits for the page to settle
	WaitFor time.Duration
	Timeout time.Duration
	Headers map[string]string
	Logger  *zerolog.Logger
}

type renderRequest struct {
	URL     string `json:"url"`
	WaitFor int64  `json:"waitFor"`
}

// HTTPRenderer asks a remote headless browser to load a page. HTML answers
// are reduced to their visible text; plain text passes through.
type HTTPRenderer struct {
	client   *resty.Client
	endpoint string
	waitFor  time.Duration
	logger   *zerolog.Logger
}

// NewHTTPRenderer creates a renderer for the given endpoint
func NewHTTPRenderer(opts HTTPOptions) (*HTTPRenderer, error) {
	if strings.TrimSpace(opts.Endpoint) == "" {
		return nil, fmt.Errorf("render endpoint is required")
	}
	logger := opts.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &HTTPRenderer{
		client: fhttp.NewClient(fhttp.ClientOptions{
			Timeout: opts.Timeout,
			Headers: opts.Headers,
			Logger:  logger,
		}),
		endpoint: opts.Endpoint,
		waitFor:  opts.WaitFor,
		logger:   logger,
	}, nil
}

// Render implements Renderer
func (r *HTTPRenderer) Render(ctx context.Context, url string) (string, error) {
	resp, err := r.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(renderRequest{URL: url, WaitFor: r.waitFor.Milliseconds()}).
		Post(r.endpoint)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", url, err)
	}
	if resp.IsError() {
		return "", &StatusError{
			URL:        url,
			Code:       resp.StatusCode(),
			retryAfter: resp.Header().Get("Retry-After"),
		}
	}

	mediaType, params, _ := mime.ParseMediaType(resp.Header().Get("Content-Type"))
	body, err := charset.Decode(resp.Body(), charset.ParseEncoding(params["charset"]))
	if err != nil {
		return "", fmt.Errorf("render %s: %w", url, err)
	}

	if mediaType == "text/html" || (mediaType == "" && looksLikeHTML(body)) {
		text, err := VisibleText(body)
		if err != nil {
			return "", fmt.Errorf("render %s: %w", url, err)
		}
		body = text
	}

	r.logger.Debug().
		Str("url", url).
		Int("length", len(body)).
		Msg("Rendered page")

	return body, nil
}

// VisibleText extracts the text a reader would see, one line per text node.
// Script, style, noscript and template content is dropped.
func VisibleText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	doc.Find("script, style, noscript, template").Remove()

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}

	var lines []string
	var walk func(*goquery.Selection)
	walk = func(s *goquery.Selection) {
		s.Contents().Each(func(_ int, child *goquery.Selection) {
			switch goquery.NodeName(child) {
			case "#text":
				if line := strings.TrimSpace(child.Text()); line != "" {
					lines = append(lines, line)
				}
			case "#comment":
			default:
				walk(child)
			}
		})
	}
	walk(root)

	return strings.Join(lines, "\n"), nil
}

func looksLikeHTML(body string) bool {
	head := strings.ToLower(strings.TrimSpace(body))
	if len(head) > 512 {
		head = head[:512]
	}
	return strings.HasPrefix(head, "<!doctype html") || strings.Contains(head, "<html")
}

package render

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farewatch/fare-service/internal/http/ratelimit"
)

func TestCheckContent(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		threshold int
		wantErr   bool
	}{
		{name: "empty", content: "", threshold: 10, wantErr: true},
		{name: "at threshold", content: strings.Repeat("a", 10), threshold: 10, wantErr: true},
		{name: "above threshold", content: strings.Repeat("a", 11), threshold: 10},
		{name: "counts characters not bytes", content: strings.Repeat("€", 5), threshold: 5, wantErr: true},
		{name: "default threshold", content: strings.Repeat("a", 1000), wantErr: true},
		{name: "default threshold passed", content: strings.Repeat("a", 1001)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckContent("http://x", tt.content, tt.threshold)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrPageLoadInsufficient)
			var ice *InsufficientContentError
			require.ErrorAs(t, err, &ice)
			assert.Equal(t, "http://x", ice.URL)
		})
	}
}

func TestRendererFunc(t *testing.T) {
	var r Renderer = RendererFunc(func(ctx context.Context, url string) (string, error) {
		return "text for " + url, nil
	})
	got, err := r.Render(context.Background(), "u")
	require.NoError(t, err)
	assert.Equal(t, "text for u", got)
}

func TestVisibleText(t *testing.T) {
	html := `<!DOCTYPE html><html><head><title>Flights</title><style>.a{}</style></head>
<body>
  <script>var x = 1;</script>
  <div><span>9:00 AM</span> – <span>5:15 PM<sup>+1</sup></span></div>
  <!-- comment -->
  <noscript>Enable JavaScript</noscript>
  <ul><li>Delta</li><li>$1,250</li></ul>
  <template><p>hidden</p></template>
</body></html>`

	got, err := VisibleText(html)
	require.NoError(t, err)
	assert.Equal(t, "9:00 AM\n–\n5:15 PM\n+1\nDelta\n$1,250", got)
}

func TestHTTPRendererHTML(t *testing.T) {
	var received renderRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body><p>Delta</p><p>$450</p></body></html>"))
	}))
	defer srv.Close()

	r, err := NewHTTPRenderer(HTTPOptions{Endpoint: srv.URL, WaitFor: 2 * time.Second})
	require.NoError(t, err)

	text, err := r.Render(context.Background(), "https://example.com/flights")
	require.NoError(t, err)
	assert.Equal(t, "Delta\n$450", text)
	assert.Equal(t, "https://example.com/flights", received.URL)
	assert.Equal(t, int64(2000), received.WaitFor)
}

func TestHTTPRendererPlainTextCharset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=iso-8859-2")
		// "Łódź" in ISO-8859-2
		_, _ = w.Write([]byte{0xA3, 0xF3, 0x64, 0xBC})
	}))
	defer srv.Close()

	r, err := NewHTTPRenderer(HTTPOptions{Endpoint: srv.URL})
	require.NoError(t, err)

	text, err := r.Render(context.Background(), "u")
	require.NoError(t, err)
	assert.Equal(t, "Łódź", text)
}

func TestHTTPRendererStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "5")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	r, err := NewHTTPRenderer(HTTPOptions{Endpoint: srv.URL})
	require.NoError(t, err)

	_, err = r.Render(context.Background(), "u")
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusTooManyRequests, se.StatusCode())
	assert.Equal(t, "5", se.RetryAfter())

	var sc ratelimit.StatusCoder
	assert.True(t, errors.As(err, &sc))
}

func TestNewHTTPRendererRequiresEndpoint(t *testing.T) {
	_, err := NewHTTPRenderer(HTTPOptions{})
	assert.Error(t, err)
}

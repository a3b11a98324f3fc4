package http

import (
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// UserAgent is sent with every outgoing request
const UserAgent = "FareService/1.0"

// ClientOptions configures the outgoing HTTP client
type ClientOptions struct {
	BaseURL string
	Timeout time.Duration
	Headers map[string]string
	Logger  *zerolog.Logger
}

// NewClient creates a resty client with default headers and request logging.
// Retries are left to the caller.
func NewClient(opts ClientOptions) *resty.Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	client := resty.New().
		SetTimeout(opts.Timeout).
		SetHeader("User-Agent", UserAgent).
		SetHeader("Accept", "*/*").
		SetRetryCount(0)

	if opts.BaseURL != "" {
		client.SetBaseURL(opts.BaseURL)
	}
	for k, v := range opts.Headers {
		client.SetHeader(k, v)
	}

	client.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		logger.Debug().
			Str("method", resp.Request.Method).
			Str("url", resp.Request.URL).
			Int("status", resp.StatusCode()).
			Dur("duration", resp.Time()).
			Msg("HTTP request completed")
		return nil
	})

	return client
}

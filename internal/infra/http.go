package infra

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

// DefaultUserAgent is sent with every upstream request.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// HTTPError is returned when an upstream answers with a non-2xx status.
type HTTPError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200]
	}
	return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.URL, body)
}

// HTTPConfig configures an upstream HTTP client.
type HTTPConfig struct {
	Timeout   time.Duration
	RateLimit float64 // requests per second, <= 0 disables limiting
	Referer   string
}

// NewLimiter returns a token bucket allowing rps requests per second.
func NewLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
}

// NewHTTPClient builds a resty client that waits on a shared rate limiter
// before each request. Retries are left to the RetryGate.
func NewHTTPClient(cfg HTTPConfig) *resty.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	limiter := NewLimiter(cfg.RateLimit)

	c := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("User-Agent", DefaultUserAgent).
		SetHeader("Accept", "application/json, text/plain, */*")
	if cfg.Referer != "" {
		c.SetHeader("Referer", cfg.Referer)
	}

	c.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		if err := limiter.Wait(r.Context()); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
		return nil
	})
	return c
}

// GetBytes performs a GET and returns the body of a 2xx response.
func GetBytes(ctx context.Context, c *resty.Client, url string, params map[string]string) ([]byte, error) {
	resp, err := c.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		return nil, &HTTPError{StatusCode: resp.StatusCode(), URL: url, Body: resp.String()}
	}
	return resp.Body(), nil
}

// GetJSON performs a GET and parses the body as JSON.
func GetJSON(ctx context.Context, c *resty.Client, url string, params map[string]string) (gjson.Result, error) {
	body, err := GetBytes(ctx, c, url, params)
	if err != nil {
		return gjson.Result{}, err
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("GET %s: malformed JSON response", url)
	}
	return gjson.ParseBytes(body), nil
}

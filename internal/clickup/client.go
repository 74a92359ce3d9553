// Package clickup is a small ClickUp REST client covering the endpoints the
// server's tools use. It retries rate-limited requests and turns error
// responses into typed errors; it does no caching of its own.
package clickup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL is the API root; paths carry their own version segment.
const DefaultBaseURL = "https://api.clickup.com/api"

// Config configures a Client.
type Config struct {
	Token   string
	BaseURL string
	// HTTPClient defaults to a client with a 30 second timeout.
	HTTPClient *http.Client
	// MaxRetries is the number of retries after a 429. Default: 4.
	MaxRetries int
	// BaseDelay is the first backoff delay. Default: 1 second.
	BaseDelay time.Duration
	// MaxDelay caps backoff delays. Default: 30 seconds.
	MaxDelay time.Duration
	// Jitter spreads backoff delays by ±20%.
	Jitter    bool
	UserAgent string
	Logger    *slog.Logger
}

// Client talks to the ClickUp API with a personal token.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
	jitter     bool
	userAgent  string
	log        *slog.Logger
}

// New returns a Client. It fails only on an empty token or bad base URL.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("clickup: API token is required")
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("clickup: invalid base URL: %w", err)
	}

	c := &Client{
		token:      cfg.Token,
		baseURL:    base,
		httpClient: cfg.HTTPClient,
		maxRetries: cfg.MaxRetries,
		baseDelay:  cfg.BaseDelay,
		maxDelay:   cfg.MaxDelay,
		jitter:     cfg.Jitter,
		userAgent:  cfg.UserAgent,
		log:        cfg.Logger,
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if c.maxRetries <= 0 {
		c.maxRetries = 4
	}
	if c.baseDelay <= 0 {
		c.baseDelay = time.Second
	}
	if c.maxDelay <= 0 {
		c.maxDelay = 30 * time.Second
	}
	if c.userAgent == "" {
		c.userAgent = "clickup-mcp"
	}
	if c.log == nil {
		c.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	c.log = c.log.With(slog.String("component", "clickup"))
	return c, nil
}

// ─── Errors ──────────────────────────────────────────────────────────────────

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Code != "" {
		return fmt.Sprintf("clickup: %d %s: %s", e.Status, e.Code, msg)
	}
	return fmt.Sprintf("clickup: %d: %s", e.Status, msg)
}

// NotFound reports whether err is a 404 from the API.
func NotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// RateLimitError is returned when every retry of a request was rate limited.
type RateLimitError struct {
	Attempts   int
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("clickup: rate limit exceeded after %d attempts (retry after %s)", e.Attempts, e.RetryAfter)
}

// ParseRetryAfter reads a Retry-After header in seconds or HTTP-date form.
// It reports false for an empty or unreadable value.
func ParseRetryAfter(value string, now time.Time) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if secs, err := strconv.ParseInt(value, 10, 64); err == nil {
		if secs < 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}
	if t, err := http.ParseTime(value); err == nil {
		return max(t.Sub(now), 0), true
	}
	return 0, false
}

func (c *Client) backoff(attempt int, retryAfter time.Duration, ok bool) time.Duration {
	if ok {
		return min(retryAfter, c.maxDelay)
	}
	delay := time.Duration(float64(c.baseDelay) * math.Pow(2, float64(attempt)))
	if delay > c.maxDelay {
		delay = c.maxDelay
	}
	if c.jitter {
		delay = time.Duration(float64(delay) * (0.8 + rand.Float64()*0.4))
	}
	return delay
}

// ─── Transport ───────────────────────────────────────────────────────────────

// do sends one API call, retrying 429s, and decodes the response into out
// when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("clickup: encode request: %w", err)
		}
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var lastWait time.Duration
	for attempt := 0; ; attempt++ {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
		if err != nil {
			return fmt.Errorf("clickup: build request: %w", err)
		}
		req.Header.Set("Authorization", c.token)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", c.userAgent)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("clickup: %s %s: %w", method, path, err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			if attempt >= c.maxRetries {
				return &RateLimitError{Attempts: attempt + 1, RetryAfter: lastWait}
			}
			ra, ok := ParseRetryAfter(resp.Header.Get("Retry-After"), time.Now())
			lastWait = c.backoff(attempt, ra, ok)
			c.log.Warn("rate limited", slog.String("path", path), slog.Int("attempt", attempt+1), slog.Duration("wait", lastWait))
			timer := time.NewTimer(lastWait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
			continue
		}

		return decodeResponse(resp, out)
	}
}

func decodeResponse(resp *http.Response, out any) error {
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		apiErr := &APIError{Status: resp.StatusCode}
		var body struct {
			Err   string `json:"err"`
			ECode string `json:"ECODE"`
		}
		if json.Unmarshal(data, &body) == nil {
			apiErr.Message = body.Err
			apiErr.Code = body.ECode
		} else {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("clickup: decode response: %w", err)
	}
	return nil
}

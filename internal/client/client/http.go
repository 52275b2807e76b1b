package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/learnassist/internal/common"
	"github.com/dmitrijs2005/learnassist/internal/logging"
)

const maxResponseBody = 1 << 20

// TokenSource supplies the bearer token sent to the AI proxy.
type TokenSource interface {
	Token() (string, error)
}

type Options struct {
	BackendURL   string
	AssistantURL string

	RequestTimeout time.Duration
	UploadTimeout  time.Duration
	MaxRetries     int
	RetryBackoff   time.Duration

	AssistantToken TokenSource
	HTTPClient     *http.Client
	Logger         logging.Logger
}

// HTTPClient talks JSON over HTTP to the backend and the proxy. GET and
// DELETE are retried with exponential backoff on transport errors, 429 and
// 5xx; all other methods are sent exactly once.
type HTTPClient struct {
	backendURL   string
	assistantURL string

	requestTimeout time.Duration
	uploadTimeout  time.Duration
	maxRetries     int
	backoff        time.Duration

	token TokenSource
	hc    *http.Client
	log   logging.Logger
}

var _ Client = (*HTTPClient)(nil)

func NewHTTPClient(opts Options) (*HTTPClient, error) {
	backend := strings.TrimRight(strings.TrimSpace(opts.BackendURL), "/")
	if backend == "" {
		return nil, errors.New("backend url required")
	}
	assistant := strings.TrimRight(strings.TrimSpace(opts.AssistantURL), "/")
	if assistant == "" {
		assistant = backend
	}

	c := &HTTPClient{
		backendURL:     backend,
		assistantURL:   assistant,
		requestTimeout: opts.RequestTimeout,
		uploadTimeout:  opts.UploadTimeout,
		maxRetries:     max(opts.MaxRetries, 0),
		backoff:        opts.RetryBackoff,
		token:          opts.AssistantToken,
		hc:             opts.HTTPClient,
		log:            opts.Logger,
	}
	if c.requestTimeout <= 0 {
		c.requestTimeout = 30 * time.Second
	}
	if c.uploadTimeout <= 0 {
		c.uploadTimeout = 10 * time.Minute
	}
	if c.backoff <= 0 {
		c.backoff = 250 * time.Millisecond
	}
	if c.hc == nil {
		c.hc = &http.Client{}
	}
	if c.log == nil {
		c.log = logging.Nop{}
	}
	return c, nil
}

func (c *HTTPClient) Close() error {
	c.hc.CloseIdleConnections()
	return nil
}

func (c *HTTPClient) ResolveURL(path string) string {
	if path == "" || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.backendURL + path
}

type target int

const (
	backend target = iota
	assistant
)

func (c *HTTPClient) url(t target, path string) string {
	if t == assistant {
		return c.assistantURL + path
	}
	return c.backendURL + path
}

func idempotent(method string) bool {
	return method == http.MethodGet || method == http.MethodDelete || method == http.MethodHead
}

// doJSON sends body as JSON and decodes a 2xx response into out. A 2xx body
// carrying an error field is reported as *RemoteError.
func (c *HTTPClient) doJSON(ctx context.Context, t target, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = b
	}

	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	retries := 0
	if idempotent(method) {
		retries = c.maxRetries
	}

	backoff := c.backoff
	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			c.log.Debug(ctx, "retrying request", "method", method, "path", path, "attempt", attempt, "error", lastErr)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		var rdr io.Reader
		if payload != nil {
			rdr = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.url(t, path), rdr)
		if err != nil {
			return err
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if err := c.setHeaders(req, t); err != nil {
			return err
		}

		raw, err := c.send(req)
		if err == nil {
			if err := checkEnvelope(raw); err != nil {
				return err
			}
			if out == nil || len(bytes.TrimSpace(raw)) == 0 {
				return nil
			}
			if err := json.Unmarshal(raw, out); err != nil {
				return fmt.Errorf("decode %s %s: %w", method, path, err)
			}
			return nil
		}

		lastErr = err
		if !retryable(err) {
			return err
		}
	}
	return lastErr
}

// send performs one exchange and classifies failures as transport errors
// (ErrUnavailable) or *StatusError.
func (c *HTTPClient) send(req *http.Request) ([]byte, error) {
	resp, err := c.hc.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parseStatusError(resp.StatusCode, raw)
	}
	return raw, nil
}

func retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.retryable()
	}
	return errors.Is(err, ErrUnavailable)
}

func (c *HTTPClient) setHeaders(req *http.Request, t target) error {
	req.Header.Set("Accept", "application/json")
	if t != assistant || c.token == nil {
		return nil
	}
	tok, err := c.token.Token()
	if err != nil {
		return fmt.Errorf("assistant token: %w", err)
	}
	if tok != "" {
		req.Header.Set(common.AuthorizationHeaderName, "Bearer "+tok)
	}
	return nil
}

func decode(raw []byte, out any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

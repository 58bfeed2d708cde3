// Package httpclient provides a retrying HTTP client with JSON helpers,
// shared by the narrative signal collectors and the LLM transports.
package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ampactor/st-solguard/internal/errs"
	"github.com/cenkalti/backoff/v4"
)

const (
	maxRetries  = 3
	baseDelay   = time.Second
	maxDelay    = 30 * time.Second
	reqTimeout  = 180 * time.Second
)

// Client wraps net/http.Client with the pipeline's retry/backoff policy.
type Client struct {
	userAgent string
	http      *http.Client
}

func New(userAgent string) *Client {
	return &Client{
		userAgent: userAgent,
		http:      &http.Client{Timeout: reqTimeout},
	}
}

// GetText performs a GET and returns the raw response body.
func (c *Client) GetText(ctx context.Context, url string) (string, error) {
	return c.requestWithRetry(ctx, http.MethodGet, url, nil, nil)
}

// GetJSON performs a GET and decodes the JSON body into T.
func GetJSON[T any](ctx context.Context, c *Client, url string) (T, error) {
	var zero T
	text, err := c.GetText(ctx, url)
	if err != nil {
		return zero, err
	}
	var out T
	if jerr := json.Unmarshal([]byte(text), &out); jerr != nil {
		return zero, errs.Parse("decode JSON response: " + jerr.Error())
	}
	return out, nil
}

// GetJSONAuthed performs a bearer-authenticated GET with a code-host Accept header.
func GetJSONAuthed[T any](ctx context.Context, c *Client, url, token string) (T, error) {
	var zero T
	headers := map[string]string{
		"Accept": "application/vnd.github+json",
	}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}
	text, err := c.requestWithRetry(ctx, http.MethodGet, url, nil, headers)
	if err != nil {
		return zero, err
	}
	var out T
	if jerr := json.Unmarshal([]byte(text), &out); jerr != nil {
		return zero, errs.Parse("decode JSON response: " + jerr.Error())
	}
	return out, nil
}

// PostJSONRaw POSTs body with the given extra headers and returns the raw response text.
func (c *Client) PostJSONRaw(ctx context.Context, url, body string, headers map[string]string) (string, error) {
	merged := map[string]string{"Content-Type": "application/json"}
	for k, v := range headers {
		merged[k] = v
	}
	return c.requestWithRetry(ctx, http.MethodPost, url, strings.NewReader(body), merged)
}

func (c *Client) requestWithRetry(ctx context.Context, method, url string, body io.Reader, headers map[string]string) (string, error) {
	var bodyBytes []byte
	if body != nil {
		var err error
		bodyBytes, err = io.ReadAll(body)
		if err != nil {
			return "", errs.HTTP("read request body", err)
		}
	}

	var result string
	attempt := 0

	operation := func() error {
		attempt++
		var reqBody io.Reader
		if bodyBytes != nil {
			reqBody = strings.NewReader(string(bodyBytes))
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
		if err != nil {
			return backoff.Permanent(errs.HTTP("build request: "+err.Error(), err))
		}
		req.Header.Set("User-Agent", c.userAgent)
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if attempt > maxRetries {
				return backoff.Permanent(errs.HTTP("transport error: "+err.Error(), err))
			}
			return err // retryable: timeout/connect error
		}
		defer resp.Body.Close()

		text, err := handleResponse(resp)
		if err != nil {
			var pe *errs.Error
			if errors.As(err, &pe) && pe.Kind == errs.KindRateLimit {
				return backoff.Permanent(err)
			}
			return backoff.Permanent(err)
		}
		result = text
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = baseDelay
	bo.MaxInterval = maxDelay
	bo.Multiplier = 2
	bo.MaxElapsedTime = 0
	policy := backoff.WithMaxRetries(bo, maxRetries)

	if err := backoff.Retry(operation, policy); err != nil {
		return "", err
	}
	return result, nil
}

func handleResponse(resp *http.Response) (string, error) {
	data, _ := io.ReadAll(resp.Body)
	body := string(data)

	switch resp.StatusCode {
	case 200, 201, 202:
		return body, nil
	case 429:
		retryAfter := 0
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if secs, err := strconv.Atoi(ra); err == nil {
				retryAfter = secs
			}
		}
		return "", errs.RateLimit(resp.Request.URL.Host, retryAfter)
	default:
		return "", errs.APIWithStatus(resp.Request.URL.Host, body, resp.StatusCode)
	}
}

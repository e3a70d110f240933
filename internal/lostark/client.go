// Package lostark is a small client for the Lost Ark developer API.
package lostark

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dukerupert/dailyboard/internal/credential"
	"github.com/dukerupert/dailyboard/internal/model"
)

// tokenCheckCharacter is looked up by ValidateToken. Any name works; the API
// answers with an empty body for unknown characters.
const tokenCheckCharacter = "테스트"

// Client calls the API with the stored bearer token, retrying HTTP 429 with
// backoff.
type Client struct {
	baseURL    string
	tokens     credential.Store
	httpClient *http.Client
	maxRetries int
	maxBackoff time.Duration
}

func NewClient(baseURL string, tokens credential.Store, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: 3,
		maxBackoff: 30 * time.Second,
	}
}

// Siblings returns every character on the account that owns name, across
// all servers. An unknown name yields an empty list.
func (c *Client) Siblings(ctx context.Context, name string) ([]model.Character, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}
	return c.siblings(ctx, token, name)
}

func (c *Client) siblings(ctx context.Context, token, name string) ([]model.Character, error) {
	var chars []model.Character
	path := "/characters/" + url.PathEscape(name) + "/siblings"
	if err := c.do(ctx, token, http.MethodGet, path, nil, &chars); err != nil {
		return nil, err
	}
	if chars == nil {
		chars = []model.Character{}
	}
	return chars, nil
}

// MarketItems searches the market by category code.
func (c *Client) MarketItems(ctx context.Context, categoryCode int) (*MarketPage, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}
	var page MarketPage
	if err := c.do(ctx, token, http.MethodPost, "/markets/items", marketItemsRequest{CategoryCode: categoryCode}, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ValidateToken makes a lookup with token without storing it. It
// returns ErrInvalidToken when the API rejects the token.
func (c *Client) ValidateToken(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return credential.ErrEmptyToken
	}
	_, err := c.siblings(ctx, token, tokenCheckCharacter)
	var apiErr *APIError
	if errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden) {
		return fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return err
}

func (c *Client) token(ctx context.Context) (string, error) {
	token, err := c.tokens.Get(ctx)
	if errors.Is(err, credential.ErrNotFound) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("load api token: %w", err)
	}
	return token, nil
}

func (c *Client) do(ctx context.Context, token, method, path string, body, result any) error {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		payload = data
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("accept", "application/json")
		req.Header.Set("authorization", "bearer "+token)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("%s %s: %w", method, path, err)
		}
		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return fmt.Errorf("read response body: %w", readErr)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = &APIError{Method: method, Path: path, Status: resp.StatusCode, Body: string(respBody)}
			if attempt == c.maxRetries {
				break
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryAfter(resp, attempt)):
				continue
			}
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &APIError{Method: method, Path: path, Status: resp.StatusCode, Body: string(respBody)}
		}

		if result == nil || len(bytes.TrimSpace(respBody)) == 0 {
			return nil
		}
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decode response from %s %s: %w", method, path, err)
		}
		return nil
	}

	return fmt.Errorf("max retries (%d) exceeded: %w", c.maxRetries, lastErr)
}

// retryAfter honors a Retry-After header in seconds and otherwise backs off
// exponentially: 1s, 2s, 4s, capped at maxBackoff.
func (c *Client) retryAfter(resp *http.Response, attempt int) time.Duration {
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil && seconds >= 0 {
			return min(time.Duration(seconds)*time.Second, c.maxBackoff)
		}
	}
	return min(time.Duration(1<<uint(attempt))*time.Second, c.maxBackoff)
}

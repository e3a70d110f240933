package lostark

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dukerupert/dailyboard/internal/credential"
)

type staticTokens struct {
	token string
	err   error
}

func (s *staticTokens) Get(context.Context) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if s.token == "" {
		return "", credential.ErrNotFound
	}
	return s.token, nil
}

func (s *staticTokens) Set(_ context.Context, token string) error {
	s.token = token
	return nil
}

func (s *staticTokens) Clear(context.Context) error {
	s.token = ""
	return nil
}

func TestSiblings(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		if r.URL.Path != "/characters/Main Bard/siblings" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("authorization"); got != "bearer tok" {
			t.Errorf("authorization = %q, want %q", got, "bearer tok")
		}
		if got := r.Header.Get("accept"); got != "application/json" {
			t.Errorf("accept = %q", got)
		}
		w.Write([]byte(`[
			{"ServerName":"Luterra","CharacterName":"Main Bard","CharacterLevel":70,"CharacterClassName":"Bard","ItemAvgLevel":"1,640.00","ItemMaxLevel":"1,645.00"},
			{"ServerName":"Luterra","CharacterName":"Alt","CharacterLevel":60,"CharacterClassName":"Gunlancer","ItemAvgLevel":"1,100.00","ItemMaxLevel":"1,100.00"}
		]`))
	}))
	defer server.Close()

	c := NewClient(server.URL, &staticTokens{token: "tok"}, time.Second)
	chars, err := c.Siblings(context.Background(), "Main Bard")
	if err != nil {
		t.Fatalf("siblings: %v", err)
	}
	if len(chars) != 2 {
		t.Fatalf("got %d characters, want 2", len(chars))
	}
	if chars[0].ItemAvgLevel != "1,640.00" || chars[0].CharacterLevel != 70 {
		t.Errorf("chars[0] = %+v", chars[0])
	}
	if chars[1].ItemMaxLevel != "1,100.00" {
		t.Errorf("ItemMaxLevel = %q, want it decoded", chars[1].ItemMaxLevel)
	}
}

func TestSiblingsNullBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("null"))
	}))
	defer server.Close()

	c := NewClient(server.URL, &staticTokens{token: "tok"}, time.Second)
	chars, err := c.Siblings(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("siblings: %v", err)
	}
	if chars == nil || len(chars) != 0 {
		t.Errorf("chars = %v, want empty non-nil list", chars)
	}
}

func TestNoTokenSkipsRequest(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	c := NewClient(server.URL, &staticTokens{}, time.Second)
	if _, err := c.Siblings(context.Background(), "x"); !errors.Is(err, ErrNoToken) {
		t.Errorf("err = %v, want ErrNoToken", err)
	}
	if calls.Load() != 0 {
		t.Errorf("server called %d times, want 0", calls.Load())
	}
}

func TestAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("maintenance"))
	}))
	defer server.Close()

	c := NewClient(server.URL, &staticTokens{token: "tok"}, time.Second)
	_, err := c.Siblings(context.Background(), "x")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusServiceUnavailable || apiErr.Body != "maintenance" {
		t.Errorf("api error = %+v", apiErr)
	}
}

func TestRetryOnRateLimit(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	c := NewClient(server.URL, &staticTokens{token: "tok"}, time.Second)
	if _, err := c.Siblings(context.Background(), "x"); err != nil {
		t.Fatalf("siblings: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestRetryGivesUp(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := NewClient(server.URL, &staticTokens{token: "tok"}, time.Second)
	_, err := c.Siblings(context.Background(), "x")

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusTooManyRequests {
		t.Fatalf("err = %v, want wrapped 429 APIError", err)
	}
	if int(calls.Load()) != c.maxRetries+1 {
		t.Errorf("calls = %d, want %d", calls.Load(), c.maxRetries+1)
	}
}

func TestRetryHonorsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "5")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := NewClient(server.URL, &staticTokens{token: "tok"}, time.Second)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := c.Siblings(ctx, "x"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
}

func TestMarketItems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/markets/items" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		body, _ := io.ReadAll(r.Body)
		var req map[string]int
		if err := json.Unmarshal(body, &req); err != nil || req["CategoryCode"] != 50000 {
			t.Errorf("body = %s", body)
		}
		w.Write([]byte(`{"PageNo":1,"PageSize":10,"TotalCount":1,"Items":[{"Id":66102006,"Name":"Honor Leapstone","Grade":"Rare","BundleCount":10,"CurrentMinPrice":12}]}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, &staticTokens{token: "tok"}, time.Second)
	page, err := c.MarketItems(context.Background(), 50000)
	if err != nil {
		t.Fatalf("market items: %v", err)
	}
	if page.TotalCount != 1 || len(page.Items) != 1 {
		t.Fatalf("page = %+v", page)
	}
	if page.Items[0].Name != "Honor Leapstone" || page.Items[0].CurrentMinPrice != 12 {
		t.Errorf("item = %+v", page.Items[0])
	}
}

func TestValidateToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("authorization") != "bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte("null"))
	}))
	defer server.Close()

	tokens := &staticTokens{token: "stored"}
	c := NewClient(server.URL, tokens, time.Second)

	if err := c.ValidateToken(context.Background(), " good "); err != nil {
		t.Errorf("validate good token: %v", err)
	}
	if err := c.ValidateToken(context.Background(), "bad"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("validate bad token = %v, want ErrInvalidToken", err)
	}
	if err := c.ValidateToken(context.Background(), "  "); !errors.Is(err, credential.ErrEmptyToken) {
		t.Errorf("validate blank = %v, want ErrEmptyToken", err)
	}
	if tokens.token != "stored" {
		t.Errorf("stored token changed to %q", tokens.token)
	}
}

package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider is a minimal OpenAI-shaped provider for tests.
type fakeProvider struct{ name string }

func (p *fakeProvider) Name() string                 { return p.name }
func (p *fakeProvider) BuildURL(base string) string  { return base }
func (p *fakeProvider) SetHeaders(req *http.Request) {}

func (p *fakeProvider) BuildRequestBody(model string, messages []Message, temperature *float64, maxTokens int) ([]byte, error) {
	body := map[string]any{"model": model, "messages": messages}
	if temperature != nil {
		body["temperature"] = *temperature
	}
	return json.Marshal(body)
}

func (p *fakeProvider) ParseResponse(body []byte, model string) (*Response, error) {
	var parsed struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, err
	}
	return &Response{Content: parsed.Content, Model: model}, nil
}

func fastRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 3, BackoffBase: time.Millisecond, BackoffMultiplier: 1.0, MaxBackoff: time.Millisecond}
}

func TestCompleteSuccess(t *testing.T) {
	RegisterProvider(&fakeProvider{name: "fake"})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"content": "hello"})
	}))
	defer srv.Close()

	c := NewClient([]Endpoint{{Provider: "fake", URL: srv.URL, Model: "m1"}},
		WithRetryConfig(fastRetry()))

	resp, err := c.Complete(context.Background(), Request{Messages: []Message{{Role: "user", Content: "hi"}}})
	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Content)
	assert.Equal(t, "m1", resp.Model)
	assert.NotEmpty(t, resp.RequestID)
}

func TestCompleteRetriesTransientErrors(t *testing.T) {
	RegisterProvider(&fakeProvider{name: "fake"})
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"content": "recovered"})
	}))
	defer srv.Close()

	c := NewClient([]Endpoint{{Provider: "fake", URL: srv.URL, Model: "m1"}},
		WithRetryConfig(fastRetry()))

	resp, err := c.Complete(context.Background(), Request{Messages: []Message{{Role: "user", Content: "hi"}}})
	require.NoError(t, err)
	assert.Equal(t, "recovered", resp.Content)
	assert.Equal(t, int32(3), calls.Load())
}

func TestCompleteFallsBackToNextEndpoint(t *testing.T) {
	RegisterProvider(&fakeProvider{name: "fake"})
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"content": "fallback"})
	}))
	defer good.Close()

	c := NewClient([]Endpoint{
		{Provider: "fake", URL: bad.URL, Model: "primary"},
		{Provider: "fake", URL: good.URL, Model: "secondary"},
	}, WithRetryConfig(RetryConfig{MaxAttempts: 1, BackoffBase: time.Millisecond, BackoffMultiplier: 1, MaxBackoff: time.Millisecond}))

	resp, err := c.Complete(context.Background(), Request{Messages: []Message{{Role: "user", Content: "hi"}}})
	require.NoError(t, err)
	assert.Equal(t, "fallback", resp.Content)
	assert.Equal(t, "secondary", resp.Model)
}

func TestCompleteFatalErrorStopsChain(t *testing.T) {
	RegisterProvider(&fakeProvider{name: "fake"})
	var unauthorizedCalls, fallbackCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		unauthorizedCalls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()
	fallback := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fallbackCalls.Add(1)
	}))
	defer fallback.Close()

	c := NewClient([]Endpoint{
		{Provider: "fake", URL: srv.URL, Model: "m1"},
		{Provider: "fake", URL: fallback.URL, Model: "m2"},
	}, WithRetryConfig(fastRetry()))

	_, err := c.Complete(context.Background(), Request{Messages: []Message{{Role: "user", Content: "hi"}}})
	require.Error(t, err)
	assert.True(t, IsFatal(err))
	// Fatal means no retry and no fallback.
	assert.Equal(t, int32(1), unauthorizedCalls.Load())
	assert.Zero(t, fallbackCalls.Load())
}

func TestCompleteValidation(t *testing.T) {
	c := NewClient([]Endpoint{{Provider: "fake", Model: "m"}})
	_, err := c.Complete(context.Background(), Request{})
	assert.Error(t, err)

	c = NewClient(nil)
	_, err = c.Complete(context.Background(), Request{Messages: []Message{{Role: "user", Content: "hi"}}})
	assert.Error(t, err)
}

func TestClassifyHTTPError(t *testing.T) {
	assert.True(t, IsTransient(classifyHTTPError(http.StatusTooManyRequests, nil)))
	assert.True(t, IsTransient(classifyHTTPError(http.StatusBadGateway, nil)))
	assert.True(t, IsFatal(classifyHTTPError(http.StatusUnauthorized, nil)))
	assert.True(t, IsFatal(classifyHTTPError(http.StatusBadRequest, nil)))
}

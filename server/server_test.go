package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomkit/loom/llm"
)

// fakeProvider answers every request with a canned completion.
type fakeProvider struct{}

func (p *fakeProvider) Name() string                 { return "srvfake" }
func (p *fakeProvider) BuildURL(base string) string  { return base }
func (p *fakeProvider) SetHeaders(req *http.Request) {}
func (p *fakeProvider) BuildRequestBody(model string, messages []llm.Message, temperature *float64, maxTokens int) ([]byte, error) {
	return json.Marshal(messages)
}
func (p *fakeProvider) ParseResponse(body []byte, model string) (*llm.Response, error) {
	return &llm.Response{Content: "the answer", Model: model}, nil
}

func testServer(t *testing.T, bookDir string) *Server {
	t.Helper()
	llm.RegisterProvider(&fakeProvider{})

	model := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{}"))
	}))
	t.Cleanup(model.Close)

	assistant := &llm.Assistant{
		Client: llm.NewClient([]llm.Endpoint{{Provider: "srvfake", URL: model.URL, Model: "m"}}),
	}
	return New(Config{Addr: "127.0.0.1:0", BookDir: bookDir, Assistant: assistant}, prometheus.NewRegistry())
}

func TestChatEndpoint(t *testing.T) {
	s := testServer(t, "")

	body := strings.NewReader(`{"prompt": "what is tangle?"}`)
	req := httptest.NewRequest(http.MethodPost, "/chat", body)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "the answer", resp.Response)
}

func TestChatRejectsEmptyPrompt(t *testing.T) {
	s := testServer(t, "")

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`not json`))
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatUnavailableWithoutAssistant(t *testing.T) {
	s := New(Config{Addr: "127.0.0.1:0"}, prometheus.NewRegistry())

	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"prompt": "hi"}`))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthz(t *testing.T) {
	s := New(Config{Addr: "127.0.0.1:0"}, prometheus.NewRegistry())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestBookServedStatically(t *testing.T) {
	book := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(book, "index.html"), []byte("<h1>Book</h1>"), 0o644))

	s := testServer(t, book)
	req := httptest.NewRequest(http.MethodGet, "/index.html", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Book")
}

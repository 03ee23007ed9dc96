package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssistantBuildsScopedMessages(t *testing.T) {
	RegisterProvider(&fakeProvider{name: "fake"})

	var captured []Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Messages []Message `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		captured = body.Messages
		json.NewEncoder(w).Encode(map[string]string{"content": "ok"})
	}))
	defer srv.Close()

	a := &Assistant{Client: NewClient([]Endpoint{{Provider: "fake", URL: srv.URL, Model: "m"}})}

	_, err := a.Ask(context.Background(), "what does add do?", "# math\n\ncode here\n")
	require.NoError(t, err)
	require.Len(t, captured, 3)
	assert.Equal(t, "system", captured[0].Role)
	assert.Contains(t, captured[0].Content, "specialty in programming")
	assert.Equal(t, "# math\n\ncode here\n", captured[1].Content)
	assert.Equal(t, "user", captured[2].Role)

	_, err = a.Ask(context.Background(), "hi", "")
	require.NoError(t, err)
	require.Len(t, captured, 2)
	assert.Contains(t, captured[0].Content, "No additional context was provided")
}

func TestAssistantForwardsTemperature(t *testing.T) {
	RegisterProvider(&fakeProvider{name: "fake"})

	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(map[string]string{"content": "ok"})
	}))
	defer srv.Close()

	temp := 0.4
	a := &Assistant{
		Client:      NewClient([]Endpoint{{Provider: "fake", URL: srv.URL, Model: "m"}}),
		Temperature: &temp,
	}

	_, err := a.Ask(context.Background(), "q", "")
	require.NoError(t, err)
	assert.Equal(t, 0.4, captured["temperature"])
}

func TestAssistantRejectsEmptyPrompt(t *testing.T) {
	a := &Assistant{Client: NewClient(nil)}
	_, err := a.Ask(context.Background(), "   ", "")
	assert.Error(t, err)
}

func TestAskAboutFileMissingFileDegrades(t *testing.T) {
	RegisterProvider(&fakeProvider{name: "fake"})

	var captured []Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Messages []Message `json:"messages"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		captured = body.Messages
		json.NewEncoder(w).Encode(map[string]string{"content": "ok"})
	}))
	defer srv.Close()

	a := &Assistant{Client: NewClient([]Endpoint{{Provider: "fake", URL: srv.URL, Model: "m"}})}

	_, err := a.AskAboutFile(context.Background(), "q", filepath.Join(t.TempDir(), "absent.md"))
	require.NoError(t, err)
	require.Len(t, captured, 2)

	path := filepath.Join(t.TempDir(), "doc.md")
	require.NoError(t, os.WriteFile(path, []byte("# Doc\n"), 0o644))
	_, err = a.AskAboutFile(context.Background(), "q", path)
	require.NoError(t, err)
	require.Len(t, captured, 3)
	assert.Equal(t, "# Doc\n", captured[1].Content)
}

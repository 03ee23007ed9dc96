package providers

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loomkit/loom/llm"
)

func TestProvidersRegistered(t *testing.T) {
	assert.NotNil(t, llm.GetProvider("ollama"))
	assert.NotNil(t, llm.GetProvider("anthropic"))
}

func TestOllamaBuildURL(t *testing.T) {
	p := &OllamaProvider{}
	assert.Equal(t, "http://localhost:11434/v1/chat/completions", p.BuildURL(""))
	assert.Equal(t, "http://host:8000/v1/chat/completions", p.BuildURL("http://host:8000/v1/"))
	assert.Equal(t, "http://host/v1/chat/completions", p.BuildURL("http://host/v1/chat/completions"))
}

func TestOllamaRoundTrip(t *testing.T) {
	p := &OllamaProvider{}
	temp := 0.2
	body, err := p.BuildRequestBody("qwen2.5", []llm.Message{{Role: "user", Content: "hi"}}, &temp, 128)
	require.NoError(t, err)

	var req map[string]any
	require.NoError(t, json.Unmarshal(body, &req))
	assert.Equal(t, "qwen2.5", req["model"])
	assert.Equal(t, 0.2, req["temperature"])
	assert.Equal(t, float64(128), req["max_tokens"])

	resp, err := p.ParseResponse([]byte(`{
		"model": "qwen2.5",
		"choices": [{"message": {"role": "assistant", "content": "hey"}, "finish_reason": "stop"}],
		"usage": {"prompt_tokens": 3, "completion_tokens": 1, "total_tokens": 4}
	}`), "qwen2.5")
	require.NoError(t, err)
	assert.Equal(t, "hey", resp.Content)
	assert.Equal(t, 4, resp.Usage.TotalTokens)
	assert.Equal(t, "stop", resp.FinishReason)

	_, err = p.ParseResponse([]byte(`{"choices": []}`), "qwen2.5")
	assert.Error(t, err)
}

func TestAnthropicSystemMessagesLifted(t *testing.T) {
	p := &AnthropicProvider{}
	body, err := p.BuildRequestBody("claude-sonnet", []llm.Message{
		{Role: "system", Content: "scope"},
		{Role: "system", Content: "context"},
		{Role: "user", Content: "question"},
	}, nil, 0)
	require.NoError(t, err)

	var req struct {
		System    string `json:"system"`
		MaxTokens int    `json:"max_tokens"`
		Messages  []struct {
			Role string `json:"role"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(body, &req))
	assert.Equal(t, "scope\n\ncontext", req.System)
	assert.Equal(t, 4096, req.MaxTokens)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, "user", req.Messages[0].Role)
}

func TestAnthropicParseResponse(t *testing.T) {
	p := &AnthropicProvider{}
	resp, err := p.ParseResponse([]byte(`{
		"content": [{"type": "text", "text": "part one "}, {"type": "text", "text": "part two"}],
		"model": "claude-sonnet",
		"stop_reason": "end_turn",
		"usage": {"input_tokens": 10, "output_tokens": 5}
	}`), "claude-sonnet")
	require.NoError(t, err)
	assert.Equal(t, "part one part two", resp.Content)
	assert.Equal(t, 15, resp.Usage.TotalTokens)
	assert.Equal(t, "end_turn", resp.FinishReason)
}

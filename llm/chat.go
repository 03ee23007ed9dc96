package llm

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Assistant answers programming questions over literate document
// context. The context is whatever tangle or weave output the caller
// makes readable; the assistant never manages models itself.
type Assistant struct {
	Client *Client
	// Temperature, when set, is forwarded on every request.
	Temperature *float64
}

const systemPromptWithContext = `You are an AI agent with a specialty in programming.
You do not provide information outside of this scope.
If a question is not about programming, respond with, 'I can't assist you with that, sorry!'.
Below is the content of a specific Markdown file. Use it to answer the user's question.`

const systemPromptNoContext = `You are an AI agent with a specialty in programming.
You do not provide information outside of this scope.
If a question is not about programming, respond with, 'I can't assist you with that, sorry!'.
No additional context was provided.`

// Ask sends a prompt with optional document context.
func (a *Assistant) Ask(ctx context.Context, prompt, docContext string) (*Response, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, fmt.Errorf("no prompt provided")
	}

	messages := []Message{}
	if docContext != "" {
		messages = append(messages,
			Message{Role: "system", Content: systemPromptWithContext},
			Message{Role: "system", Content: docContext})
	} else {
		messages = append(messages, Message{Role: "system", Content: systemPromptNoContext})
	}
	messages = append(messages, Message{Role: "user", Content: prompt})

	return a.Client.Complete(ctx, Request{Messages: messages, Temperature: a.Temperature})
}

// AskAboutFile reads a context file and asks about it. A missing file
// degrades to an uncontextualized question rather than failing.
func (a *Assistant) AskAboutFile(ctx context.Context, prompt, path string) (*Response, error) {
	var fileContext string
	if path != "" {
		if content, err := os.ReadFile(path); err == nil {
			fileContext = string(content)
		}
	}
	return a.Ask(ctx, prompt, fileContext)
}

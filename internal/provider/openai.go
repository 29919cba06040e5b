package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAI translates texts through an OpenAI-compatible chat completion API.
// DeepSeek is reached by pointing the base URL at https://api.deepseek.com.
type OpenAI struct {
	model  string
	client *openai.Client
}

func NewOpenAI(endpoint, apiKey, model string) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if endpoint != "" {
		cfg.BaseURL = strings.TrimRight(endpoint, "/")
	}
	return &OpenAI{
		model:  model,
		client: openai.NewClientWithConfig(cfg),
	}
}

// Translate sends systemPrompt and text as one non-streaming request and
// returns the first choice.
func (o *OpenAI) Translate(ctx context.Context, systemPrompt, text string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("empty translation returned")
	}
	return content, nil
}

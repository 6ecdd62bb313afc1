// Package chatclient implements domain/ports.ChatBackend against OpenAI's
// chat completions API, ported from music_arena/chat/backend.py's
// openai_chat_completion. Grounded on openai-go usage in
// Conceptual-Machines-magda-agents-go/llm/openai_provider.go and
// shantoislamdev-kothaset/internal/provider/openai.go.
package chatclient

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// OpenAI implements ports.ChatBackend against a single fixed model
// (the original only ever defines one backend, "openai-gpt-4o").
type OpenAI struct {
	client openai.Client
	model  shared.ChatModel
}

// New returns an OpenAI chat backend. apiKey must be non-empty; the
// gateway's startup config validation is expected to fail fast rather
// than let this constructor silently build an unauthenticated client.
func New(apiKey, model string) (*OpenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("chatclient: OPENAI_API_KEY is required")
	}
	if model == "" {
		model = openai.ChatModelGPT4o
	}
	return &OpenAI{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  shared.ChatModel(model),
	}, nil
}

// Complete sends textInput as a single user turn, matching
// openai_chat_completion's single-message request shape.
func (o *OpenAI) Complete(ctx context.Context, textInput string, maxTokens int, forceJSON bool, seed *int64) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: o.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(textInput),
		},
		MaxTokens: openai.Int(int64(maxTokens)),
	}
	if seed != nil {
		params.Seed = openai.Int(*seed)
	}
	if forceJSON {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chatclient: openai chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chatclient: openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

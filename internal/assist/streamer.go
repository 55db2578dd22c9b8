// Package assist relays drafting suggestions from an external text
// generator to the single requesting connection, chunk by chunk.
package assist

import (
	"context"
	"errors"
	"io"

	openai "github.com/sashabaranov/go-openai"

	"github.com/tkondo/chatwire/internal/config"
)

// Streamer produces a finite sequence of text chunks for a prompt.
// onChunk is called once per non-empty chunk, in order, from a single
// goroutine. A nil return means the stream finished normally.
type Streamer interface {
	Stream(ctx context.Context, prompt string, onChunk func(chunk string)) error
}

// OpenAIStreamer drives a streaming chat completion.
type OpenAIStreamer struct {
	client       *openai.Client
	model        string
	systemPrompt string
}

func NewOpenAIStreamer(cfg config.OpenAIConfig) *OpenAIStreamer {
	return &OpenAIStreamer{
		client:       openai.NewClient(cfg.APIKey),
		model:        cfg.Model,
		systemPrompt: cfg.SystemPrompt,
	}
}

func (s *OpenAIStreamer) Stream(ctx context.Context, prompt string, onChunk func(chunk string)) error {
	stream, err := s.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: s.systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Stream: true,
	})
	if err != nil {
		return err
	}
	defer stream.Close()

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			continue
		}
		if content := resp.Choices[0].Delta.Content; content != "" {
			onChunk(content)
		}
	}
}

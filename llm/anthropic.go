// Anthropic transport using the official Go SDK.
//
// Information Hiding:
// - System prompt is lifted out of the history into the request field
// - thinking_delta and text_delta are sibling delta variants of one event type
// - SDK-level retries are disabled; retry policy belongs to the caller

package llm

import (
	"context"
	"fmt"
	"io"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
)

func newAnthropicTransport(target Resolved, opts transportOptions) (streamOpener, error) {
	clientOpts := []option.RequestOption{
		option.WithAPIKey(target.Provider.APIKey),
		option.WithMaxRetries(0),
		option.WithHTTPClient(opts.httpClient),
	}
	if target.Provider.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(target.Provider.BaseURL))
	}
	client := anthropic.NewClient(clientOpts...)

	model := target.Model.ID
	maxTokens := int64(opts.maxTokens)
	budget := target.Provider.ThinkingBudget
	if budget > 0 && maxTokens <= budget {
		maxTokens = budget + int64(opts.maxTokens)
	}

	return func(ctx context.Context, messages []ChatMessage) (ChunkStream, error) {
		anthropicMessages, systemPrompt := convertToAnthropicMessages(messages)

		params := anthropic.MessageNewParams{
			Model:     anthropic.Model(model),
			MaxTokens: maxTokens,
			Messages:  anthropicMessages,
		}
		if systemPrompt != "" {
			params.System = []anthropic.TextBlockParam{
				{Text: systemPrompt},
			}
		}
		if budget > 0 {
			params.Thinking = anthropic.ThinkingConfigParamUnion{
				OfEnabled: &anthropic.ThinkingConfigEnabledParam{BudgetTokens: budget},
			}
		}

		stream := client.Messages.NewStreaming(ctx, params)
		if err := stream.Err(); err != nil {
			_ = stream.Close()
			return nil, fmt.Errorf("stream creation failed: %w", err)
		}
		return &anthropicStream{stream: stream}, nil
	}, nil
}

type anthropicStream struct {
	stream *ssestream.Stream[anthropic.MessageStreamEventUnion]
	usage  TokenUsage
}

func (s *anthropicStream) Recv() (Chunk, error) {
	for s.stream.Next() {
		chunk, ok := decodeAnthropicEvent(s.stream.Current(), &s.usage)
		if ok {
			return chunk, nil
		}
	}
	if err := s.stream.Err(); err != nil {
		return Chunk{}, fmt.Errorf("stream error: %w", err)
	}
	return Chunk{}, io.EOF
}

func (s *anthropicStream) Close() error {
	return s.stream.Close()
}

// decodeAnthropicEvent maps one Messages stream event onto a Chunk.
// Events that carry neither text nor accounting are skipped (ok is false).
func decodeAnthropicEvent(event anthropic.MessageStreamEventUnion, usage *TokenUsage) (Chunk, bool) {
	switch eventVariant := event.AsAny().(type) {
	case anthropic.MessageStartEvent:
		usage.PromptTokens = uint32(eventVariant.Message.Usage.InputTokens)
		return Chunk{}, false
	case anthropic.ContentBlockDeltaEvent:
		switch deltaVariant := eventVariant.Delta.AsAny().(type) {
		case anthropic.ThinkingDelta:
			return Chunk{
				Kind:      TransportAnthropic,
				Reasoning: deltaVariant.Thinking,
			}, true
		case anthropic.TextDelta:
			return Chunk{
				Kind:    TransportAnthropic,
				Choices: []Choice{{Answer: deltaVariant.Text}},
			}, true
		}
	case anthropic.MessageDeltaEvent:
		usage.CompletionTokens = uint32(eventVariant.Usage.OutputTokens)
		usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
		reported := *usage
		return Chunk{Kind: TransportAnthropic, Usage: &reported}, true
	}
	return Chunk{}, false
}

// convertToAnthropicMessages converts our ChatMessage to Anthropic format.
// System messages are joined into the separate system prompt.
func convertToAnthropicMessages(messages []ChatMessage) ([]anthropic.MessageParam, string) {
	var anthropicMessages []anthropic.MessageParam
	var systemPrompt string

	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			if systemPrompt != "" {
				systemPrompt += "\n\n"
			}
			systemPrompt += msg.Content
		case RoleUser:
			anthropicMessages = append(anthropicMessages, anthropic.NewUserMessage(
				anthropic.NewTextBlock(msg.Content),
			))
		case RoleAssistant:
			anthropicMessages = append(anthropicMessages, anthropic.NewAssistantMessage(
				anthropic.NewTextBlock(msg.Content),
			))
		}
	}

	return anthropicMessages, systemPrompt
}

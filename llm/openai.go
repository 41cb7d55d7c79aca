// OpenAI-compatible transport using go-openai library.
//
// Information Hiding:
// - Shared Chat Completions envelope used by DashScope and Hunyuan
// - reasoning_content sits next to the standard content in choices[0].delta
// - Vendor extension fields are merged into the request body

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

func newOpenAITransport(target Resolved, opts transportOptions) (streamOpener, error) {
	config := openai.DefaultConfig(target.Provider.APIKey)
	if target.Provider.BaseURL != "" {
		config.BaseURL = target.Provider.BaseURL
	}

	var doer openai.HTTPDoer = opts.httpClient
	if len(target.Provider.ExtraBody) > 0 {
		doer = &extraBodyDoer{next: opts.httpClient, extra: target.Provider.ExtraBody}
	}
	config.HTTPClient = doer

	client := openai.NewClientWithConfig(config)
	model := target.Model.ID

	return func(ctx context.Context, messages []ChatMessage) (ChunkStream, error) {
		req := openai.ChatCompletionRequest{
			Model:    model,
			Messages: convertToOpenAIMessages(messages),
			Stream:   true,
			StreamOptions: &openai.StreamOptions{
				IncludeUsage: true,
			},
		}

		stream, err := client.CreateChatCompletionStream(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("stream creation failed: %w", err)
		}
		return &openAIStream{stream: stream}, nil
	}, nil
}

type openAIStream struct {
	stream *openai.ChatCompletionStream
}

func (s *openAIStream) Recv() (Chunk, error) {
	response, err := s.stream.Recv()
	if err != nil {
		return Chunk{}, err
	}
	return decodeOpenAIChunk(response), nil
}

func (s *openAIStream) Close() error {
	return s.stream.Close()
}

// decodeOpenAIChunk maps the shared envelope onto a Chunk.
func decodeOpenAIChunk(response openai.ChatCompletionStreamResponse) Chunk {
	chunk := Chunk{Kind: TransportOpenAICompatible}

	if response.Usage != nil {
		chunk.Usage = &TokenUsage{
			PromptTokens:     uint32(response.Usage.PromptTokens),
			CompletionTokens: uint32(response.Usage.CompletionTokens),
			TotalTokens:      uint32(response.Usage.TotalTokens),
		}
	}

	// With include_usage the last frame has an empty choices list.
	if len(response.Choices) == 0 {
		return chunk
	}

	delta := response.Choices[0].Delta
	chunk.Reasoning = delta.ReasoningContent
	chunk.Choices = make([]Choice, len(response.Choices))
	for i, choice := range response.Choices {
		chunk.Choices[i] = Choice{Answer: choice.Delta.Content}
	}
	return chunk
}

// convertToOpenAIMessages converts our ChatMessage to openai.ChatCompletionMessage
func convertToOpenAIMessages(messages []ChatMessage) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		result[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}
	return result
}

// extraBodyDoer merges vendor extension fields into JSON request bodies.
type extraBodyDoer struct {
	next  openai.HTTPDoer
	extra map[string]any
}

func (d *extraBodyDoer) Do(req *http.Request) (*http.Response, error) {
	merged, err := mergeExtraBody(req, d.extra)
	if err != nil {
		return nil, err
	}
	return d.next.Do(merged)
}

// mergeExtraBody returns a copy of req whose JSON body also carries extra.
// Fields already present in the body win.
func mergeExtraBody(req *http.Request, extra map[string]any) (*http.Request, error) {
	if req.Body == nil || req.Method != http.MethodPost {
		return req, nil
	}

	raw, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, fmt.Errorf("read request body: %w", err)
	}
	_ = req.Body.Close()

	body := map[string]any{}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("decode request body: %w", err)
	}
	for k, v := range extra {
		if _, exists := body[k]; !exists {
			body[k] = v
		}
	}

	merged, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}

	req = req.Clone(req.Context())
	req.Body = io.NopCloser(bytes.NewReader(merged))
	req.ContentLength = int64(len(merged))
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(merged)), nil
	}
	return req, nil
}

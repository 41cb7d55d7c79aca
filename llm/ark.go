// Volcengine Ark transport using the arkruntime SDK.
//
// Information Hiding:
// - Ark native envelope, where reasoning_content is optional and only
//   present for thinking-capable models
// - SDK-level retries are disabled; retry policy belongs to the caller
// - Vendor extension fields are merged into the request body

package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/volcengine/volcengine-go-sdk/service/arkruntime"
	arkmodel "github.com/volcengine/volcengine-go-sdk/service/arkruntime/model"
	"github.com/volcengine/volcengine-go-sdk/service/arkruntime/utils"
)

func newArkTransport(target Resolved, opts transportOptions) (streamOpener, error) {
	endpoint := strings.TrimRight(target.Provider.BaseURL, "/")
	if endpoint == "" {
		return nil, fmt.Errorf("ark provider %s has no base URL", target.Provider.ID)
	}

	httpClient := opts.httpClient
	if len(target.Provider.ExtraBody) > 0 {
		httpClient = withExtraBody(opts.httpClient, target.Provider.ExtraBody)
	}

	client := arkruntime.NewClientWithApiKey(
		target.Provider.APIKey,
		arkruntime.WithBaseUrl(endpoint),
		arkruntime.WithHTTPClient(httpClient),
		arkruntime.WithRetryTimes(0),
	)
	model := target.Model.ID

	return func(ctx context.Context, messages []ChatMessage) (ChunkStream, error) {
		req := arkmodel.CreateChatCompletionRequest{
			Model:         model,
			Messages:      convertToArkMessages(messages),
			StreamOptions: &arkmodel.StreamOptions{IncludeUsage: true},
		}

		stream, err := client.CreateChatCompletionStream(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("stream creation failed: %w", err)
		}
		return &arkStream{stream: stream}, nil
	}, nil
}

type arkStream struct {
	stream *utils.ChatCompletionStreamReader
}

func (s *arkStream) Recv() (Chunk, error) {
	response, err := s.stream.Recv()
	if err != nil {
		return Chunk{}, err
	}
	return decodeArkChunk(response), nil
}

func (s *arkStream) Close() error {
	return s.stream.Close()
}

// decodeArkChunk maps one Ark stream response onto a Chunk.
func decodeArkChunk(response arkmodel.ChatCompletionStreamResponse) Chunk {
	chunk := Chunk{Kind: TransportArk}
	if response.Usage != nil {
		chunk.Usage = &TokenUsage{
			PromptTokens:     uint32(response.Usage.PromptTokens),
			CompletionTokens: uint32(response.Usage.CompletionTokens),
			TotalTokens:      uint32(response.Usage.TotalTokens),
		}
	}
	if len(response.Choices) == 0 {
		return chunk
	}

	chunk.Choices = make([]Choice, len(response.Choices))
	for i, choice := range response.Choices {
		if choice == nil {
			continue
		}
		if i == 0 && choice.Delta.ReasoningContent != nil {
			chunk.Reasoning = *choice.Delta.ReasoningContent
		}
		chunk.Choices[i] = Choice{Answer: choice.Delta.Content}
	}
	return chunk
}

// convertToArkMessages converts our ChatMessage to Ark format.
func convertToArkMessages(messages []ChatMessage) []*arkmodel.ChatCompletionMessage {
	result := make([]*arkmodel.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		role := arkmodel.ChatMessageRoleUser
		switch msg.Role {
		case RoleSystem:
			role = arkmodel.ChatMessageRoleSystem
		case RoleAssistant:
			role = arkmodel.ChatMessageRoleAssistant
		}
		content := msg.Content
		result = append(result, &arkmodel.ChatCompletionMessage{
			Role:    role,
			Content: &arkmodel.ChatCompletionMessageContent{StringValue: &content},
		})
	}
	return result
}

// extraBodyTransport merges vendor extension fields into JSON request bodies
// for SDKs that only accept an *http.Client.
type extraBodyTransport struct {
	next  http.RoundTripper
	extra map[string]any
}

func withExtraBody(base *http.Client, extra map[string]any) *http.Client {
	next := base.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	client := *base
	client.Transport = &extraBodyTransport{next: next, extra: extra}
	return &client
}

func (t *extraBodyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	merged, err := mergeExtraBody(req, t.extra)
	if err != nil {
		return nil, err
	}
	return t.next.RoundTrip(merged)
}

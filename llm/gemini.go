// Gemini transport using google.golang.org/genai.
//
// Information Hiding:
// - Roles map to user/model contents, system text goes to SystemInstruction
// - Reasoning arrives as parts flagged thought=true beside plain text parts
// - The SDK's push iterator is exposed as a pull ChunkStream

package llm

import (
	"context"
	"fmt"
	"io"
	"iter"
	"strings"

	"google.golang.org/genai"
)

func newGeminiTransport(target Resolved, opts transportOptions) (streamOpener, error) {
	cfg := &genai.ClientConfig{
		APIKey:     target.Provider.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.httpClient,
	}
	if target.Provider.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: target.Provider.BaseURL}
	}

	client, err := genai.NewClient(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}

	model := target.Model.ID
	maxTokens := int32(opts.maxTokens)

	return func(ctx context.Context, messages []ChatMessage) (ChunkStream, error) {
		contents, systemInstruction := convertToGeminiMessages(messages)

		config := &genai.GenerateContentConfig{
			MaxOutputTokens: maxTokens,
			ThinkingConfig:  &genai.ThinkingConfig{IncludeThoughts: true},
		}
		if systemInstruction != "" {
			config.SystemInstruction = genai.NewContentFromText(systemInstruction, genai.RoleUser)
		}

		next, stop := iter.Pull2(client.Models.GenerateContentStream(ctx, model, contents, config))
		return &geminiStream{next: next, stop: stop}, nil
	}, nil
}

type geminiStream struct {
	next func() (*genai.GenerateContentResponse, error, bool)
	stop func()
}

func (s *geminiStream) Recv() (Chunk, error) {
	response, err, ok := s.next()
	if !ok {
		return Chunk{}, io.EOF
	}
	if err != nil {
		return Chunk{}, fmt.Errorf("stream error: %w", err)
	}
	return decodeGeminiResponse(response), nil
}

func (s *geminiStream) Close() error {
	s.stop()
	return nil
}

// decodeGeminiResponse maps one streamed response onto a Chunk.
// Thought parts of the first candidate become the reasoning fragment.
func decodeGeminiResponse(response *genai.GenerateContentResponse) Chunk {
	chunk := Chunk{Kind: TransportGemini}
	if response == nil {
		return chunk
	}

	if response.UsageMetadata != nil {
		chunk.Usage = &TokenUsage{
			PromptTokens:     uint32(response.UsageMetadata.PromptTokenCount),
			CompletionTokens: uint32(response.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      uint32(response.UsageMetadata.TotalTokenCount),
		}
	}

	for i, candidate := range response.Candidates {
		var answer, thought strings.Builder
		if candidate != nil && candidate.Content != nil {
			for _, part := range candidate.Content.Parts {
				if part == nil || part.Text == "" {
					continue
				}
				if part.Thought {
					thought.WriteString(part.Text)
				} else {
					answer.WriteString(part.Text)
				}
			}
		}
		if i == 0 {
			chunk.Reasoning = thought.String()
		}
		chunk.Choices = append(chunk.Choices, Choice{Answer: answer.String()})
	}
	return chunk
}

// convertToGeminiMessages converts our ChatMessage to Gemini format.
// Extracts system messages and returns them separately.
func convertToGeminiMessages(messages []ChatMessage) ([]*genai.Content, string) {
	var contents []*genai.Content
	var systemInstruction string

	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			if systemInstruction != "" {
				systemInstruction += "\n\n"
			}
			systemInstruction += msg.Content
		case RoleUser:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		case RoleAssistant:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		}
	}

	return contents, systemInstruction
}

package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type anthropicEvent struct {
	name string
	data string
}

var anthropicThinkingEvents = []anthropicEvent{
	{"message_start", `{"type":"message_start","message":{"id":"msg_1","type":"message","role":"assistant","content":[],"model":"test-model","stop_reason":null,"stop_sequence":null,"usage":{"input_tokens":5,"output_tokens":1}}}`},
	{"content_block_start", `{"type":"content_block_start","index":0,"content_block":{"type":"thinking","thinking":"","signature":""}}`},
	{"content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"thinking_delta","thinking":"the bid "}}`},
	{"content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"thinking_delta","thinking":"looks weak"}}`},
	{"content_block_stop", `{"type":"content_block_stop","index":0}`},
	{"content_block_start", `{"type":"content_block_start","index":1,"content_block":{"type":"text","text":""}}`},
	{"content_block_delta", `{"type":"content_block_delta","index":1,"delta":{"type":"text_delta","text":"Chal"}}`},
	{"content_block_delta", `{"type":"content_block_delta","index":1,"delta":{"type":"text_delta","text":"lenge"}}`},
	{"content_block_stop", `{"type":"content_block_stop","index":1}`},
	{"message_delta", `{"type":"message_delta","delta":{"stop_reason":"end_turn","stop_sequence":null},"usage":{"output_tokens":7}}`},
	{"message_stop", `{"type":"message_stop"}`},
}

func anthropicServer(t *testing.T, events []anthropicEvent) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "anthropic-key", r.Header.Get("X-Api-Key"))
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		flusher := w.(http.Flusher)
		for _, ev := range events {
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.name, ev.data)
			flusher.Flush()
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAnthropicStreamThinkingAndText(t *testing.T) {
	srv := anthropicServer(t, anthropicThinkingEvents)
	reg := testRegistry(t, TransportAnthropic, srv.URL, "anthropic-key")

	obs := &recordingObserver{}
	result, err := Accumulate(context.Background(), openStream(t, reg, []ChatMessage{
		SystemMessage("you are a player"),
		UserMessage("your move"),
	}), obs)
	require.NoError(t, err)
	assert.Equal(t, ChatResult{Answer: "Challenge", Reasoning: "the bid looks weak"}, result)
	assert.Equal(t, []string{"the bid ", "looks weak"}, obs.reasonings)
	assert.Equal(t, 1, obs.usages)
}

func TestAnthropicUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`)
	}))
	defer srv.Close()

	client, err := NewFactory(testRegistry(t, TransportAnthropic, srv.URL, "anthropic-key")).Build("test-model")
	require.NoError(t, err)

	_, err = client.Stream(context.Background(), []ChatMessage{UserMessage("hi")})
	require.Error(t, err)
	assert.Equal(t, KindUpstream, Classify(err))
}

func TestDecodeAnthropicEvent(t *testing.T) {
	var usage TokenUsage
	var chunks []Chunk
	for _, ev := range anthropicThinkingEvents {
		var union anthropic.MessageStreamEventUnion
		require.NoError(t, json.Unmarshal([]byte(ev.data), &union), ev.name)
		if chunk, ok := decodeAnthropicEvent(union, &usage); ok {
			chunks = append(chunks, chunk)
		}
	}

	require.Len(t, chunks, 5)
	assert.Equal(t, Chunk{Kind: TransportAnthropic, Reasoning: "the bid "}, chunks[0])
	assert.Equal(t, Chunk{Kind: TransportAnthropic, Choices: []Choice{{Answer: "Chal"}}}, chunks[2])
	require.NotNil(t, chunks[4].Usage)
	assert.Equal(t, TokenUsage{PromptTokens: 5, CompletionTokens: 7, TotalTokens: 12}, *chunks[4].Usage)
}

func TestConvertToAnthropicMessages(t *testing.T) {
	messages, system := convertToAnthropicMessages([]ChatMessage{
		SystemMessage("rule one"),
		SystemMessage("rule two"),
		UserMessage("hello"),
		AssistantMessage("hi"),
	})
	assert.Equal(t, "rule one\n\nrule two", system)
	require.Len(t, messages, 2)
	assert.Equal(t, anthropic.MessageParamRoleUser, messages[0].Role)
	assert.Equal(t, anthropic.MessageParamRoleAssistant, messages[1].Role)
}

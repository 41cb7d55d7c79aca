package llm

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

// sliceStream replays chunks and then returns err (io.EOF when nil).
type sliceStream struct {
	chunks []Chunk
	err    error
	closed bool
}

func (s *sliceStream) Recv() (Chunk, error) {
	if len(s.chunks) == 0 {
		if s.err != nil {
			return Chunk{}, s.err
		}
		return Chunk{}, io.EOF
	}
	c := s.chunks[0]
	s.chunks = s.chunks[1:]
	return c, nil
}

func (s *sliceStream) Close() error {
	s.closed = true
	return nil
}

func answerChunk(text string) Chunk {
	return Chunk{Choices: []Choice{{Answer: text}}}
}

func reasoningChunk(text string) Chunk {
	return Chunk{Reasoning: text, Choices: []Choice{{}}}
}

func usageChunk() Chunk {
	return Chunk{Usage: &TokenUsage{PromptTokens: 1, CompletionTokens: 2, TotalTokens: 3}}
}

// recordingObserver keeps every fragment it sees.
type recordingObserver struct {
	answers    []string
	reasonings []string
	usages     int
}

func (o *recordingObserver) OnReasoning(f string) { o.reasonings = append(o.reasonings, f) }
func (o *recordingObserver) OnAnswer(f string)    { o.answers = append(o.answers, f) }
func (o *recordingObserver) OnUsage(TokenUsage)   { o.usages++ }

// sseServer serves each frame as an SSE data event. When abort is set the
// connection is dropped after the frames without terminating the body.
func sseServer(t *testing.T, abort bool, frames ...string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		flusher := w.(http.Flusher)
		for _, frame := range frames {
			fmt.Fprintf(w, "data: %s\n\n", frame)
			flusher.Flush()
		}
		if abort {
			panic(http.ErrAbortHandler)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

// testRegistry registers one model on one provider pointed at baseURL.
func testRegistry(t *testing.T, kind TransportKind, baseURL, apiKey string) *Registry {
	t.Helper()
	reg, err := NewRegistry(
		[]Provider{{ID: "test", BaseURL: baseURL, APIKey: apiKey, Kind: kind}},
		[]Model{{ID: "test-model", Provider: "test", Nickname: "Tester"}},
	)
	if err != nil {
		t.Fatalf("failed to build registry: %v", err)
	}
	return reg
}

// fakeFactory returns a factory whose every kind opens stream.
func fakeFactory(t *testing.T, open streamOpener) *Factory {
	t.Helper()
	f := NewFactory(testRegistry(t, TransportOpenAICompatible, "http://unused", "key"))
	fake := func(Resolved, transportOptions) (streamOpener, error) { return open, nil }
	f.transports = map[TransportKind]transportBuilder{
		TransportOpenAICompatible: fake,
	}
	return f
}

func openSlice(stream ChunkStream) streamOpener {
	return func(context.Context, []ChatMessage) (ChunkStream, error) {
		return stream, nil
	}
}

// Stream Normalizer - accumulates decoded chunks into one ChatResult.
//
// Information Hiding:
// - Per-vendor field placement is resolved by the transport decoders
// - Accumulation only sees the uniform Chunk shape
// - Observers see fragments as they are read but cannot change the result

package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// ChunkStream is an ordered, lazily produced sequence of chunks.
// Recv returns io.EOF at natural end of stream.
type ChunkStream interface {
	Recv() (Chunk, error)
	Close() error
}

// Observer receives fragments at the moment they are read.
type Observer interface {
	OnReasoning(fragment string)
	OnAnswer(fragment string)
	OnUsage(usage TokenUsage)
}

// Accumulate drains a stream into a ChatResult, preserving receipt order.
// On a fault it returns the partial buffers together with the error.
func Accumulate(ctx context.Context, stream ChunkStream, obs Observer) (ChatResult, error) {
	var answer, reasoning strings.Builder

	for {
		if err := ctx.Err(); err != nil {
			return ChatResult{Answer: answer.String(), Reasoning: reasoning.String()}, err
		}

		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return ChatResult{Answer: answer.String(), Reasoning: reasoning.String()}, nil
		}
		if err != nil {
			return ChatResult{Answer: answer.String(), Reasoning: reasoning.String()},
				fmt.Errorf("stream recv failed: %w", err)
		}

		if chunk.Reasoning != "" {
			reasoning.WriteString(chunk.Reasoning)
			if obs != nil {
				obs.OnReasoning(chunk.Reasoning)
			}
		}

		// Accounting-only frames carry no choices.
		if len(chunk.Choices) > 0 && chunk.Choices[0].Answer != "" {
			answer.WriteString(chunk.Choices[0].Answer)
			if obs != nil {
				obs.OnAnswer(chunk.Choices[0].Answer)
			}
		}

		if chunk.Usage != nil && obs != nil {
			obs.OnUsage(*chunk.Usage)
		}
	}
}

// EchoObserver writes every fragment to w as it arrives, for live console output.
type EchoObserver struct {
	mu sync.Mutex
	w  io.Writer
}

// NewEchoObserver creates an observer that echoes fragments to w.
func NewEchoObserver(w io.Writer) *EchoObserver {
	return &EchoObserver{w: w}
}

// OnReasoning echoes a reasoning fragment.
func (o *EchoObserver) OnReasoning(fragment string) {
	o.write(fragment)
}

// OnAnswer echoes an answer fragment.
func (o *EchoObserver) OnAnswer(fragment string) {
	o.write(fragment)
}

// OnUsage ignores accounting frames.
func (o *EchoObserver) OnUsage(TokenUsage) {}

func (o *EchoObserver) write(s string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, _ = io.WriteString(o.w, s)
}

// Client - the never-failing entry point for chat requests.
//
// Information Hiding:
// - Factory construction and stream consumption run as one unit of work
// - Every fault, including panics, is logged once and downgraded
// - Callers only ever see a ChatResult

package llm

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Client wraps a Factory and contains all faults.
type Client struct {
	factory     *Factory
	logger      *zap.Logger
	observer    Observer
	metrics     *Metrics
	maxDuration time.Duration
	concurrency int
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger sets the logger for diagnostics.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver forwards every fragment to obs as it is read (debug mode).
func WithObserver(obs Observer) ClientOption {
	return func(c *Client) {
		c.observer = obs
	}
}

// WithMetrics records request outcomes.
func WithMetrics(m *Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithMaxDuration bounds a whole request. Zero means unbounded.
func WithMaxDuration(d time.Duration) ClientOption {
	return func(c *Client) {
		c.maxDuration = d
	}
}

// WithConcurrency caps in-flight requests in ChatAll. Zero means no cap.
func WithConcurrency(n int) ClientOption {
	return func(c *Client) {
		c.concurrency = n
	}
}

// NewClient creates a client over a factory.
func NewClient(factory *Factory, opts ...ClientOption) *Client {
	c := &Client{
		factory: factory,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Registry returns the registry behind the client's factory.
func (c *Client) Registry() *Registry {
	return c.factory.Registry()
}

// Chat sends one streamed request and returns (answer, reasoning).
// It never panics; on any fault it logs the cause and returns an empty ChatResult.
func (c *Client) Chat(ctx context.Context, modelID string, messages []ChatMessage) ChatResult {
	result, err := c.chat(ctx, modelID, messages)
	if err != nil {
		coreErr := wrapError("chat", modelID, err)
		var provider string
		if target, resolveErr := c.factory.Registry().Resolve(modelID); resolveErr == nil {
			provider = string(target.Provider.ID)
		}
		stack := zap.Stack("stack")
		if coreErr.stack != nil {
			stack = zap.ByteString("stack", coreErr.stack)
		}
		c.logger.Error("chat request degraded",
			zap.String("op", coreErr.Op),
			zap.String("model", modelID),
			zap.String("provider", provider),
			zap.String("error_kind", coreErr.Kind.String()),
			zap.Error(coreErr),
			stack,
		)
		c.metrics.observe(modelID, ChatResult{}, coreErr.Kind)
		return ChatResult{}
	}

	c.logger.Debug("chat response",
		zap.String("model", modelID),
		zap.Int("answer_len", len(result.Answer)),
		zap.Int("reasoning_len", len(result.Reasoning)),
	)
	c.metrics.observe(modelID, result, 0)
	return result
}

func (c *Client) chat(ctx context.Context, modelID string, messages []ChatMessage) (result ChatResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = ChatResult{}
			err = &Error{Kind: KindProtocol, Op: "chat", Model: modelID, Err: fmt.Errorf("panic: %v", r), stack: debug.Stack()}
		}
	}()

	if c.maxDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.maxDuration)
		defer cancel()
	}

	client, err := c.factory.Build(modelID)
	if err != nil {
		return ChatResult{}, err
	}

	c.logger.Debug("chat request",
		zap.String("model", modelID),
		zap.String("provider", string(client.ProviderID())),
		zap.String("transport", client.Kind().String()),
		zap.Int("messages", len(messages)),
	)

	stream, err := client.Stream(ctx, messages)
	if err != nil {
		return ChatResult{}, err
	}
	defer stream.Close()

	result, err = Accumulate(ctx, stream, c.observer)
	if err != nil {
		return ChatResult{}, wrapError("stream", modelID, err)
	}
	return result, nil
}

// Request is one independent chat request for ChatAll.
type Request struct {
	Model    string
	Messages []ChatMessage
}

// ChatAll issues independent requests concurrently. Results are in request
// order; a failing request degrades only its own slot.
func (c *Client) ChatAll(ctx context.Context, requests []Request) []ChatResult {
	results := make([]ChatResult, len(requests))

	var g errgroup.Group
	if c.concurrency > 0 {
		g.SetLimit(c.concurrency)
	}
	for i, req := range requests {
		g.Go(func() error {
			results[i] = c.Chat(ctx, req.Model, req.Messages)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

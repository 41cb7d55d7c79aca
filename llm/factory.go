// Transport Client Factory - binds a model to its provider's streaming transport.
//
// Quick Start:
//
//	reg, _ := llm.NewRegistry(providers, llm.DefaultModels())
//	factory := llm.NewFactory(reg, llm.WithMaxTokens(4096))
//	client, err := factory.Build(llm.ModelDeepSeekR1)
//	stream, err := client.Stream(ctx, messages)
//
// The transport for each kind is looked up once in Build. A BoundClient
// keeps that transport for its whole life.

package llm

import (
	"context"
	"fmt"
	"net/http"
)

// streamOpener opens one chunk stream for a request history.
type streamOpener func(ctx context.Context, messages []ChatMessage) (ChunkStream, error)

// transportBuilder constructs the network client for one provider.
type transportBuilder func(target Resolved, opts transportOptions) (streamOpener, error)

// transports is the fixed dispatch table over the closed TransportKind set.
var transports = map[TransportKind]transportBuilder{
	TransportOpenAICompatible: newOpenAITransport,
	TransportArk:              newArkTransport,
	TransportAnthropic:        newAnthropicTransport,
	TransportGemini:           newGeminiTransport,
}

type transportOptions struct {
	httpClient *http.Client
	maxTokens  int
}

// FactoryOption configures a Factory.
type FactoryOption func(*Factory)

// WithHTTPClient sets the HTTP client used by every transport.
func WithHTTPClient(client *http.Client) FactoryOption {
	return func(f *Factory) {
		f.opts.httpClient = client
	}
}

// WithMaxTokens sets the completion token cap for transports that need one.
func WithMaxTokens(tokens int) FactoryOption {
	return func(f *Factory) {
		f.opts.maxTokens = tokens
	}
}

// Factory builds BoundClients from a Registry.
type Factory struct {
	registry   *Registry
	opts       transportOptions
	transports map[TransportKind]transportBuilder
}

// NewFactory creates a factory over an immutable registry.
func NewFactory(registry *Registry, opts ...FactoryOption) *Factory {
	f := &Factory{
		registry: registry,
		opts: transportOptions{
			httpClient: http.DefaultClient,
			maxTokens:  4096,
		},
		transports: transports,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Registry returns the registry the factory resolves against.
func (f *Factory) Registry() *Registry {
	return f.registry
}

// Build resolves a model and constructs its bound network client.
func (f *Factory) Build(modelID string) (*BoundClient, error) {
	target, err := f.registry.Resolve(modelID)
	if err != nil {
		return nil, err
	}

	if target.Provider.APIKey == "" {
		return nil, &Error{
			Kind:  KindCredential,
			Op:    "build",
			Model: modelID,
			Err:   fmt.Errorf("no API key configured for provider %s", target.Provider.ID),
		}
	}

	build, ok := f.transports[target.Provider.Kind]
	if !ok {
		return nil, &Error{
			Kind:  KindConfiguration,
			Op:    "build",
			Model: modelID,
			Err:   fmt.Errorf("no transport for kind %s", target.Provider.Kind),
		}
	}

	open, err := build(target, f.opts)
	if err != nil {
		return nil, &Error{Kind: KindConfiguration, Op: "build", Model: modelID, Err: err}
	}

	return &BoundClient{target: target, open: open}, nil
}

// BoundClient is a network client scoped to one model's provider.
// It is owned by a single request and permanently tied to one transport.
type BoundClient struct {
	target Resolved
	open   streamOpener
}

// ModelID returns the model this client requests.
func (c *BoundClient) ModelID() string {
	return c.target.Model.ID
}

// ProviderID returns the provider this client talks to.
func (c *BoundClient) ProviderID() ProviderID {
	return c.target.Provider.ID
}

// Kind returns the transport kind.
func (c *BoundClient) Kind() TransportKind {
	return c.target.Provider.Kind
}

// Stream opens a chunk stream for the given history.
func (c *BoundClient) Stream(ctx context.Context, messages []ChatMessage) (ChunkStream, error) {
	stream, err := c.open(ctx, messages)
	if err != nil {
		return nil, wrapError("stream", c.target.Model.ID, err)
	}
	return stream, nil
}

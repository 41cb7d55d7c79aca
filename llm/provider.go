// Provider Registry - the static model to provider lookup.
//
// Information Hiding:
// - Endpoint, credential and wire-shape tag per provider
// - Model ownership and display nicknames
// - Validation of the catalog at construction time

package llm

import (
	"fmt"
	"strings"
)

// TransportKind identifies which chunk wire-shape variant a provider uses.
type TransportKind int

const (
	// TransportOpenAICompatible is the shared OpenAI Chat Completions envelope.
	TransportOpenAICompatible TransportKind = iota + 1
	// TransportArk is the Volcengine Ark native envelope.
	TransportArk
	// TransportAnthropic is the Anthropic Messages event stream.
	TransportAnthropic
	// TransportGemini is the Gemini generateContent stream.
	TransportGemini
)

// TransportKinds returns every member of the closed transport set.
func TransportKinds() []TransportKind {
	return []TransportKind{TransportOpenAICompatible, TransportArk, TransportAnthropic, TransportGemini}
}

// String returns the string representation of the transport kind.
func (k TransportKind) String() string {
	switch k {
	case TransportOpenAICompatible:
		return "openai_compatible"
	case TransportArk:
		return "ark"
	case TransportAnthropic:
		return "anthropic"
	case TransportGemini:
		return "gemini"
	default:
		return "unknown"
	}
}

// ParseTransportKind parses a transport kind from string (case-insensitive).
func ParseTransportKind(s string) (TransportKind, error) {
	switch strings.ToLower(s) {
	case "openai_compatible", "openai", "openai-compatible":
		return TransportOpenAICompatible, nil
	case "ark", "volcengine", "huoshan":
		return TransportArk, nil
	case "anthropic", "claude":
		return TransportAnthropic, nil
	case "gemini", "google":
		return TransportGemini, nil
	default:
		return 0, fmt.Errorf("unknown transport kind: %s", s)
	}
}

// ProviderID names a vendor backend.
type ProviderID string

// Provider is a vendor backend exposing a chat endpoint under one credential.
type Provider struct {
	ID      ProviderID
	BaseURL string
	// APIKey may be empty; that only fails when a request is first built.
	APIKey string
	Kind   TransportKind
	// ExtraBody is merged into every request body sent to this provider.
	ExtraBody map[string]any
	// ThinkingBudget enables vendor reasoning output where the API needs opting in.
	ThinkingBudget int64
}

// Model is a chat model served by exactly one provider.
type Model struct {
	ID       string
	Provider ProviderID
	Nickname string
}

// Resolved is the registry entry for one model.
type Resolved struct {
	Model    Model
	Provider Provider
}

// Registry maps model identifiers to providers. It is immutable after
// NewRegistry returns and safe for concurrent use without locking.
type Registry struct {
	providers map[ProviderID]Provider
	models    map[string]Model
	order     []string
}

// NewRegistry validates and freezes a catalog.
func NewRegistry(providers []Provider, models []Model) (*Registry, error) {
	r := &Registry{
		providers: make(map[ProviderID]Provider, len(providers)),
		models:    make(map[string]Model, len(models)),
	}

	for _, p := range providers {
		if p.ID == "" {
			return nil, fmt.Errorf("provider with empty id")
		}
		if _, dup := r.providers[p.ID]; dup {
			return nil, fmt.Errorf("duplicate provider: %s", p.ID)
		}
		if p.Kind.String() == "unknown" {
			return nil, fmt.Errorf("provider %s: unknown transport kind %d", p.ID, p.Kind)
		}
		p.ExtraBody = copyExtraBody(p.ExtraBody)
		r.providers[p.ID] = p
	}

	for _, m := range models {
		if m.ID == "" {
			return nil, fmt.Errorf("model with empty id")
		}
		if _, dup := r.models[m.ID]; dup {
			return nil, fmt.Errorf("duplicate model: %s", m.ID)
		}
		if _, ok := r.providers[m.Provider]; !ok {
			return nil, fmt.Errorf("model %s: unknown provider %s", m.ID, m.Provider)
		}
		r.models[m.ID] = m
		r.order = append(r.order, m.ID)
	}

	return r, nil
}

// Resolve returns the provider entry for a model.
func (r *Registry) Resolve(modelID string) (Resolved, error) {
	m, ok := r.models[modelID]
	if !ok {
		return Resolved{}, &Error{
			Kind:  KindConfiguration,
			Op:    "resolve",
			Model: modelID,
			Err:   fmt.Errorf("unsupported model %q", modelID),
		}
	}
	return Resolved{Model: m, Provider: r.provider(m.Provider)}, nil
}

// Nickname returns the display name of a model, or the id itself when unknown.
func (r *Registry) Nickname(modelID string) string {
	if m, ok := r.models[modelID]; ok && m.Nickname != "" {
		return m.Nickname
	}
	return modelID
}

// Models lists the registered models in catalog order.
func (r *Registry) Models() []Resolved {
	result := make([]Resolved, 0, len(r.order))
	for _, id := range r.order {
		m := r.models[id]
		result = append(result, Resolved{Model: m, Provider: r.provider(m.Provider)})
	}
	return result
}

// provider returns a copy that callers cannot use to mutate the registry.
func (r *Registry) provider(id ProviderID) Provider {
	p := r.providers[id]
	p.ExtraBody = copyExtraBody(p.ExtraBody)
	return p
}

func copyExtraBody(extra map[string]any) map[string]any {
	if len(extra) == 0 {
		return nil
	}
	copied := make(map[string]any, len(extra))
	for k, v := range extra {
		copied[k] = v
	}
	return copied
}

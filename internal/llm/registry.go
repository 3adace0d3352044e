package llm

import (
	"context"
	"sort"
	"sync"
)

// Factory builds a Caller from a configuration with defaults applied.
type Factory func(ctx context.Context, cfg *Config) (Caller, error)

// Registry maps backend names to factories. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[Backend]Factory
}

// NewRegistry returns a registry with every built-in backend registered.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[Backend]Factory)}
	r.Register(BackendOpenAI, newOpenAICaller)
	r.Register(BackendPerplexity, newOpenAICaller)
	r.Register(BackendClaude, newClaudeCaller)
	r.Register(BackendOllama, newOllamaCaller)
	r.Register(BackendHuggingFace, newHuggingFaceCaller)
	r.Register(BackendGemini, newGeminiCaller)
	r.Register(BackendBedrock, newBedrockCaller)
	return r
}

// Register adds or replaces the factory for backend.
func (r *Registry) Register(backend Backend, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[backend] = f
}

// Backends lists registered backend names in sorted order.
func (r *Registry) Backends() []Backend {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Backend, 0, len(r.factories))
	for b := range r.factories {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Create builds the Caller for cfg.Backend. It performs no network calls and
// no retries; an unknown backend yields *UnsupportedBackendError.
func (r *Registry) Create(ctx context.Context, cfg *Config) (Caller, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	r.mu.RLock()
	f, ok := r.factories[cfg.Backend]
	r.mu.RUnlock()

	if !ok {
		return nil, &UnsupportedBackendError{Backend: cfg.Backend, Supported: r.Backends()}
	}
	return f(ctx, cfg.withDefaults())
}

var defaultRegistry = NewRegistry()

// Create builds a Caller from the built-in backends.
func Create(ctx context.Context, cfg *Config) (Caller, error) {
	return defaultRegistry.Create(ctx, cfg)
}

// Backends lists the built-in backends.
func Backends() []Backend {
	return defaultRegistry.Backends()
}

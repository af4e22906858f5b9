package summary

import (
	"fmt"
	"sort"
	"strings"

	"DocketWatch/internal/ports"
)

// ProviderNone disables document summarization; every filing gets the
// unavailable fallback.
const ProviderNone = "none"

// Registry maps provider names to summarization backends.
type Registry struct {
	backends map[string]ports.DocumentSummarizer
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{backends: map[string]ports.DocumentSummarizer{}}
}

// Register adds or replaces a backend under name.
func (r *Registry) Register(name string, backend ports.DocumentSummarizer) {
	if r.backends == nil {
		r.backends = map[string]ports.DocumentSummarizer{}
	}
	r.backends[strings.ToLower(name)] = backend
}

// Resolve returns the backend registered as name. ProviderNone resolves to nil.
func (r *Registry) Resolve(name string) (ports.DocumentSummarizer, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == ProviderNone {
		return nil, nil
	}
	if backend, ok := r.backends[name]; ok {
		return backend, nil
	}
	return nil, fmt.Errorf("summarizer provider %q is not registered (known: %s)", name, strings.Join(r.names(), ", "))
}

func (r *Registry) names() []string {
	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

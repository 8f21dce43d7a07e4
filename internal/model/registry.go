// Package model holds the closed registry of AI models the Gidvion
// backend can route queries to. Each entry maps a model identifier to
// its backend route and records whether the provider requires a
// user-supplied API key.
package model

import (
	"fmt"
	"sort"

	"gidvion/internal/domain"
)

// Provider names the upstream vendor behind a model. It is only used
// client-side for API-key bookkeeping; routing happens by Route.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
	ProviderDeepSeek  Provider = "deepseek"
	ProviderGoogle    Provider = "google"
	ProviderMeta      Provider = "meta"
)

// Entry describes one supported model.
type Entry struct {
	ID       string   `yaml:"id"`
	Provider Provider `yaml:"provider"`
	Route    string   `yaml:"route"` // path segment of POST /query/{route}
}

// RequiresKey reports whether the entry's provider needs a user-supplied
// API key before any query is sent. Anthropic and DeepSeek models are
// bring-your-own-key; the rest are served on backend credentials.
func (e Entry) RequiresKey() bool {
	return e.Provider == ProviderAnthropic || e.Provider == ProviderDeepSeek
}

// Registry resolves model identifiers. The zero value is unusable; use
// NewRegistry, optionally extended with LoadCatalog overlays.
type Registry struct {
	entries map[string]Entry
}

// builtin is the fixed supported set. Adding a model is a change here
// (or a catalog overlay), not a string comparison scattered in callers.
var builtin = []Entry{
	{ID: "gpt-4o", Provider: ProviderOpenAI, Route: "gpt"},
	{ID: "gpt-4o-mini", Provider: ProviderOpenAI, Route: "gpt"},
	{ID: "claude-4.0-sonnet", Provider: ProviderAnthropic, Route: "claude"},
	{ID: "claude-3.5-haiku", Provider: ProviderAnthropic, Route: "claude"},
	{ID: "deepseek-chat", Provider: ProviderDeepSeek, Route: "deepseek"},
	{ID: "deepseek-reasoner", Provider: ProviderDeepSeek, Route: "deepseek"},
	{ID: "gemini-2.0-flash", Provider: ProviderGoogle, Route: "gemini"},
	{ID: "llama-3.3-70b", Provider: ProviderMeta, Route: "llama"},
}

// NewRegistry returns a registry seeded with the built-in model set.
func NewRegistry() *Registry {
	r := &Registry{entries: make(map[string]Entry, len(builtin))}
	for _, e := range builtin {
		r.entries[e.ID] = e
	}
	return r
}

// Lookup resolves a model identifier, failing with
// domain.ErrModelNotSupported for anything outside the registry.
func (r *Registry) Lookup(id string) (Entry, error) {
	e, ok := r.entries[id]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q", domain.ErrModelNotSupported, id)
	}
	return e, nil
}

// Supported reports whether id is in the registry.
func (r *Registry) Supported(id string) bool {
	_, ok := r.entries[id]
	return ok
}

// IDs returns all registered model identifiers, sorted.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// add inserts or overrides an entry. Used by catalog overlays.
func (r *Registry) add(e Entry) {
	r.entries[e.ID] = e
}

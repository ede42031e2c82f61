package funtranslate

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed categories.yaml
var categoriesYAML []byte

// CategoryDescriptor names one fun style and whether its output needs translating back.
type CategoryDescriptor struct {
	Name      string `yaml:"name" json:"name"`
	RoundTrip bool   `yaml:"round_trip" json:"round_trip"`
}

// Registry is a closed, read-only set of categories keyed by lowercased name.
type Registry struct {
	categories map[string]CategoryDescriptor
}

var defaultRegistry = mustParseRegistry(categoriesYAML)

// DefaultRegistry returns the registry compiled into the binary.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// NewRegistry builds a registry from a fixed descriptor list. Duplicate or blank names are rejected.
func NewRegistry(descriptors ...CategoryDescriptor) (*Registry, error) {
	categories := make(map[string]CategoryDescriptor, len(descriptors))
	for _, descriptor := range descriptors {
		name := normalizeCategoryName(descriptor.Name)
		if name == "" {
			return nil, fmt.Errorf("category name is required")
		}
		if _, exists := categories[name]; exists {
			return nil, fmt.Errorf("category %q is defined more than once", name)
		}
		categories[name] = CategoryDescriptor{Name: name, RoundTrip: descriptor.RoundTrip}
	}
	return &Registry{categories: categories}, nil
}

// ParseRegistry builds a registry from a YAML document with a top-level "categories" list.
func ParseRegistry(doc []byte) (*Registry, error) {
	var parsed struct {
		Categories []CategoryDescriptor `yaml:"categories"`
	}
	if err := yaml.Unmarshal(doc, &parsed); err != nil {
		return nil, fmt.Errorf("parse categories: %w", err)
	}
	if len(parsed.Categories) == 0 {
		return nil, fmt.Errorf("no categories defined")
	}
	return NewRegistry(parsed.Categories...)
}

func mustParseRegistry(doc []byte) *Registry {
	registry, err := ParseRegistry(doc)
	if err != nil {
		panic(fmt.Sprintf("funtranslate: embedded categories: %v", err))
	}
	return registry
}

// Resolve looks a category up by name, ignoring case and surrounding whitespace.
func (r *Registry) Resolve(name string) (CategoryDescriptor, bool) {
	if r == nil {
		return CategoryDescriptor{}, false
	}
	descriptor, ok := r.categories[normalizeCategoryName(name)]
	return descriptor, ok
}

func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.categories))
	for name := range r.categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Descriptors returns every category sorted by name.
func (r *Registry) Descriptors() []CategoryDescriptor {
	names := r.Names()
	out := make([]CategoryDescriptor, 0, len(names))
	for _, name := range names {
		out = append(out, r.categories[name])
	}
	return out
}

func normalizeCategoryName(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

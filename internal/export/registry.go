package export

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"wxdl/internal/config"
)

// Factory builds an Exporter for the given export settings.
type Factory func(cfg config.Export) Exporter

var (
	mu       sync.RWMutex
	builtins = map[string]Factory{}
)

// Register adds a format to the set every new Registry starts with.
func Register(format string, f Factory) error {
	key, err := checkFactory(format, f)
	if err != nil {
		return err
	}
	mu.Lock()
	defer mu.Unlock()
	builtins[key] = f
	return nil
}

// MustRegister is Register for use from init().
func MustRegister(format string, f Factory) {
	if err := Register(format, f); err != nil {
		panic(err)
	}
}

// Registry maps format identifiers to exporters.
type Registry struct {
	mu        sync.RWMutex
	cfg       config.Export
	factories map[string]Factory
}

// NewRegistry returns a Registry holding every registered format.
func NewRegistry(cfg config.Export) *Registry {
	mu.RLock()
	defer mu.RUnlock()

	r := &Registry{cfg: cfg, factories: make(map[string]Factory, len(builtins))}
	for k, f := range builtins {
		r.factories[k] = f
	}
	return r
}

// Register adds or replaces a format on this registry.
func (r *Registry) Register(format string, f Factory) error {
	key, err := checkFactory(format, f)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[key] = f
	return nil
}

// Create returns a new exporter for format, matched case-insensitively.
func (r *Registry) Create(format string) (Exporter, error) {
	r.mu.RLock()
	f, ok := r.factories[normalize(format)]
	r.mu.RUnlock()
	if !ok {
		return nil, &UnsupportedFormatError{Format: format}
	}
	return f(r.cfg), nil
}

// Formats lists the supported identifiers in sorted order.
func (r *Registry) Formats() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.factories))
	for k := range r.factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func normalize(format string) string {
	return strings.ToLower(strings.TrimSpace(format))
}

// checkFactory rejects factories that do not produce a usable Exporter.
func checkFactory(format string, f Factory) (string, error) {
	key := normalize(format)
	if key == "" {
		return "", fmt.Errorf("export format must not be empty")
	}
	if f == nil {
		return "", fmt.Errorf("exporter factory for %s is nil", key)
	}
	e := f(config.Export{})
	if e == nil {
		return "", fmt.Errorf("exporter factory for %s returned nil", key)
	}
	if !strings.HasPrefix(e.Extension(), ".") {
		return "", fmt.Errorf("exporter for %s has invalid extension %q", key, e.Extension())
	}
	return key, nil
}

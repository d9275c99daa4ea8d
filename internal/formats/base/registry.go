package base

import (
	"fmt"
	"sort"
	"sync"
)

// Handler describes one file format known to the toolkit. Format
// packages register a Handler at init time.
type Handler interface {
	// Name returns the registry name of the format.
	Name() string
	// Extensions returns the file extensions the format claims.
	Extensions() []string
	// Detect reports whether the file at path is in this format.
	Detect(path string) (*DetectResult, error)
}

var (
	mu       sync.RWMutex
	registry = map[string]Handler{}
)

// Register adds a handler to the registry. Registering the same name
// twice panics; handlers register once from package init.
func Register(h Handler) {
	mu.Lock()
	defer mu.Unlock()
	name := h.Name()
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("format %q already registered", name))
	}
	registry[name] = h
}

// Lookup returns the handler registered under name.
func Lookup(name string) (Handler, bool) {
	mu.RLock()
	defer mu.RUnlock()
	h, ok := registry[name]
	return h, ok
}

// Names returns the registered format names, sorted.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DetectAny runs every registered handler against path and returns the
// first positive result, trying handlers in name order so the outcome
// is deterministic.
func DetectAny(path string) (*DetectResult, error) {
	for _, name := range Names() {
		h, _ := Lookup(name)
		result, err := h.Detect(path)
		if err != nil {
			return nil, err
		}
		if result.Detected {
			return result, nil
		}
	}
	return &DetectResult{
		Detected: false,
		Reason:   "no registered format matched",
	}, nil
}

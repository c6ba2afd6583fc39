package signal

import (
	"fmt"
	"sync"

	"signals-client/internal/model"
)

// Registry manages the per-channel generators. It provides a thread-safe way
// to register and retrieve generators by channel.
type Registry struct {
	generators map[model.Channel]*Generator
	mu         sync.RWMutex
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		generators: make(map[model.Channel]*Generator),
	}
}

// Register adds a generator to the registry. A generator already registered
// for the same channel is replaced.
func (r *Registry) Register(g *Generator) error {
	if g == nil {
		return fmt.Errorf("cannot register nil generator")
	}
	if g.Channel() == "" {
		return fmt.Errorf("generator channel cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.generators[g.Channel()] = g
	return nil
}

// Get retrieves the generator for a channel.
func (r *Registry) Get(channel model.Channel) (*Generator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.generators[channel]
	return g, ok
}

// Channels returns all registered channels.
func (r *Registry) Channels() []model.Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()

	channels := make([]model.Channel, 0, len(r.generators))
	for ch := range r.generators {
		channels = append(channels, ch)
	}
	return channels
}

// Count returns the number of registered generators.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.generators)
}

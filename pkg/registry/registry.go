// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
)

// TaskPlatforms describes the platform pair used for one comparison kind.
// Platform order is significant: the second platform wins full ties.
type TaskPlatforms struct {
	Kind      string   `json:"kind"`
	ItemType  string   `json:"item_type"`
	Platforms []string `json:"platforms"`
}

// PlatformRegistry maps comparison kinds to their platform pairs.
type PlatformRegistry struct {
	entries map[string]TaskPlatforms
}

// Comparison kinds known to the orchestrator.
const (
	KindShopping = "shopping"
	KindFood     = "food"
	KindRide     = "ride"
	KindPharmacy = "pharmacy"
)

// Default returns the built-in registry used when no registry file is
// configured.
func Default() *PlatformRegistry {
	r := &PlatformRegistry{entries: map[string]TaskPlatforms{}}
	for _, tp := range []TaskPlatforms{
		{Kind: KindShopping, ItemType: "product", Platforms: []string{"Amazon", "Flipkart"}},
		{Kind: KindFood, ItemType: "food", Platforms: []string{"Zomato", "Swiggy"}},
		{Kind: KindRide, ItemType: "ride", Platforms: []string{"Uber", "Ola"}},
		{Kind: KindPharmacy, ItemType: "medicine", Platforms: []string{"Apollo 24|7", "PharmEasy"}},
	} {
		r.entries[tp.Kind] = tp
	}
	return r
}

// Load reads a registry file and validates every entry. Entries must name
// exactly two platforms.
func Load(path string) (*PlatformRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read platform registry %s: %w", path, err)
	}

	var entries []TaskPlatforms
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse platform registry %s: %w", path, err)
	}

	r := &PlatformRegistry{entries: map[string]TaskPlatforms{}}
	for _, tp := range entries {
		if tp.Kind == "" {
			return nil, fmt.Errorf("platform registry entry is missing a kind")
		}
		if len(tp.Platforms) != 2 {
			return nil, fmt.Errorf("platform registry kind %q must name exactly two platforms, got %d", tp.Kind, len(tp.Platforms))
		}
		if tp.ItemType == "" {
			tp.ItemType = "item"
		}
		r.entries[tp.Kind] = tp
	}

	return r, nil
}

// Lookup returns the platform pair for a comparison kind.
func (r *PlatformRegistry) Lookup(kind string) (TaskPlatforms, error) {
	tp, ok := r.entries[kind]
	if !ok {
		return TaskPlatforms{}, fmt.Errorf("no platforms registered for kind %q", kind)
	}
	return tp, nil
}

// Kinds returns all registered comparison kinds.
func (r *PlatformRegistry) Kinds() []string {
	kinds := make([]string, 0, len(r.entries))
	for k := range r.entries {
		kinds = append(kinds, k)
	}
	return kinds
}

// Package catalog holds the resource configurations known to the
// application: the built-in back-office resources plus any declared under
// the "resources" configuration key.
package catalog

import (
	"fmt"
	"sort"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/backoffice/pkg/types"
)

// ConfigKey is the configuration key holding extra resource configs.
const ConfigKey = "resources"

// Catalog maps resource keys to normalized configs.
type Catalog struct {
	resources map[string]types.ResourceConfig
}

// New builds a catalog from configs. Every config is validated; a later
// config replaces an earlier one with the same key.
func New(configs ...types.ResourceConfig) (*Catalog, error) {
	c := &Catalog{resources: make(map[string]types.ResourceConfig, len(configs))}
	for _, cfg := range configs {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		c.resources[cfg.Key] = cfg.Normalize()
	}
	return c, nil
}

// Load builds the catalog from the built-ins and the resources declared in
// v, which override built-ins with the same key.
func Load(v *viper.Viper) (*Catalog, error) {
	var extra []types.ResourceConfig
	if v != nil && v.IsSet(ConfigKey) {
		if err := v.UnmarshalKey(ConfigKey, &extra); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", ConfigKey, err)
		}
	}
	return New(append(Builtin(), extra...)...)
}

// Get returns the config of a resource.
func (c *Catalog) Get(key string) (types.ResourceConfig, error) {
	cfg, ok := c.resources[key]
	if !ok {
		return types.ResourceConfig{}, fmt.Errorf("%q: %w", key, types.ErrUnknownResource)
	}
	return cfg, nil
}

// Keys returns the resource keys in alphabetical order.
func (c *Catalog) Keys() []string {
	keys := make([]string, 0, len(c.resources))
	for k := range c.resources {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// All returns every config ordered by key.
func (c *Catalog) All() []types.ResourceConfig {
	out := make([]types.ResourceConfig, 0, len(c.resources))
	for _, k := range c.Keys() {
		out = append(out, c.resources[k])
	}
	return out
}

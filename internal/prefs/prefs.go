// Package prefs persists per-resource user preferences (visible columns,
// sort, page size, filters) under versioned keys of the form
// {resourceKey}.{settingName}.v{version}.
package prefs

import (
	"encoding/json"
	"fmt"
	"log/slog"
)

// Store is a persisted key/value store. Values are JSON documents.
// Implementations must be safe for concurrent use; last writer wins.
type Store interface {
	// Get returns the stored bytes and whether the key exists.
	Get(key string) ([]byte, bool, error)

	// Put stores value under key, replacing any previous value.
	Put(key string, value []byte) error
}

// Setting names one preference and its schema version. Bumping Version
// orphans old values instead of misreading them.
type Setting struct {
	Name    string
	Version int
}

// Standard list settings.
var (
	VisibleColumns = Setting{Name: "visibleCols", Version: 1}
	SortState      = Setting{Name: "sort", Version: 1}
	PageSize       = Setting{Name: "pageSize", Version: 1}
	Filters        = Setting{Name: "filters", Version: 1}
)

// Key builds the storage key for a resource setting, e.g.
// "parents.visibleCols.v1".
func Key(resource string, s Setting) string {
	return fmt.Sprintf("%s.%s.v%d", resource, s.Name, s.Version)
}

// Read returns the stored value of a setting. A missing, unreadable, corrupt
// or invalid entry yields def. valid may be nil.
func Read[T any](store Store, resource string, s Setting, def T, valid func(T) bool) T {
	if store == nil {
		return def
	}
	key := Key(resource, s)
	raw, ok, err := store.Get(key)
	if err != nil {
		slog.Warn("read preference", "key", key, "error", err)
		return def
	}
	if !ok {
		return def
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		slog.Warn("corrupt preference, using default", "key", key, "error", err)
		return def
	}
	if valid != nil && !valid(v) {
		slog.Warn("invalid preference, using default", "key", key)
		return def
	}
	return v
}

// Write persists a setting. It is fire-and-forget: failures are logged and
// never returned. String slices are deduplicated before persisting.
func Write(store Store, resource string, s Setting, value any) {
	if store == nil {
		return
	}
	if cols, ok := value.([]string); ok {
		value = Dedupe(cols)
	}
	key := Key(resource, s)
	raw, err := json.Marshal(value)
	if err != nil {
		slog.Warn("encode preference", "key", key, "error", err)
		return
	}
	if err := store.Put(key, raw); err != nil {
		slog.Warn("write preference", "key", key, "error", err)
	}
}

// Dedupe removes repeated and empty strings, keeping first occurrences in
// order.
func Dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

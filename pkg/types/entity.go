package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Entity is an open-ended record. Consumers declare which fields exist
// through FieldSpecs; the engine never assumes a fixed schema.
type Entity map[string]any

// Lookup returns the value at a dotted path (e.g. "address.city").
func (e Entity) Lookup(path string) (any, bool) {
	if e == nil || path == "" {
		return nil, false
	}
	var cur any = map[string]any(e)
	for _, part := range strings.Split(path, ".") {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Set stores v at a dotted path, creating intermediate maps as needed.
// A non-map value in the middle of the path is replaced.
func (e Entity) Set(path string, v any) {
	parts := strings.Split(path, ".")
	cur := map[string]any(e)
	for _, part := range parts[:len(parts)-1] {
		next, ok := asMap(cur[part])
		if !ok {
			next = make(map[string]any)
			cur[part] = next
		}
		cur = next
	}
	cur[parts[len(parts)-1]] = v
}

// ID returns the stringified value of the id field, or "" if absent.
func (e Entity) ID(idField string) string {
	v, ok := e.Lookup(idField)
	if !ok || v == nil {
		return ""
	}
	return Stringify(v)
}

// Clone returns a deep copy of nested maps and slices.
func (e Entity) Clone() Entity {
	if e == nil {
		return nil
	}
	return Entity(cloneMap(e))
}

// NestedPatch builds the single-field payload for a dotted path:
// NestedPatch("address.city", "Kinshasa") == {"address": {"city": "Kinshasa"}}.
func NestedPatch(path string, v any) map[string]any {
	out := Entity{}
	out.Set(path, v)
	return out
}

// AsEntity converts a decoded JSON value to an Entity.
func AsEntity(v any) (Entity, bool) {
	m, ok := asMap(v)
	if !ok {
		return nil, false
	}
	return Entity(m), true
}

// AsEntities converts a decoded JSON array to entities, skipping non-object
// elements. A nil or non-array value yields an empty, non-nil slice.
func AsEntities(v any) []Entity {
	out := []Entity{}
	switch items := v.(type) {
	case []any:
		for _, item := range items {
			if e, ok := AsEntity(item); ok {
				out = append(out, e)
			}
		}
	case []Entity:
		out = append(out, items...)
	case []map[string]any:
		for _, item := range items {
			out = append(out, Entity(item))
		}
	}
	return out
}

// Stringify renders a cell value for searching and display. Nil renders as
// "", objects and arrays as JSON.
func Stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case map[string]any, Entity, []any, []string, []Entity:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	default:
		return fmt.Sprint(x)
	}
}

// IsComposite reports whether v is an object or array value.
func IsComposite(v any) bool {
	switch v.(type) {
	case map[string]any, Entity, []any, []string, []Entity:
		return true
	}
	return false
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Entity:
		return m, true
	}
	return nil, false
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return cloneMap(x)
	case Entity:
		return Entity(cloneMap(x))
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		return append([]string(nil), x...)
	default:
		return v
	}
}

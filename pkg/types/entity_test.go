package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityLookupAndSet(t *testing.T) {
	e := Entity{"name": "Amani", "address": map[string]any{"city": "Goma"}}

	v, ok := e.Lookup("address.city")
	require.True(t, ok)
	assert.Equal(t, "Goma", v)

	_, ok = e.Lookup("address.street")
	assert.False(t, ok)
	_, ok = e.Lookup("name.first")
	assert.False(t, ok, "cannot descend into a string")

	e.Set("address.street", "Av. du Lac")
	e.Set("contact.phone", "+243")
	v, _ = e.Lookup("address.street")
	assert.Equal(t, "Av. du Lac", v)
	v, _ = e.Lookup("contact.phone")
	assert.Equal(t, "+243", v)
}

func TestEntityCloneIsDeep(t *testing.T) {
	e := Entity{"tags": []any{"a"}, "address": map[string]any{"city": "Goma"}}
	cp := e.Clone()
	cp.Set("address.city", "Bukavu")
	cp["tags"].([]any)[0] = "b"

	v, _ := e.Lookup("address.city")
	assert.Equal(t, "Goma", v)
	assert.Equal(t, "a", e["tags"].([]any)[0])
}

func TestEntityID(t *testing.T) {
	assert.Equal(t, "10", Entity{"id": float64(10)}.ID("id"))
	assert.Equal(t, "p-1", Entity{"uuid": "p-1"}.ID("uuid"))
	assert.Equal(t, "", Entity{"id": nil}.ID("id"))
	assert.Equal(t, "", Entity{}.ID("id"))
}

func TestStringify(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"x", "x"},
		{float64(2.5), "2.5"},
		{float64(10), "10"},
		{7, "7"},
		{json.Number("42"), "42"},
		{true, "true"},
		{map[string]any{"a": float64(1)}, `{"a":1}`},
		{[]any{"x", "y"}, `["x","y"]`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Stringify(tt.in))
	}
}

func TestNestedPatch(t *testing.T) {
	got := NestedPatch("address.city", "Kinshasa")
	assert.Equal(t, map[string]any{"address": map[string]any{"city": "Kinshasa"}}, got)
	assert.Equal(t, map[string]any{"name": "x"}, NestedPatch("name", "x"))
}

func TestAsEntities(t *testing.T) {
	got := AsEntities([]any{map[string]any{"id": "1"}, "junk", map[string]any{"id": "2"}})
	require.Len(t, got, 2)
	assert.Equal(t, "2", got[1].ID("id"))

	assert.NotNil(t, AsEntities(nil))
	assert.Empty(t, AsEntities(map[string]any{"id": "1"}))
}

package prefs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct{}

func (failingStore) Get(string) ([]byte, bool, error) { return nil, false, errors.New("disk gone") }
func (failingStore) Put(string, []byte) error         { return errors.New("disk gone") }

func TestKey(t *testing.T) {
	assert.Equal(t, "parents.visibleCols.v1", Key("parents", VisibleColumns))
	assert.Equal(t, "invoices.sort.v3", Key("invoices", Setting{Name: "sort", Version: 3}))
}

func TestReadWriteRoundTrip(t *testing.T) {
	store := NewMemory()
	Write(store, "parents", VisibleColumns, []string{"name", "email", "name", "", "status"})

	got := Read(store, "parents", VisibleColumns, []string{"id"}, nil)
	assert.Equal(t, []string{"name", "email", "status"}, got)

	raw, ok, err := store.Get("parents.visibleCols.v1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `["name","email","status"]`, string(raw))
}

func TestReadFallsBackToDefault(t *testing.T) {
	def := []string{"id", "name"}

	tests := []struct {
		name  string
		store Store
		setup func(s Store)
		valid func([]string) bool
	}{
		{name: "nil store", store: nil},
		{name: "missing key", store: NewMemory()},
		{name: "store error", store: failingStore{}},
		{
			name:  "corrupt JSON",
			store: NewMemory(),
			setup: func(s Store) { _ = s.Put("parents.visibleCols.v1", []byte("{not json")) },
		},
		{
			name:  "wrong shape",
			store: NewMemory(),
			setup: func(s Store) { _ = s.Put("parents.visibleCols.v1", []byte(`{"a":1}`)) },
		},
		{
			name:  "fails validation",
			store: NewMemory(),
			setup: func(s Store) { _ = s.Put("parents.visibleCols.v1", []byte(`[]`)) },
			valid: func(v []string) bool { return len(v) > 0 },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setup != nil {
				tt.setup(tt.store)
			}
			got := Read(tt.store, "parents", VisibleColumns, def, tt.valid)
			assert.Equal(t, def, got)
		})
	}
}

func TestWriteSwallowsErrors(t *testing.T) {
	assert.NotPanics(t, func() {
		Write(failingStore{}, "parents", PageSize, 25)
		Write(NewMemory(), "parents", PageSize, func() {})
		Write(nil, "parents", PageSize, 25)
	})
}

func TestVersionedKeysAreIndependent(t *testing.T) {
	store := NewMemory()
	Write(store, "parents", PageSize, 50)
	v2 := Setting{Name: PageSize.Name, Version: 2}

	assert.Equal(t, 50, Read(store, "parents", PageSize, 10, nil))
	assert.Equal(t, 10, Read(store, "parents", v2, 10, nil))
	assert.Equal(t, 10, Read(store, "students", PageSize, 10, nil))
}

func TestDedupe(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, Dedupe([]string{"a", "b", "a", ""}))
	assert.Equal(t, []string{}, Dedupe(nil))
}

package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/backoffice/pkg/types"
)

func attach(t *testing.T) *Backend {
	t.Helper()
	b := NewBackend()
	require.NoError(t, b.Attach(t.TempDir()))
	t.Cleanup(func() { _ = b.Detach() })
	return b
}

func TestBackend_Attach(t *testing.T) {
	dir := t.TempDir()
	b := NewBackend()
	require.NoError(t, b.Attach(dir))

	_, err := os.Stat(filepath.Join(dir, DBFile))
	require.NoError(t, err)
	assert.Equal(t, dir, b.DataDir())
	assert.ErrorIs(t, b.Attach(dir), ErrAlreadyAttached)
	require.NoError(t, b.Ping(context.Background()))

	require.NoError(t, b.Detach())
	require.NoError(t, b.Detach())
	_, err = b.Collection("students")
	assert.ErrorIs(t, err, ErrDetached)
}

func TestBackend_DataSurvivesReattach(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	b := NewBackend()
	require.NoError(t, b.Attach(dir))
	coll, err := b.Collection("subjects")
	require.NoError(t, err)
	_, err = coll.Set(ctx, "maths", types.Entity{"name": "Maths"})
	require.NoError(t, err)
	require.NoError(t, b.Detach())

	require.NoError(t, b.Attach(dir))
	defer b.Detach()
	coll, err = b.Collection("subjects")
	require.NoError(t, err)
	doc, err := coll.Get(ctx, "maths")
	require.NoError(t, err)
	assert.Equal(t, "Maths", doc["name"])
}

func TestCollection_CRUD(t *testing.T) {
	ctx := context.Background()
	coll, err := attach(t).Collection("parents")
	require.NoError(t, err)

	created, err := coll.Set(ctx, "", types.Entity{"name": "Amani", "address": map[string]any{"city": "Arusha", "zip": "23"}})
	require.NoError(t, err)
	id := created.ID(IDField)
	require.NotEmpty(t, id)

	merged, err := coll.Merge(ctx, id, types.Entity{"address": map[string]any{"city": "Moshi"}, "id": "hijack"})
	require.NoError(t, err)
	assert.Equal(t, id, merged.ID(IDField))
	city, _ := merged.Lookup("address.city")
	zip, _ := merged.Lookup("address.zip")
	assert.Equal(t, "Moshi", city)
	assert.Equal(t, "23", zip)

	replaced, err := coll.Set(ctx, id, types.Entity{"name": "Amani B"})
	require.NoError(t, err)
	_, hasAddress := replaced["address"]
	assert.False(t, hasAddress)

	got, err := coll.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Amani B", got["name"])

	require.NoError(t, coll.Delete(ctx, id))
	_, err = coll.Get(ctx, id)
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.ErrorIs(t, coll.Delete(ctx, id), types.ErrNotFound)
	_, err = coll.Merge(ctx, id, types.Entity{})
	assert.ErrorIs(t, err, types.ErrNotFound)
	_, err = coll.Get(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestCollection_FetchFilters(t *testing.T) {
	ctx := context.Background()
	b := attach(t)
	coll, err := b.Collection("students")
	require.NoError(t, err)
	for _, s := range []types.Entity{
		{"id": "a", "status": "active", "age": 9},
		{"id": "b", "status": "Suspended", "age": 10},
		{"id": "c", "status": "active", "age": 10},
	} {
		_, err := coll.Set(ctx, "", s)
		require.NoError(t, err)
	}

	all, err := coll.Fetch(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	active, err := coll.Fetch(ctx, map[string]string{"status": "ACTIVE"})
	require.NoError(t, err)
	assert.Len(t, active, 2)

	tens, err := coll.Fetch(ctx, map[string]string{"status": "active", "age": "10"})
	require.NoError(t, err)
	require.Len(t, tens, 1)
	assert.Equal(t, "c", tens[0].ID(IDField))

	empty, err := b.Collection("nothing")
	require.NoError(t, err)
	none, err := empty.Fetch(ctx, nil)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	names, err := b.Collections(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"students"}, names)
}

func TestCollection_DeleteRemovesSubCollections(t *testing.T) {
	ctx := context.Background()
	b := attach(t)
	students, err := b.Collection("students")
	require.NoError(t, err)
	_, err = students.Set(ctx, "s1", types.Entity{})
	require.NoError(t, err)
	_, err = students.Set(ctx, "s10", types.Entity{})
	require.NoError(t, err)
	for _, name := range []string{"students/s1/documents", "students/s10/documents"} {
		docs, err := b.Collection(name)
		require.NoError(t, err)
		_, err = docs.Set(ctx, "d1", types.Entity{})
		require.NoError(t, err)
	}

	require.NoError(t, students.Delete(ctx, "s1"))
	names, err := b.Collections(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"students", "students/s10/documents"}, names)
}

func TestCollection_DeleteIsAtomic(t *testing.T) {
	ctx := context.Background()
	b := attach(t)
	parents, err := b.Collection("parents")
	require.NoError(t, err)
	_, err = parents.Set(ctx, "p1", types.Entity{"name": "Amani"})
	require.NoError(t, err)
	tasks, err := b.Collection("parents/p1/tasks")
	require.NoError(t, err)
	_, err = tasks.Set(ctx, "t1", types.Entity{"title": "Call"})
	require.NoError(t, err)

	_, err = b.db.ExecContext(ctx, `CREATE TRIGGER keep_tasks BEFORE DELETE ON documents
		WHEN old.collection = 'parents/p1/tasks'
		BEGIN SELECT RAISE(ABORT, 'tasks are locked'); END`)
	require.NoError(t, err)

	require.Error(t, parents.Delete(ctx, "p1"))
	_, err = parents.Get(ctx, "p1")
	require.NoError(t, err, "parent must survive a failed delete")
	_, err = tasks.Get(ctx, "t1")
	require.NoError(t, err)

	_, err = b.db.ExecContext(ctx, `DROP TRIGGER keep_tasks`)
	require.NoError(t, err)
	require.NoError(t, parents.Delete(ctx, "p1"))
	_, err = tasks.Get(ctx, "t1")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestPreferenceStore(t *testing.T) {
	store := attach(t).Preferences()

	_, ok, err := store.Get("parents.visibleCols.v1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Put("parents.visibleCols.v1", []byte(`["id"]`)))
	require.NoError(t, store.Put("parents.visibleCols.v1", []byte(`["id","name"]`)))
	raw, ok, err := store.Get("parents.visibleCols.v1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `["id","name"]`, string(raw))
}

func TestPreferenceStoreDetached(t *testing.T) {
	store := NewBackend().Preferences()
	_, _, err := store.Get("k")
	assert.ErrorIs(t, err, ErrDetached)
	assert.ErrorIs(t, store.Put("k", nil), ErrDetached)
}

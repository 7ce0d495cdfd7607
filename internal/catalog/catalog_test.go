package catalog

import (
	"bytes"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/backoffice/pkg/types"
)

func TestBuiltinIsValid(t *testing.T) {
	c, err := New(Builtin()...)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"blog-posts", "coupons", "invoices", "parents", "products", "students", "subjects", "subscriptions",
	}, c.Keys())

	for _, cfg := range c.All() {
		t.Run(cfg.Key, func(t *testing.T) {
			assert.Equal(t, "id", cfg.IDField)
			id, ok := cfg.Field("id")
			require.True(t, ok)
			assert.False(t, id.Editable)
			assert.True(t, cfg.Capabilities().List)
		})
	}
}

func TestBuiltinDegradedResources(t *testing.T) {
	c, err := New(Builtin()...)
	require.NoError(t, err)

	coupons, err := c.Get("coupons")
	require.NoError(t, err)
	assert.False(t, coupons.Capabilities().Get)

	posts, err := c.Get("blog-posts")
	require.NoError(t, err)
	assert.False(t, posts.Capabilities().Remove)

	students, err := c.Get("students")
	require.NoError(t, err)
	comm, ok := students.Tab(types.TabCommunication)
	require.True(t, ok)
	assert.False(t, comm.Enabled)
}

func TestGetUnknown(t *testing.T) {
	c, err := New()
	require.NoError(t, err)
	_, err = c.Get("nope")
	assert.ErrorIs(t, err, types.ErrUnknownResource)
}

func TestLoadFromConfig(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(bytes.NewBufferString(`
resources:
  - key: teachers
    title: Teachers
    operations:
      list: {path: /teachers}
      get: {path: "/teachers/{id}"}
      update: {path: "/teachers/{id}", method: PUT}
    fields:
      - {name: id}
      - {name: name, editable: true}
      - {name: subject, type: select, options: [maths, art], editable: true}
    tabs:
      - {kind: communication, enabled: true, list_path: "/teachers/{id}/comments"}
    fallbacks:
      list: {on_failure: cached}
  - key: subjects
    operations:
      list: {path: /v2/subjects}
    fields:
      - {name: id}
`)))

	c, err := Load(v)
	require.NoError(t, err)

	teachers, err := c.Get("teachers")
	require.NoError(t, err)
	assert.Equal(t, "PUT", teachers.Operations.Update.Method)
	assert.Equal(t, "GET", teachers.Operations.List.Method)
	assert.Equal(t, types.FallbackCached, teachers.Fallbacks.List.OnFailure)
	assert.Equal(t, types.FallbackEmpty, teachers.Fallbacks.List.OnMissing)
	subject, ok := teachers.Field("subject")
	require.True(t, ok)
	assert.Equal(t, types.FieldSelect, subject.Type)
	tab, ok := teachers.Tab(types.TabCommunication)
	require.True(t, ok)
	assert.Equal(t, "/teachers/{id}/comments", tab.ListPath)
	assert.Equal(t, "/teachers", teachers.RouteBase)

	subjects, err := c.Get("subjects")
	require.NoError(t, err)
	assert.Equal(t, "/v2/subjects", subjects.Operations.List.Path)
	assert.Nil(t, subjects.Operations.Get)
}

func TestLoadRejectsInvalid(t *testing.T) {
	v := viper.New()
	v.Set(ConfigKey, []map[string]any{{"key": "broken", "fields": []any{}}})
	_, err := Load(v)
	assert.ErrorIs(t, err, types.ErrInvalidConfig)
}

func TestLoadWithoutResources(t *testing.T) {
	c, err := Load(viper.New())
	require.NoError(t, err)
	assert.Len(t, c.Keys(), len(Builtin()))

	c, err = Load(nil)
	require.NoError(t, err)
	assert.Len(t, c.Keys(), len(Builtin()))
}

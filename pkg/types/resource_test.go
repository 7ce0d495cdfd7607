package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parentsConfig() ResourceConfig {
	return ResourceConfig{
		Key: "parents",
		Operations: Operations{
			Get:    &Endpoint{Path: "/parents/{id}"},
			List:   &Endpoint{Path: "/parents"},
			Update: &Endpoint{Method: "put", Path: "/parents/{id}"},
		},
		Fields: []FieldSpec{
			{Name: "id", Label: "ID", Editable: true},
			{Name: "name", Label: "Name", Editable: true},
			{Name: "created_at", Label: "Created", Editable: true},
			{Name: "school.updatedAt", Editable: true},
			{Name: "student_id", Editable: true},
			{Name: "format", Editable: true},
		},
		Tabs: []TabConfig{{Kind: TabTasks, Enabled: true}},
	}
}

func TestNormalizeDefaults(t *testing.T) {
	cfg := parentsConfig().Normalize()

	assert.Equal(t, "id", cfg.IDField)
	assert.Equal(t, "status", cfg.StatusField)
	assert.Equal(t, "/parents", cfg.RouteBase)
	assert.Equal(t, "GET", cfg.Operations.Get.Method)
	assert.Equal(t, "PUT", cfg.Operations.Update.Method)
	assert.Equal(t, "Tasks", cfg.Tabs[0].Title)
	assert.Equal(t, FallbackEmpty, cfg.Fallbacks.List.OnMissing)
	assert.Equal(t, FallbackPlaceholder, cfg.Fallbacks.Get.OnMissing)
	assert.Equal(t, FallbackCached, cfg.Fallbacks.Get.OnFailure)
}

func TestNormalizeForcesIdentifiersReadOnly(t *testing.T) {
	cfg := parentsConfig().Normalize()

	editable := map[string]bool{}
	for _, f := range cfg.Fields {
		editable[f.Name] = f.Editable
		assert.Equal(t, FieldText, f.Type)
	}
	assert.False(t, editable["id"])
	assert.False(t, editable["created_at"])
	assert.False(t, editable["school.updatedAt"])
	assert.False(t, editable["student_id"])
	assert.True(t, editable["name"])
	assert.True(t, editable["format"], "lowercase 'at' suffix is not a timestamp")
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	in := parentsConfig()
	_ = in.Normalize()
	assert.True(t, in.Fields[0].Editable)
	assert.Equal(t, "", in.Operations.Get.Method)
}

func TestCapabilities(t *testing.T) {
	caps := parentsConfig().Capabilities()
	assert.True(t, caps.Get)
	assert.True(t, caps.List)
	assert.True(t, caps.Update)
	assert.False(t, caps.Remove)
	assert.False(t, caps.UpdateStatus)
}

func TestValidate(t *testing.T) {
	require.NoError(t, parentsConfig().Validate())

	tests := []struct {
		name   string
		mutate func(c *ResourceConfig)
	}{
		{"missing key", func(c *ResourceConfig) { c.Key = "" }},
		{"no fields", func(c *ResourceConfig) { c.Fields = nil }},
		{"relative endpoint", func(c *ResourceConfig) { c.Operations.Remove = &Endpoint{Path: "parents/{id}"} }},
		{"bad field type", func(c *ResourceConfig) { c.Fields[1].Type = "blob" }},
		{"select without options", func(c *ResourceConfig) { c.Fields[1].Type = FieldSelect }},
		{"duplicate field", func(c *ResourceConfig) { c.Fields = append(c.Fields, FieldSpec{Name: "name"}) }},
		{"unknown tab", func(c *ResourceConfig) { c.Tabs = append(c.Tabs, TabConfig{Kind: "grades"}) }},
		{"duplicate tab", func(c *ResourceConfig) { c.Tabs = append(c.Tabs, TabConfig{Kind: TabTasks}) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := parentsConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
		})
	}
}

func TestRoutesAndPlaceholder(t *testing.T) {
	cfg := parentsConfig().Normalize()
	assert.Equal(t, "/parents/42", cfg.RowRoute("42"))
	assert.Equal(t, "/parents/42/edit", cfg.EditRoute("42"))
	assert.Equal(t, Entity{"id": "42", "name": "-", "status": "active"}, cfg.Placeholder("42"))
	assert.Equal(t, "/parents/a%2Fb", cfg.Operations.Get.Build("a/b"))
}

func TestSegmentMatches(t *testing.T) {
	s := Segment{Name: "active", Field: "status", Values: []string{"active"}}
	assert.True(t, s.Matches(Entity{"status": "Active"}))
	assert.False(t, s.Matches(Entity{"status": "blocked"}))
	assert.False(t, s.Matches(Entity{}))
}

func TestFailureMatchesSentinels(t *testing.T) {
	nf := &Failure{Kind: FailureNotFound, Method: "GET", Path: "/parents/1", Status: 404}
	assert.True(t, IsNotFound(nf))
	assert.False(t, IsMissing(nf))

	wrapped := errors.Join(errors.New("load"), &Failure{Kind: FailureMissing, Op: OpGet})
	assert.True(t, IsMissing(wrapped))

	f, ok := FailureOf(nf)
	require.True(t, ok)
	assert.Equal(t, 404, f.Status)
	assert.Contains(t, nf.Error(), "GET /parents/1 (404): not_found")
}

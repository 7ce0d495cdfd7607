package render

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/backoffice/internal/engine/detail"
	"github.com/mesh-intelligence/backoffice/internal/engine/list"
	"github.com/mesh-intelligence/backoffice/pkg/types"
)

func fields() []types.FieldSpec {
	return []types.FieldSpec{
		{Name: "id", Label: "ID", Sortable: true},
		{Name: "name", Label: "Name", Sortable: true},
		{Name: "profile.city", Label: "City"},
	}
}

func TestCell(t *testing.T) {
	row := types.Entity{"name": "Amani", "empty": "", "nil": nil, "profile": map[string]any{"city": "Nairobi"}, "n": float64(3)}
	assert.Equal(t, "Amani", Cell(row, "name"))
	assert.Equal(t, "Nairobi", Cell(row, "profile.city"))
	assert.Equal(t, "3", Cell(row, "n"))
	assert.Equal(t, Missing, Cell(row, "empty"))
	assert.Equal(t, Missing, Cell(row, "nil"))
	assert.Equal(t, Missing, Cell(row, "absent"))
}

func TestHeadersMarkOnlyExplicitSort(t *testing.T) {
	visible := []string{"id", "name"}

	assert.Equal(t, []string{"ID", "Name"}, Headers(fields(), visible, list.SortState{Key: "name"}))
	assert.Equal(t, []string{"ID", "Name ▲"}, Headers(fields(), visible, list.SortState{Key: "name", Active: true}))
	assert.Equal(t, []string{"ID ▼", "Name"}, Headers(fields(), visible, list.SortState{Key: "id", Desc: true, Active: true}))
	assert.Equal(t, []string{"ghost"}, Headers(fields(), []string{"ghost"}, list.SortState{}))
	assert.Equal(t, []string{"City"}, Headers(fields(), []string{"profile.city"}, list.SortState{Key: "profile.city", Active: true}))
}

func TestTableAligns(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf)
	require.NoError(t, r.Table([]string{"ID", "Name"}, [][]string{{"1", "Amani"}, {"22", "Bo"}}, -1))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "ID  Name", lines[0])
	assert.Equal(t, "1   Amani", lines[1])
	assert.Equal(t, "22  Bo", lines[2])
}

func TestTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(&buf).Table([]string{"ID"}, nil, -1))
	assert.Equal(t, "no results\n", buf.String())
}

func TestEntityListsConfiguredThenExtraFields(t *testing.T) {
	var buf bytes.Buffer
	cfg := types.ResourceConfig{Key: "parents", Fields: fields()}
	ent := types.Entity{"id": "p1", "name": "Amani", "zeta": 1, "alpha": true}
	require.NoError(t, New(&buf).Entity(cfg, ent))

	out := buf.String()
	assert.Regexp(t, `(?m)^ID\s+p1$`, out)
	assert.Regexp(t, `(?m)^City\s+-$`, out)
	assert.Less(t, strings.Index(out, "Name"), strings.Index(out, "alpha"))
	assert.Less(t, strings.Index(out, "alpha"), strings.Index(out, "zeta"))
}

func TestTabStates(t *testing.T) {
	tests := []struct {
		name  string
		state detail.TabState
		want  []string
	}{
		{
			name:  "not configured",
			state: detail.TabState{Kind: types.TabCommunication, Status: detail.TabNotConfigured},
			want:  []string{"communication", "not configured for this resource"},
		},
		{
			name:  "failed",
			state: detail.TabState{Kind: types.TabTasks, Title: "Tasks", Status: detail.TabFailed, Err: errors.New("boom")},
			want:  []string{"Tasks", "could not load: boom"},
		},
		{
			name: "loaded",
			state: detail.TabState{Kind: types.TabTasks, Title: "Tasks", Status: detail.TabLoaded, Items: []types.Entity{
				{"id": "t1", "title": "Call", "done": false},
			}},
			want: []string{"Tasks", "id  done   title", "t1  false  Call"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, New(&buf).Tab(tt.state, nil))
			for _, w := range tt.want {
				assert.Contains(t, buf.String(), w)
			}
		})
	}
}

func TestTabConfiguredColumns(t *testing.T) {
	var buf bytes.Buffer
	state := detail.TabState{Kind: types.TabTasks, Title: "Tasks", Status: detail.TabLoaded, Items: []types.Entity{{"id": "t1", "title": "Call"}}}
	require.NoError(t, New(&buf).Tab(state, []string{"title"}))
	assert.Equal(t, "Tasks\ntitle\nCall\n", buf.String())
}

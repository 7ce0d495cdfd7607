package detail

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/backoffice/internal/engine/enginetest"
	"github.com/mesh-intelligence/backoffice/internal/notify"
	"github.com/mesh-intelligence/backoffice/pkg/types"
)

func loaded(t *testing.T, gw *enginetest.Gateway, opts ...Option) *Engine {
	t.Helper()
	e := newEngine(t, studentsConfig(), gw, opts...)
	e.Open("s1", nil)
	_, err := e.Load(context.Background())
	require.NoError(t, err)
	return e
}

func TestCancelKeepsValue(t *testing.T) {
	gw := serving(student())
	e := loaded(t, gw)

	s, err := e.BeginEdit("name")
	require.NoError(t, err)
	assert.Equal(t, EditEditing, s.Status)
	assert.Equal(t, "Neema", s.Pending)
	assert.NotEqual(t, uuid.Nil, s.ID)
	assert.Equal(t, uuid.Version(7), s.ID.Version())

	require.NoError(t, e.SetPending("Something else entirely"))
	e.Cancel()

	assert.Equal(t, EditViewing, e.EditStatus())
	assert.Equal(t, "Neema", e.Entity()["name"])
	assert.Zero(t, gw.Count(types.OpUpdate))
	_, ok := e.Session()
	assert.False(t, ok)
}

func TestCommitNestedField(t *testing.T) {
	gw := serving(student())
	e := loaded(t, gw)

	require.NoError(t, e.Update(context.Background(), "address.city", "Moshi"))
	assert.Equal(t, EditViewing, e.EditStatus())
	city, _ := e.Entity().Lookup("address.city")
	assert.Equal(t, "Moshi", city)

	var updates []enginetest.Call
	for _, c := range gw.Calls() {
		if c.Op == types.OpUpdate {
			updates = append(updates, c)
		}
	}
	require.Len(t, updates, 1)
	assert.Equal(t, "s1", updates[0].ID)
	assert.Equal(t, map[string]any{"address": map[string]any{"city": "Moshi"}}, updates[0].Payload)
}

func TestCommitFailureRevertsAndNotifies(t *testing.T) {
	rec := &notify.Recorder{}
	gw := &enginetest.Gateway{Handler: func(_ context.Context, c enginetest.Call) (any, error) {
		if c.Op == types.OpUpdate {
			return nil, enginetest.ServerError(types.OpUpdate)
		}
		return map[string]any(student()), nil
	}}
	e := loaded(t, gw, WithNotifier(rec))

	_, err := e.BeginEdit("name")
	require.NoError(t, err)
	require.NoError(t, e.SetPending("Zawadi"))
	require.Error(t, e.Commit(context.Background()))

	assert.Equal(t, EditViewing, e.EditStatus())
	assert.Error(t, e.LastEditError())
	assert.Equal(t, "Neema", e.Entity()["name"])
	assert.Equal(t, 1, rec.Count(types.NoticeError))
}

func TestValidationStaysEditing(t *testing.T) {
	tests := []struct {
		field string
		value any
	}{
		{"age", "nine"},
		{"birthday", "31/12/2015"},
		{"grade", "P7"},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			gw := serving(student())
			e := loaded(t, gw)

			_, err := e.BeginEdit(tt.field)
			require.NoError(t, err)
			require.NoError(t, e.SetPending(tt.value))

			err = e.Commit(context.Background())
			var verr *types.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Equal(t, EditEditing, e.EditStatus())
			assert.Zero(t, gw.Count(types.OpUpdate))
		})
	}
}

func TestCommitCoercesNumbers(t *testing.T) {
	gw := serving(student())
	e := loaded(t, gw)
	require.NoError(t, e.Update(context.Background(), "age", " 10 "))
	assert.Equal(t, float64(10), e.Entity()["age"])
	require.NoError(t, e.Update(context.Background(), "birthday", "2016-02-29"))
}

func TestOneFieldAtATime(t *testing.T) {
	e := loaded(t, serving(student()))

	_, err := e.BeginEdit("name")
	require.NoError(t, err)
	_, err = e.BeginEdit("age")
	assert.ErrorIs(t, err, types.ErrEditInProgress)

	again, err := e.BeginEdit("name")
	require.NoError(t, err)
	assert.Equal(t, "name", again.Field)
}

func TestBeginEditRejects(t *testing.T) {
	e := loaded(t, serving(student()))

	_, err := e.BeginEdit("id")
	assert.ErrorIs(t, err, types.ErrNotEditable)
	_, err = e.BeginEdit("created_at")
	assert.ErrorIs(t, err, types.ErrNotEditable)
	_, err = e.BeginEdit("nope")
	assert.ErrorIs(t, err, types.ErrUnknownField)
	assert.ErrorIs(t, e.Commit(context.Background()), types.ErrNoEditSession)
	assert.ErrorIs(t, e.SetPending("x"), types.ErrNoEditSession)
	assert.False(t, e.CanEdit("id"))
	assert.True(t, e.CanEdit("name"))
}

func TestBeginEditWithoutUpdateOperation(t *testing.T) {
	cfg := studentsConfig()
	cfg.Operations.Update = nil
	e := newEngine(t, cfg, serving(student()))
	e.Open("s1", nil)
	_, err := e.Load(context.Background())
	require.NoError(t, err)

	_, err = e.BeginEdit("name")
	assert.ErrorIs(t, err, types.ErrUnsupported)
}

func TestCancelDuringSaveDiscardsOutcome(t *testing.T) {
	release := make(chan struct{})
	gw := &enginetest.Gateway{Handler: func(_ context.Context, c enginetest.Call) (any, error) {
		if c.Op == types.OpUpdate {
			<-release
			return nil, nil
		}
		return map[string]any(student()), nil
	}}
	e := loaded(t, gw)
	_, err := e.BeginEdit("name")
	require.NoError(t, err)
	require.NoError(t, e.SetPending("Late"))

	done := make(chan error)
	go func() { done <- e.Commit(context.Background()) }()
	require.Eventually(t, func() bool { return e.EditStatus() == EditSaving }, timeout, tick)
	assert.ErrorIs(t, e.SetPending("x"), types.ErrSaveInProgress)
	assert.ErrorIs(t, e.Commit(context.Background()), types.ErrSaveInProgress)

	e.Cancel()
	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, "Neema", e.Entity()["name"])
	assert.Equal(t, EditViewing, e.EditStatus())
}

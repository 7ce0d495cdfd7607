package detail

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/mesh-intelligence/backoffice/pkg/types"
)

// EditStatus is the state of the inline-edit state machine.
type EditStatus string

// Edit states. Error is transient: a failed save reports it through
// LastEditError and returns to Viewing.
const (
	EditViewing EditStatus = "viewing"
	EditEditing EditStatus = "editing"
	EditSaving  EditStatus = "saving"
	EditError   EditStatus = "error"
)

// EditSession exists while one field is being edited.
type EditSession struct {
	ID       uuid.UUID
	Field    string
	Original any
	Pending  any
	Status   EditStatus
}

var validate = validator.New()

// EditStatus returns the current state of the edit state machine.
func (e *Engine) EditStatus() EditStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.edit == nil {
		return EditViewing
	}
	return e.edit.Status
}

// Session returns a copy of the active edit session.
func (e *Engine) Session() (EditSession, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.edit == nil {
		return EditSession{}, false
	}
	return *e.edit, true
}

// LastEditError returns the error of the most recent failed save, cleared
// by the next BeginEdit.
func (e *Engine) LastEditError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastEditErr
}

// CanEdit reports whether field can be edited inline.
func (e *Engine) CanEdit(field string) bool {
	f, ok := e.cfg.Field(field)
	return ok && f.Editable && e.caps.Update
}

// BeginEdit moves field from Viewing to Editing, capturing its current value
// as the pending value. Only one field may be edited at a time; beginning
// the field already being edited returns its session unchanged.
func (e *Engine) BeginEdit(field string) (EditSession, error) {
	f, ok := e.cfg.Field(field)
	if !ok {
		return EditSession{}, fmt.Errorf("%q: %w", field, types.ErrUnknownField)
	}
	if !f.Editable {
		return EditSession{}, fmt.Errorf("%q: %w", field, types.ErrNotEditable)
	}
	if !e.caps.Update {
		return EditSession{}, fmt.Errorf("%q: %w", field, types.ErrUnsupported)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.entity == nil {
		return EditSession{}, types.ErrNoEntity
	}
	if e.edit != nil {
		if e.edit.Field == field && e.edit.Status == EditEditing {
			return *e.edit, nil
		}
		if e.edit.Status == EditSaving {
			return EditSession{}, types.ErrSaveInProgress
		}
		return EditSession{}, fmt.Errorf("%q: %w", e.edit.Field, types.ErrEditInProgress)
	}
	cur, _ := e.entity.Lookup(field)
	id, err := uuid.NewV7()
	if err != nil {
		return EditSession{}, fmt.Errorf("generating session id: %w", err)
	}
	e.edit = &EditSession{
		ID:       id,
		Field:    field,
		Original: cur,
		Pending:  cur,
		Status:   EditEditing,
	}
	e.lastEditErr = nil
	return *e.edit, nil
}

// SetPending replaces the pending value of the active session.
func (e *Engine) SetPending(v any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch {
	case e.edit == nil:
		return types.ErrNoEditSession
	case e.edit.Status == EditSaving:
		return types.ErrSaveInProgress
	}
	e.edit.Pending = v
	return nil
}

// Cancel discards the session without calling the gateway. The entity keeps
// its value. Cancelling during a save discards the save's outcome.
func (e *Engine) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.edit = nil
}

// Commit validates the pending value and sends it as a single-field update.
// A validation failure returns a *types.ValidationError and stays in
// Editing. On success the entity's field takes the new value; on failure an
// error notice is emitted and the entity is left untouched. Either way the
// session ends.
func (e *Engine) Commit(ctx context.Context) error {
	e.mu.Lock()
	switch {
	case e.edit == nil:
		e.mu.Unlock()
		return types.ErrNoEditSession
	case e.edit.Status == EditSaving:
		e.mu.Unlock()
		return types.ErrSaveInProgress
	}
	f, _ := e.cfg.Field(e.edit.Field)
	value, err := coerce(f, e.edit.Pending)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	s := e.edit
	s.Status = EditSaving
	s.Pending = value
	id, field := e.id, s.Field
	e.mu.Unlock()

	_, err = e.gw.Call(ctx, types.OpUpdate, id, types.NestedPatch(field, value), nil)

	e.mu.Lock()
	if e.edit != s || e.id != id {
		e.mu.Unlock()
		e.logger.Debug("dropping cancelled save", "field", field)
		return nil
	}
	e.edit = nil
	if err != nil {
		s.Status = EditError
		e.lastEditErr = err
		e.mu.Unlock()
		e.logger.Warn("field update failed", "id", id, "field", field, "error", err)
		e.notifier.Notify(types.Notice{
			Level:    types.NoticeError,
			Resource: e.cfg.Key,
			Message:  "could not save " + f.Title(),
			Err:      err,
		})
		return err
	}
	e.entity.Set(field, value)
	e.mu.Unlock()
	return nil
}

// Update is BeginEdit, SetPending and Commit in one call.
func (e *Engine) Update(ctx context.Context, field string, v any) error {
	if _, err := e.BeginEdit(field); err != nil {
		return err
	}
	if err := e.SetPending(v); err != nil {
		return err
	}
	err := e.Commit(ctx)
	var verr *types.ValidationError
	if err != nil && errors.As(err, &verr) {
		e.Cancel()
	}
	return err
}

// coerce validates a pending value against its field type and converts
// string input to the field's native representation.
func coerce(f types.FieldSpec, v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return v, nil
	}
	s = strings.TrimSpace(s)
	switch f.Type {
	case types.FieldNumber:
		if s == "" {
			return nil, nil
		}
		if err := validate.Var(s, "numeric"); err != nil {
			return nil, &types.ValidationError{Field: f.Name, Message: "must be a number"}
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, &types.ValidationError{Field: f.Name, Message: "must be a number"}
		}
		return n, nil
	case types.FieldDate:
		if s == "" {
			return nil, nil
		}
		if validate.Var(s, "datetime=2006-01-02") != nil && validate.Var(s, "datetime=2006-01-02T15:04:05Z07:00") != nil {
			return nil, &types.ValidationError{Field: f.Name, Message: "must be a date (YYYY-MM-DD)"}
		}
		return s, nil
	case types.FieldSelect:
		if len(f.Options) > 0 && !slices.Contains(f.Options, s) {
			return nil, &types.ValidationError{Field: f.Name, Message: "must be one of " + strings.Join(f.Options, ", ")}
		}
		return s, nil
	}
	return v, nil
}

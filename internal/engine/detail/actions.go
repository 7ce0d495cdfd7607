package detail

import (
	"context"

	"github.com/mesh-intelligence/backoffice/pkg/types"
)

// Standard status values used by the convenience transitions.
const (
	StatusActive    = "active"
	StatusSuspended = "suspended"
	StatusBlocked   = "blocked"
)

// UpdateStatus sends a status transition and reloads the entity on success.
// On failure the entity is left unchanged and an error notice is emitted.
// Without an update-status operation it does nothing.
func (e *Engine) UpdateStatus(ctx context.Context, status string) error {
	if !e.caps.UpdateStatus {
		return nil
	}
	id := e.ID()
	if id == "" {
		return types.ErrNoEntity
	}
	payload := types.NestedPatch(e.cfg.StatusField, status)
	if _, err := e.gw.Call(ctx, types.OpUpdateStatus, id, payload, nil); err != nil {
		e.logger.Warn("status update failed", "id", id, "status", status, "error", err)
		e.notifier.Notify(types.Notice{
			Level:    types.NoticeError,
			Resource: e.cfg.Key,
			Message:  "could not change status to " + status,
			Err:      err,
		})
		return err
	}
	e.notifier.Notify(types.Notice{Level: types.NoticeInfo, Resource: e.cfg.Key, Message: "status changed to " + status})
	_, err := e.Load(ctx)
	return err
}

// Activate sets the status to active.
func (e *Engine) Activate(ctx context.Context) error { return e.UpdateStatus(ctx, StatusActive) }

// Suspend sets the status to suspended.
func (e *Engine) Suspend(ctx context.Context) error { return e.UpdateStatus(ctx, StatusSuspended) }

// Block sets the status to blocked.
func (e *Engine) Block(ctx context.Context) error { return e.UpdateStatus(ctx, StatusBlocked) }

// RequestDelete is the first step of a delete. It does nothing when the
// resource has no remove operation.
func (e *Engine) RequestDelete() error {
	if !e.caps.Remove {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.id == "" {
		return types.ErrNoEntity
	}
	e.deletePending = true
	return nil
}

// DeletePending reports whether a delete awaits confirmation.
func (e *Engine) DeletePending() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.deletePending
}

// CancelDelete withdraws a requested delete.
func (e *Engine) CancelDelete() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.deletePending = false
}

// ConfirmDelete removes the entity after RequestDelete. On success it
// navigates to the resource's route base; on failure it stays in place and
// emits an error notice.
func (e *Engine) ConfirmDelete(ctx context.Context) error {
	e.mu.Lock()
	if !e.deletePending {
		e.mu.Unlock()
		return types.ErrConfirmationRequired
	}
	e.deletePending = false
	id := e.id
	e.mu.Unlock()

	if _, err := e.gw.Call(ctx, types.OpRemove, id, nil, nil); err != nil {
		e.logger.Warn("delete failed", "id", id, "error", err)
		e.notifier.Notify(types.Notice{
			Level:    types.NoticeError,
			Resource: e.cfg.Key,
			Message:  "could not delete " + id,
			Err:      err,
		})
		return err
	}
	e.notifier.Notify(types.Notice{Level: types.NoticeInfo, Resource: e.cfg.Key, Message: "deleted " + id})
	e.navigator.Navigate(e.cfg.RouteBase)
	return nil
}

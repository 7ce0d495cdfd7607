package list

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/mesh-intelligence/backoffice/pkg/types"
)

// BulkResult reports the per-id outcome of a bulk action. Applied changes
// are not rolled back when some ids fail.
type BulkResult struct {
	Succeeded []string
	Failed    map[string]error
}

// Err joins the per-id failures, or returns nil when every id succeeded.
func (r BulkResult) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	ids := make([]string, 0, len(r.Failed))
	for id := range r.Failed {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	errs := make([]error, 0, len(ids))
	for _, id := range ids {
		errs = append(errs, fmt.Errorf("%s: %w", id, r.Failed[id]))
	}
	return errors.Join(errs...)
}

func newBulkResult() BulkResult {
	return BulkResult{Succeeded: []string{}, Failed: map[string]error{}}
}

// BulkUpdateStatus sets status on every id, one gateway call each. Rows
// that were updated get the new status in the raw view. Without an
// update-status operation it does nothing.
func (e *Engine) BulkUpdateStatus(ctx context.Context, ids []string, status string) BulkResult {
	res := newBulkResult()
	if !e.caps.UpdateStatus || len(ids) == 0 {
		return res
	}
	payload := types.NestedPatch(e.cfg.StatusField, status)
	for _, id := range ids {
		if _, err := e.gw.Call(ctx, types.OpUpdateStatus, id, payload, nil); err != nil {
			res.Failed[id] = err
			continue
		}
		res.Succeeded = append(res.Succeeded, id)
	}

	e.mu.Lock()
	for _, row := range e.raw {
		if slices.Contains(res.Succeeded, row.ID(e.cfg.IDField)) {
			row.Set(e.cfg.StatusField, status)
		}
	}
	e.mu.Unlock()
	e.report("update status", res)
	e.changed()
	return res
}

// BulkDelete removes every id, one gateway call each. Only ids whose call
// succeeded leave the raw view. Without a remove operation it does nothing.
func (e *Engine) BulkDelete(ctx context.Context, ids []string) BulkResult {
	res := newBulkResult()
	if !e.caps.Remove || len(ids) == 0 {
		return res
	}
	for _, id := range ids {
		if _, err := e.gw.Call(ctx, types.OpRemove, id, nil, nil); err != nil {
			res.Failed[id] = err
			continue
		}
		res.Succeeded = append(res.Succeeded, id)
	}
	e.removeRows(res.Succeeded)
	e.report("delete", res)
	return res
}

// Delete removes a single row. It is a no-op when the resource has no
// remove operation.
func (e *Engine) Delete(ctx context.Context, id string) error {
	if !e.caps.Remove {
		return nil
	}
	if _, err := e.gw.Call(ctx, types.OpRemove, id, nil, nil); err != nil {
		e.notifier.Notify(types.Notice{
			Level:    types.NoticeError,
			Resource: e.cfg.Key,
			Message:  "could not delete " + id,
			Err:      err,
		})
		return err
	}
	e.removeRows([]string{id})
	return nil
}

func (e *Engine) removeRows(ids []string) {
	if len(ids) == 0 {
		return
	}
	e.mu.Lock()
	e.raw = slices.DeleteFunc(e.raw, func(row types.Entity) bool {
		return slices.Contains(ids, row.ID(e.cfg.IDField))
	})
	e.mu.Unlock()
	e.changed()
}

// report emits at most one notice per bulk action.
func (e *Engine) report(action string, res BulkResult) {
	if len(res.Failed) == 0 {
		return
	}
	err := res.Err()
	e.logger.Warn("bulk action partially failed", "action", action,
		"succeeded", len(res.Succeeded), "failed", len(res.Failed), "error", err)
	e.notifier.Notify(types.Notice{
		Level:    types.NoticeError,
		Resource: e.cfg.Key,
		Message:  fmt.Sprintf("%s failed for %d of %d items", action, len(res.Failed), len(res.Failed)+len(res.Succeeded)),
		Err:      err,
	})
}

package detail

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/backoffice/pkg/types"
)

// itemIDField identifies sub-resource items.
const itemIDField = "id"

// mutableTabs accept CreateItem, UpdateItem and DeleteItem.
var mutableTabs = []types.TabKind{types.TabTasks, types.TabDocuments, types.TabCommunication}

func now() string { return time.Now().UTC().Format(time.RFC3339) }

func (e *Engine) mutableTab(kind types.TabKind) (types.TabConfig, string, error) {
	if !slices.Contains(mutableTabs, kind) {
		return types.TabConfig{}, "", fmt.Errorf("%s: %w", kind, types.ErrUnsupported)
	}
	cfg, ok := e.tabConfig(kind)
	if !ok {
		return types.TabConfig{}, "", fmt.Errorf("%s: %w", kind, types.ErrTabDisabled)
	}
	id := e.ID()
	if id == "" {
		return types.TabConfig{}, "", types.ErrNoEntity
	}
	return cfg, id, nil
}

// CreateItem adds an item to a tab. Without a create path the item only
// lives in local state; otherwise it is sent first and the server's
// response, or the local object when the response is empty, is appended.
func (e *Engine) CreateItem(ctx context.Context, kind types.TabKind, item types.Entity) (types.Entity, error) {
	cfg, id, err := e.mutableTab(kind)
	if err != nil {
		return nil, err
	}
	local := item.Clone()
	if local == nil {
		local = types.Entity{}
	}
	if _, ok := local[itemIDField]; !ok {
		itemID, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("generating item id: %w", err)
		}
		local[itemIDField] = itemID.String()
	}
	if _, ok := local["created_at"]; !ok {
		local["created_at"] = now()
	}

	result := local
	if cfg.CreatePath != "" {
		out, err := e.gw.Do(ctx, http.MethodPost, types.ExpandPath(cfg.CreatePath, id, ""), nil, item)
		if err != nil {
			e.actionFailed("could not add to "+cfg.Title, err)
			return nil, err
		}
		if remote, ok := types.AsEntity(out); ok && len(remote) > 0 {
			result = remote
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.id != id {
		return result.Clone(), nil
	}
	t := e.tabLocked(cfg)
	t.items = append(t.items, result.Clone())
	if cfg.CreatePath == "" {
		t.local = append(t.local, result.Clone())
	}
	return result.Clone(), nil
}

// UpdateItem merges patch into an item. Local-only without an update path;
// otherwise remote first.
func (e *Engine) UpdateItem(ctx context.Context, kind types.TabKind, itemID string, patch types.Entity) (types.Entity, error) {
	cfg, id, err := e.mutableTab(kind)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	current, _ := e.findItemLocked(kind, itemID)
	e.mu.Unlock()

	merged := types.Entity{itemIDField: itemID}
	if current != nil {
		merged = current.Clone()
	}
	for k, v := range patch {
		merged.Set(k, v)
	}
	merged["updated_at"] = now()

	result := merged
	if cfg.UpdatePath != "" {
		out, err := e.gw.Do(ctx, http.MethodPatch, types.ExpandPath(cfg.UpdatePath, id, itemID), nil, patch)
		if err != nil {
			e.actionFailed("could not update "+cfg.Title, err)
			return nil, err
		}
		if remote, ok := types.AsEntity(out); ok && len(remote) > 0 {
			result = remote
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.id != id {
		return result.Clone(), nil
	}
	t := e.tabLocked(cfg)
	if _, i := e.findItemLocked(kind, itemID); i >= 0 {
		t.items[i] = result.Clone()
	} else {
		t.items = append(t.items, result.Clone())
	}
	if i := indexOf(t.local, itemID); i >= 0 {
		t.local[i] = result.Clone()
	}
	return result.Clone(), nil
}

// DeleteItem removes an item. Local-only without a delete path; otherwise
// remote first.
func (e *Engine) DeleteItem(ctx context.Context, kind types.TabKind, itemID string) error {
	cfg, id, err := e.mutableTab(kind)
	if err != nil {
		return err
	}
	if cfg.DeletePath != "" {
		if _, err := e.gw.Do(ctx, http.MethodDelete, types.ExpandPath(cfg.DeletePath, id, itemID), nil, nil); err != nil {
			e.actionFailed("could not remove from "+cfg.Title, err)
			return err
		}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.id != id {
		return nil
	}
	if t, ok := e.tabs[kind]; ok {
		match := func(it types.Entity) bool { return it.ID(itemIDField) == itemID }
		t.items = slices.DeleteFunc(t.items, match)
		t.local = slices.DeleteFunc(t.local, match)
	}
	return nil
}

// AddTask creates an open task.
func (e *Engine) AddTask(ctx context.Context, title string) (types.Entity, error) {
	return e.CreateItem(ctx, types.TabTasks, types.Entity{"title": title, "done": false})
}

// CompleteTask marks a task done.
func (e *Engine) CompleteTask(ctx context.Context, taskID string) (types.Entity, error) {
	return e.UpdateItem(ctx, types.TabTasks, taskID, types.Entity{"done": true})
}

// RemoveTask deletes a task.
func (e *Engine) RemoveTask(ctx context.Context, taskID string) error {
	return e.DeleteItem(ctx, types.TabTasks, taskID)
}

// AddComment posts a general comment on the communication tab.
func (e *Engine) AddComment(ctx context.Context, text string) (types.Entity, error) {
	return e.CreateItem(ctx, types.TabCommunication, types.Entity{"text": text})
}

// AddDocumentComment appends a comment to a document's comments list and
// saves the list through UpdateItem. A remote documents tab is loaded first
// so the saved list keeps the existing comments.
func (e *Engine) AddDocumentComment(ctx context.Context, docID, text string) (types.Entity, error) {
	cfg, _, err := e.mutableTab(types.TabDocuments)
	if err != nil {
		return nil, err
	}
	if cfg.ListPath != "" {
		if err := e.ensureTab(ctx, cfg); err != nil {
			return nil, err
		}
	}
	commentID, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generating comment id: %w", err)
	}
	e.mu.Lock()
	doc, _ := e.findItemLocked(types.TabDocuments, docID)
	e.mu.Unlock()
	if doc == nil && cfg.ListPath != "" {
		return nil, fmt.Errorf("document %s: %w", docID, types.ErrNotFound)
	}

	var comments []any
	if doc != nil {
		if existing, ok := doc["comments"].([]any); ok {
			comments = append(comments, existing...)
		}
	}
	comments = append(comments, map[string]any{
		"id":         commentID.String(),
		"text":       text,
		"created_at": now(),
	})
	return e.UpdateItem(ctx, types.TabDocuments, docID, types.Entity{"comments": comments})
}

func indexOf(items []types.Entity, itemID string) int {
	return slices.IndexFunc(items, func(it types.Entity) bool { return it.ID(itemIDField) == itemID })
}

// findItemLocked returns the item and its index, or (nil, -1).
func (e *Engine) findItemLocked(kind types.TabKind, itemID string) (types.Entity, int) {
	t, ok := e.tabs[kind]
	if !ok {
		return nil, -1
	}
	i := indexOf(t.items, itemID)
	if i < 0 {
		return nil, -1
	}
	return t.items[i], i
}

func (e *Engine) actionFailed(msg string, err error) {
	e.logger.Warn(msg, "error", err)
	e.notifier.Notify(types.Notice{Level: types.NoticeError, Resource: e.cfg.Key, Message: msg, Err: err})
}

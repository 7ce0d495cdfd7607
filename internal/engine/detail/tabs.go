package detail

import (
	"context"
	"fmt"
	"net/http"
	"slices"

	"github.com/mesh-intelligence/backoffice/pkg/types"
)

// TabStatus is the load state of one tab.
type TabStatus string

// Tab states.
const (
	TabNotConfigured TabStatus = "not_configured"
	TabIdle          TabStatus = "idle"
	TabLoading       TabStatus = "loading"
	TabLoaded        TabStatus = "loaded"
	TabFailed        TabStatus = "failed"
)

// TabState is a snapshot of one tab. Items is nil for the information tab,
// which renders the root entity.
type TabState struct {
	Kind   types.TabKind
	Title  string
	Status TabStatus
	Items  []types.Entity
	Err    error
}

type tabState struct {
	cfg    types.TabConfig
	status TabStatus
	items  []types.Entity
	err    error
	gen    uint64
	// local holds items created without a create path. They survive
	// fetches of the tab's list.
	local []types.Entity
}

func (t *tabState) snapshot() TabState {
	var items []types.Entity
	if t.cfg.Kind != types.TabInformation {
		items = make([]types.Entity, len(t.items))
		for i, it := range t.items {
			items[i] = it.Clone()
		}
	}
	return TabState{Kind: t.cfg.Kind, Title: t.cfg.Title, Status: t.status, Items: items, Err: t.err}
}

// tabConfig returns the config of an enabled tab. The information tab is
// enabled unless the resource disables it explicitly.
func (e *Engine) tabConfig(kind types.TabKind) (types.TabConfig, bool) {
	t, ok := e.cfg.Tab(kind)
	if kind == types.TabInformation && !ok {
		return types.TabConfig{Kind: types.TabInformation, Enabled: true, Title: "Information"}, true
	}
	if !ok || !t.Enabled {
		return types.TabConfig{}, false
	}
	return t, true
}

// Tabs lists the enabled tabs in navigation order. Disabled tabs never
// appear.
func (e *Engine) Tabs() []types.TabConfig {
	var out []types.TabConfig
	for _, kind := range types.TabKinds {
		if t, ok := e.tabConfig(kind); ok {
			out = append(out, t)
		}
	}
	return out
}

// Tab returns a snapshot of one tab. A disabled or undeclared tab reports
// TabNotConfigured.
func (e *Engine) Tab(kind types.TabKind) TabState {
	cfg, ok := e.tabConfig(kind)
	if !ok {
		return TabState{Kind: kind, Status: TabNotConfigured}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if t, ok := e.tabs[kind]; ok {
		return t.snapshot()
	}
	return TabState{Kind: kind, Title: cfg.Title, Status: TabIdle}
}

// ActiveTab returns the most recently activated tab.
func (e *Engine) ActiveTab() types.TabKind {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activeTab
}

// ActivateTab switches to a tab and loads it on first activation for the
// open entity. Tabs load independently: a failing tab does not affect the
// root entity or other tabs. A disabled tab is never fetched and reports
// TabNotConfigured.
func (e *Engine) ActivateTab(ctx context.Context, kind types.TabKind) (TabState, error) {
	return e.loadTab(ctx, kind, false)
}

// ReloadTab refetches a tab even if it is already loaded.
func (e *Engine) ReloadTab(ctx context.Context, kind types.TabKind) (TabState, error) {
	return e.loadTab(ctx, kind, true)
}

func (e *Engine) loadTab(ctx context.Context, kind types.TabKind, force bool) (TabState, error) {
	cfg, ok := e.tabConfig(kind)
	if !ok {
		return TabState{Kind: kind, Status: TabNotConfigured}, nil
	}
	e.mu.Lock()
	if e.id == "" {
		e.mu.Unlock()
		return TabState{}, types.ErrNoEntity
	}
	e.activeTab = kind
	e.mu.Unlock()
	return e.syncTab(ctx, cfg, force)
}

// ensureTab loads a tab without activating it and fails unless its items
// reflect the server list.
func (e *Engine) ensureTab(ctx context.Context, cfg types.TabConfig) error {
	snap, err := e.syncTab(ctx, cfg, false)
	if err != nil {
		return err
	}
	switch snap.Status {
	case TabLoaded:
		return nil
	case TabFailed:
		return fmt.Errorf("loading %s: %w", cfg.Kind, snap.Err)
	default:
		return fmt.Errorf("%s: %w", cfg.Kind, types.ErrTabNotLoaded)
	}
}

func (e *Engine) syncTab(ctx context.Context, cfg types.TabConfig, force bool) (TabState, error) {
	kind := cfg.Kind
	e.mu.Lock()
	if e.id == "" {
		e.mu.Unlock()
		return TabState{}, types.ErrNoEntity
	}
	t := e.tabLocked(cfg)
	if kind == types.TabInformation || cfg.ListPath == "" {
		// Served from the root entity or from local state only.
		t.status = TabLoaded
		snap := t.snapshot()
		e.mu.Unlock()
		return snap, nil
	}
	if t.status == TabLoaded && !force {
		snap := t.snapshot()
		e.mu.Unlock()
		return snap, nil
	}
	t.gen++
	gen, id := t.gen, e.id
	t.status = TabLoading
	t.err = nil
	e.mu.Unlock()

	out, err := e.gw.Do(ctx, http.MethodGet, types.ExpandPath(cfg.ListPath, id, ""), nil, nil)

	e.mu.Lock()
	cur, ok := e.tabs[kind]
	if !ok || cur != t || e.id != id || t.gen != gen {
		e.mu.Unlock()
		e.logger.Debug("dropping stale tab response", "tab", kind, "id", id)
		return e.Tab(kind), nil
	}
	if err != nil {
		t.status = TabFailed
		t.err = err
		snap := t.snapshot()
		e.mu.Unlock()
		e.logger.Warn("tab load failed", "tab", kind, "id", id, "error", err)
		e.notifier.Notify(types.Notice{
			Level:    types.NoticeWarning,
			Resource: e.cfg.Key,
			Message:  fmt.Sprintf("could not load %s", cfg.Title),
			Err:      err,
		})
		return snap, nil
	}
	t.items = withLocal(types.AsEntities(out), t.local)
	t.status = TabLoaded
	snap := t.snapshot()
	e.mu.Unlock()
	return snap, nil
}

// withLocal appends the local items the fetched list does not already hold.
func withLocal(fetched, local []types.Entity) []types.Entity {
	for _, it := range local {
		id := it.ID(itemIDField)
		if !slices.ContainsFunc(fetched, func(f types.Entity) bool { return f.ID(itemIDField) == id }) {
			fetched = append(fetched, it.Clone())
		}
	}
	return fetched
}

// tabLocked returns the state of a tab, creating it on first use.
func (e *Engine) tabLocked(cfg types.TabConfig) *tabState {
	t, ok := e.tabs[cfg.Kind]
	if !ok {
		t = &tabState{cfg: cfg, status: TabIdle, items: []types.Entity{}}
		e.tabs[cfg.Kind] = t
	}
	return t
}

// Package list implements the generic collection view engine. It is driven
// entirely by a types.ResourceConfig and owns loading, the derived view
// pipeline (segment, status filter, search, sort), column visibility,
// CSV export, and bulk actions.
package list

import (
	"context"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/mesh-intelligence/backoffice/internal/prefs"
	"github.com/mesh-intelligence/backoffice/pkg/types"
)

// DefaultDebounce is the search debounce window.
const DefaultDebounce = 300 * time.Millisecond

// DefaultPageSize is the page size used when no preference is stored.
const DefaultPageSize = 25

// maxPageSize bounds stored page sizes.
const maxPageSize = 500

// SortState is the explicit sort chosen by the user. Active stays false
// until the user sorts, so a server-provided order is never shown as sorted.
type SortState struct {
	Key    string `json:"key"`
	Desc   bool   `json:"desc"`
	Active bool   `json:"-"`
}

// filterState is the persisted shape of the simple filters.
type filterState struct {
	Status  string `json:"status,omitempty"`
	Segment string `json:"segment,omitempty"`
}

// Option configures an Engine.
type Option func(*Engine)

// WithPreferences sets the preference store. Without it preferences live
// only as long as the engine.
func WithPreferences(store prefs.Store) Option {
	return func(e *Engine) { e.store = store }
}

// WithNotifier sets the notice sink.
func WithNotifier(n types.Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithDebounce sets the search debounce window. Zero applies searches
// immediately.
func WithDebounce(d time.Duration) Option {
	return func(e *Engine) { e.debounce.window = d }
}

// WithDefaultPageSize sets the page size used when none is stored.
func WithDefaultPageSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.defaultPageSize = n
		}
	}
}

// Engine is the list engine for one resource. It is safe for concurrent use;
// the mutex is never held across a gateway call.
type Engine struct {
	cfg             types.ResourceConfig
	caps            types.Capabilities
	gw              types.Gateway
	store           prefs.Store
	notifier        types.Notifier
	logger          *slog.Logger
	defaultPageSize int
	debounce        *debouncer

	mu            sync.Mutex
	raw           []types.Entity
	loadGen       uint64
	visible       []string
	sort          SortState
	pageSize      int
	filters       filterState
	search        string
	pendingSearch string
	listeners     []func()
}

// New builds a list engine for cfg. The config is validated and normalized
// once; capabilities are fixed for the engine's lifetime. Stored preferences
// are read here, falling back to defaults when missing or invalid.
func New(cfg types.ResourceConfig, gw types.Gateway, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	norm := cfg.Normalize()
	e := &Engine{
		cfg:             norm,
		caps:            norm.Capabilities(),
		gw:              gw,
		defaultPageSize: DefaultPageSize,
		debounce:        &debouncer{window: DefaultDebounce},
		raw:             []types.Entity{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.store == nil {
		e.store = prefs.NewMemory()
	}
	if e.notifier == nil {
		e.notifier = types.NotifierFunc(func(types.Notice) {})
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	e.logger = e.logger.With("resource", norm.Key)
	e.debounce.fn = e.FlushSearch
	e.restorePreferences()
	return e, nil
}

func (e *Engine) restorePreferences() {
	key := e.cfg.Key
	e.visible = prefs.Read(e.store, key, prefs.VisibleColumns, e.defaultColumns(), func(cols []string) bool {
		if len(cols) == 0 {
			return false
		}
		for _, c := range cols {
			if _, ok := e.cfg.Field(c); !ok {
				return false
			}
		}
		return true
	})
	e.visible = prefs.Dedupe(e.visible)

	stored := prefs.Read(e.store, key, prefs.SortState, SortState{}, func(s SortState) bool {
		return s.Key == "" || e.checkSortable(s.Key) == nil
	})
	if stored.Key != "" {
		stored.Active = true
	}
	e.sort = stored

	e.pageSize = prefs.Read(e.store, key, prefs.PageSize, e.defaultPageSize, func(n int) bool {
		return n > 0 && n <= maxPageSize
	})

	e.filters = prefs.Read(e.store, key, prefs.Filters, filterState{}, func(f filterState) bool {
		if f.Segment == "" {
			return true
		}
		_, ok := e.cfg.Segment(f.Segment)
		return ok
	})
}

// defaultColumns are the fields not marked Hidden, or the placeholder
// column when every field is hidden.
func (e *Engine) defaultColumns() []string {
	var cols []string
	for _, f := range e.cfg.Fields {
		if !f.Hidden {
			cols = append(cols, f.Name)
		}
	}
	if len(cols) == 0 {
		return []string{e.placeholderColumn()}
	}
	return cols
}

func (e *Engine) placeholderColumn() string {
	if _, ok := e.cfg.Field(e.cfg.IDField); ok {
		return e.cfg.IDField
	}
	return e.cfg.Fields[0].Name
}

// Config returns the normalized resource config.
func (e *Engine) Config() types.ResourceConfig { return e.cfg }

// Capabilities reports which operations the resource supports, so callers
// can hide actions that would be no-ops.
func (e *Engine) Capabilities() types.Capabilities { return e.caps }

// CanDelete reports whether delete actions should be offered.
func (e *Engine) CanDelete() bool { return e.caps.Remove }

// CanUpdateStatus reports whether status actions should be offered.
func (e *Engine) CanUpdateStatus() bool { return e.caps.UpdateStatus }

// RowRoute is the navigation target of a row.
func (e *Engine) RowRoute(id string) string { return e.cfg.RowRoute(id) }

// EditRoute is the navigation target of a row's edit action.
func (e *Engine) EditRoute(id string) string { return e.cfg.EditRoute(id) }

// OnChange registers fn to run after every change of the derived view.
func (e *Engine) OnChange(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, fn)
}

func (e *Engine) changed() {
	e.mu.Lock()
	listeners := append([]func(){}, e.listeners...)
	e.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}

// Close stops the pending debounce timer.
func (e *Engine) Close() {
	e.debounce.stop()
}

// Load fetches the collection through the list endpoint and stores it as
// the raw server view. It is fail-soft: with the default policy a missing
// endpoint or a failed call yields an empty collection and a nil error.
// When two loads overlap, only the most recent one updates the raw view.
func (e *Engine) Load(ctx context.Context, filters map[string]string) ([]types.Entity, error) {
	e.mu.Lock()
	e.loadGen++
	gen := e.loadGen
	e.mu.Unlock()

	policy := e.cfg.Fallbacks.List
	if !e.caps.List {
		if policy.OnMissing == types.FallbackRethrow {
			return nil, &types.Failure{Kind: types.FailureMissing, Op: types.OpList}
		}
		return e.applyFallback(gen, policy.OnMissing), nil
	}

	var query url.Values
	if len(filters) > 0 {
		query = url.Values{}
		for k, v := range filters {
			query.Set(k, v)
		}
	}

	out, err := e.gw.Call(ctx, types.OpList, "", nil, query)
	if err != nil {
		e.logger.Warn("list load failed", "error", err)
		if policy.OnFailure == types.FallbackRethrow {
			return nil, err
		}
		e.notifier.Notify(types.Notice{
			Level:    types.NoticeWarning,
			Resource: e.cfg.Key,
			Message:  "could not load " + e.cfg.Title + ", showing fallback data",
			Err:      err,
		})
		return e.applyFallback(gen, policy.OnFailure), nil
	}

	rows := types.AsEntities(out)
	e.mu.Lock()
	if gen != e.loadGen {
		e.mu.Unlock()
		e.logger.Debug("dropping stale list response")
		return e.Rows(), nil
	}
	e.raw = rows
	e.mu.Unlock()
	e.changed()
	return cloneRows(rows), nil
}

// applyFallback resolves a fallback mode into the raw view. "cached" keeps
// the current rows; every other mode empties the view.
func (e *Engine) applyFallback(gen uint64, mode types.FallbackMode) []types.Entity {
	e.mu.Lock()
	if gen == e.loadGen && mode != types.FallbackCached {
		e.raw = []types.Entity{}
	}
	rows := cloneRows(e.raw)
	e.mu.Unlock()
	e.changed()
	return rows
}

// Rows returns a copy of the raw server view.
func (e *Engine) Rows() []types.Entity {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneRows(e.raw)
}

// SetRows replaces the raw view, e.g. with rows obtained elsewhere.
func (e *Engine) SetRows(rows []types.Entity) {
	e.mu.Lock()
	e.raw = cloneRows(rows)
	e.mu.Unlock()
	e.changed()
}

func cloneRows(rows []types.Entity) []types.Entity {
	out := make([]types.Entity, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out
}

// Package detail implements the single-entity view engine: root load with
// fallbacks, lazily activated tabs, the inline-edit state machine, status
// and delete actions, and sub-resource mutations.
package detail

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mesh-intelligence/backoffice/pkg/types"
)

// LoadState is the state of the root entity load.
type LoadState string

// Root load states.
const (
	StateIdle    LoadState = "idle"
	StateLoading LoadState = "loading"
	StateLoaded  LoadState = "loaded"
)

// LoadResult is the outcome of Load. Cached is true when Entity came from a
// fallback (cached row or placeholder) rather than the server; NotFound is
// true when the server reported the entity missing.
type LoadResult struct {
	Entity   types.Entity
	Cached   bool
	NotFound bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithNotifier sets the notice sink.
func WithNotifier(n types.Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// WithNavigator sets the route sink used after a delete.
func WithNavigator(n types.Navigator) Option {
	return func(e *Engine) { e.navigator = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// Engine is the detail engine for one resource. It is safe for concurrent
// use; the mutex is never held across a gateway call.
type Engine struct {
	cfg       types.ResourceConfig
	caps      types.Capabilities
	gw        types.Gateway
	notifier  types.Notifier
	navigator types.Navigator
	logger    *slog.Logger

	mu            sync.Mutex
	id            string
	cachedRow     types.Entity
	entity        types.Entity
	state         LoadState
	cached        bool
	notFound      bool
	gen           uint64
	tabs          map[types.TabKind]*tabState
	activeTab     types.TabKind
	edit          *EditSession
	lastEditErr   error
	deletePending bool
}

// New builds a detail engine for cfg.
func New(cfg types.ResourceConfig, gw types.Gateway, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	norm := cfg.Normalize()
	e := &Engine{
		cfg:   norm,
		caps:  norm.Capabilities(),
		gw:    gw,
		state: StateIdle,
		tabs:  map[types.TabKind]*tabState{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.notifier == nil {
		e.notifier = types.NotifierFunc(func(types.Notice) {})
	}
	if e.navigator == nil {
		e.navigator = types.NavigatorFunc(func(string) {})
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	e.logger = e.logger.With("resource", norm.Key)
	return e, nil
}

// Config returns the normalized resource config.
func (e *Engine) Config() types.ResourceConfig { return e.cfg }

// Capabilities reports which operations the resource supports.
func (e *Engine) Capabilities() types.Capabilities { return e.caps }

// Open binds the engine to an entity. cachedRow, typically the list row the
// user navigated from, is used when the server cannot provide the entity.
// Tab state, the edit session and any pending delete of the previous entity
// are discarded, and in-flight loads for it will be dropped.
func (e *Engine) Open(id string, cachedRow types.Entity) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gen++
	e.id = id
	e.cachedRow = cachedRow.Clone()
	e.entity = nil
	e.state = StateIdle
	e.cached = false
	e.notFound = false
	e.tabs = map[types.TabKind]*tabState{}
	e.activeTab = ""
	e.edit = nil
	e.lastEditErr = nil
	e.deletePending = false
}

// ID returns the id of the open entity.
func (e *Engine) ID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.id
}

// Entity returns a copy of the displayed entity, or nil before the first load.
func (e *Engine) Entity() types.Entity {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.entity.Clone()
}

// State returns the root load state and whether the displayed entity is a
// fallback.
func (e *Engine) State() (LoadState, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state, e.cached
}

// Load fetches the open entity. It never leaves the page without something
// to render: a missing get operation or a failed call resolves to the cached
// row or the placeholder according to the resource's fallback policy. A
// not-found response is reported as an error notice; other failures as a
// warning. If Open is called while a load is in flight, its response is
// dropped.
func (e *Engine) Load(ctx context.Context) (LoadResult, error) {
	e.mu.Lock()
	if e.id == "" {
		e.mu.Unlock()
		return LoadResult{}, types.ErrNoEntity
	}
	id, gen := e.id, e.gen
	e.state = StateLoading
	e.mu.Unlock()

	policy := e.cfg.Fallbacks.Get
	if !e.caps.Get {
		if policy.OnMissing == types.FallbackRethrow {
			e.settle(gen, false)
			return LoadResult{}, &types.Failure{Kind: types.FailureMissing, Op: types.OpGet}
		}
		return e.fallback(gen, id, policy.OnMissing, false), nil
	}

	out, err := e.gw.Call(ctx, types.OpGet, id, nil, nil)
	if err == nil {
		ent, ok := types.AsEntity(out)
		if !ok {
			err = &types.Failure{Kind: types.FailureDecode, Op: types.OpGet}
		} else {
			return e.apply(gen, ent), nil
		}
	}

	if types.IsNotFound(err) {
		e.logger.Info("entity not found", "id", id)
		e.notifier.Notify(types.Notice{
			Level:    types.NoticeError,
			Resource: e.cfg.Key,
			Message:  "record not found: " + id,
			Err:      err,
		})
		mode := policy.OnFailure
		if mode == types.FallbackCached {
			mode = types.FallbackPlaceholder
		}
		if mode == types.FallbackRethrow {
			e.settle(gen, true)
			return LoadResult{NotFound: true}, err
		}
		return e.fallback(gen, id, mode, true), nil
	}

	e.logger.Warn("entity load failed", "id", id, "error", err)
	if policy.OnFailure == types.FallbackRethrow {
		e.settle(gen, false)
		return LoadResult{}, err
	}
	e.notifier.Notify(types.Notice{
		Level:    types.NoticeWarning,
		Resource: e.cfg.Key,
		Message:  "could not refresh " + id + ", showing cached data",
		Err:      err,
	})
	return e.fallback(gen, id, policy.OnFailure, false), nil
}

// Refresh reloads the root entity.
func (e *Engine) Refresh(ctx context.Context) (LoadResult, error) {
	return e.Load(ctx)
}

func (e *Engine) apply(gen uint64, ent types.Entity) LoadResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.gen {
		e.logger.Debug("dropping stale entity response")
		return e.resultLocked()
	}
	e.entity = ent.Clone()
	e.state = StateLoaded
	e.cached = false
	e.notFound = false
	return e.resultLocked()
}

// fallback resolves a fallback mode into the displayed entity.
func (e *Engine) fallback(gen uint64, id string, mode types.FallbackMode, notFound bool) LoadResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.gen {
		return e.resultLocked()
	}
	var ent types.Entity
	switch mode {
	case types.FallbackCached:
		switch {
		case e.entity != nil:
			ent = e.entity
		case e.cachedRow != nil:
			ent = e.cachedRow.Clone()
		default:
			ent = e.cfg.Placeholder(id)
		}
	case types.FallbackEmpty:
		ent = types.Entity{}
		ent.Set(e.cfg.IDField, id)
	default:
		ent = e.cfg.Placeholder(id)
	}
	e.entity = ent
	e.state = StateLoaded
	e.cached = true
	e.notFound = notFound
	return e.resultLocked()
}

// settle ends a load that produced no entity, keeping whatever is shown.
func (e *Engine) settle(gen uint64, notFound bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.gen {
		return
	}
	e.state = StateLoaded
	e.notFound = notFound
}

func (e *Engine) resultLocked() LoadResult {
	return LoadResult{Entity: e.entity.Clone(), Cached: e.cached, NotFound: e.notFound}
}

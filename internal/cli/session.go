package cli

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mesh-intelligence/backoffice/internal/engine/detail"
	"github.com/mesh-intelligence/backoffice/internal/engine/list"
	"github.com/mesh-intelligence/backoffice/internal/gateway"
	"github.com/mesh-intelligence/backoffice/internal/notify"
	"github.com/mesh-intelligence/backoffice/internal/paths"
	"github.com/mesh-intelligence/backoffice/internal/sqlite"
	"github.com/mesh-intelligence/backoffice/pkg/types"
)

// session is the per-command runtime: the local store (always attached,
// it holds the preferences), the transport the gateways use, and the
// notice sink.
type session struct {
	backend   *sqlite.Backend
	transport types.Transport
	notifier  types.Notifier
	registry  *prometheus.Registry
}

// attachBackend resolves the data directory and attaches the local store.
// The caller must Detach it.
func (a *app) attachBackend() (*sqlite.Backend, error) {
	dataDir, err := paths.ResolveDataDir(a.dataDir, a.cfg.DataDir)
	if err != nil {
		return nil, sysError(fmt.Errorf("resolve data dir: %w", err))
	}
	b := sqlite.NewBackend()
	if err := b.Attach(dataDir); err != nil {
		return nil, sysError(fmt.Errorf("attach store: %w", err))
	}
	return b, nil
}

// openSession attaches the local store and builds the configured transport.
func (a *app) openSession() (*session, error) {
	b, err := a.attachBackend()
	if err != nil {
		return nil, err
	}
	s := &session{
		backend:  b,
		notifier: notify.NewLog(a.logger),
		registry: prometheus.NewRegistry(),
	}
	switch a.cfg.Transport {
	case types.TransportHTTP:
		tr, err := gateway.NewHTTP(a.cfg.Server,
			gateway.WithToken(a.cfg.Token),
			gateway.WithTimeout(a.cfg.Timeout),
			gateway.WithMetrics(gateway.NewMetrics(s.registry)),
		)
		if err != nil {
			_ = b.Detach()
			return nil, userError(fmt.Errorf("server %q: %w", a.cfg.Server, err))
		}
		s.transport = tr
	default:
		s.transport = sqlite.NewTransport(b)
	}
	return s, nil
}

func (s *session) close() {
	_ = s.backend.Detach()
}

func (s *session) gateway(cfg types.ResourceConfig) types.Gateway {
	return gateway.New(cfg, s.transport)
}

func (a *app) listEngine(s *session, cfg types.ResourceConfig) (*list.Engine, error) {
	e, err := list.New(cfg, s.gateway(cfg),
		list.WithPreferences(s.backend.Preferences()),
		list.WithNotifier(s.notifier),
		list.WithLogger(a.logger),
		list.WithDebounce(a.cfg.SearchDebounce),
		list.WithDefaultPageSize(a.cfg.PageSize),
	)
	if err != nil {
		return nil, userError(err)
	}
	return e, nil
}

func (a *app) detailEngine(s *session, cfg types.ResourceConfig) (*detail.Engine, error) {
	e, err := detail.New(cfg, s.gateway(cfg),
		detail.WithNotifier(s.notifier),
		detail.WithNavigator(types.NavigatorFunc(func(route string) {
			a.logger.Debug("navigate", "route", route)
		})),
		detail.WithLogger(a.logger),
	)
	if err != nil {
		return nil, userError(err)
	}
	return e, nil
}

// openEntity builds a detail engine, opens id and loads it. Load failures
// degrade per the resource's fallback policy and arrive as notices; only a
// rethrow policy makes them errors here.
func (a *app) openEntity(ctx context.Context, s *session, cfg types.ResourceConfig, id string) (*detail.Engine, detail.LoadResult, error) {
	e, err := a.detailEngine(s, cfg)
	if err != nil {
		return nil, detail.LoadResult{}, err
	}
	e.Open(id, nil)
	res, err := e.Load(ctx)
	if err != nil {
		return nil, res, err
	}
	return e, res, nil
}

// requireFound turns a not-found load into a user error for commands that
// mutate the entity.
func requireFound(cfg types.ResourceConfig, id string, res detail.LoadResult) error {
	if res.NotFound {
		return userError(fmt.Errorf("%s %q: %w", cfg.Key, id, types.ErrNotFound))
	}
	return nil
}

// Package enginetest provides a scriptable types.Gateway for engine tests.
package enginetest

import (
	"context"
	"net/url"
	"sync"

	"github.com/mesh-intelligence/backoffice/pkg/types"
)

// Call records one gateway invocation. Op is empty for ad hoc requests made
// through Do.
type Call struct {
	Op      types.Operation
	ID      string
	Method  string
	Path    string
	Payload any
	Query   url.Values
}

// Gateway records every call and answers with Handler. A nil Handler
// answers every call with (nil, nil).
type Gateway struct {
	Handler func(ctx context.Context, c Call) (any, error)

	mu    sync.Mutex
	calls []Call
}

// Call implements types.Gateway.
func (g *Gateway) Call(ctx context.Context, op types.Operation, id string, payload any, query url.Values) (any, error) {
	return g.handle(ctx, Call{Op: op, ID: id, Payload: payload, Query: query})
}

// Do implements types.Gateway.
func (g *Gateway) Do(ctx context.Context, method, path string, query url.Values, payload any) (any, error) {
	return g.handle(ctx, Call{Method: method, Path: path, Payload: payload, Query: query})
}

func (g *Gateway) handle(ctx context.Context, c Call) (any, error) {
	g.mu.Lock()
	g.calls = append(g.calls, c)
	h := g.Handler
	g.mu.Unlock()
	if h == nil {
		return nil, nil
	}
	return h(ctx, c)
}

// Calls returns a copy of the recorded calls.
func (g *Gateway) Calls() []Call {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Call(nil), g.calls...)
}

// Count returns how many calls were made for op.
func (g *Gateway) Count(op types.Operation) int {
	n := 0
	for _, c := range g.Calls() {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Paths returns the paths of the ad hoc requests, in order.
func (g *Gateway) Paths() []string {
	var out []string
	for _, c := range g.Calls() {
		if c.Op == "" {
			out = append(out, c.Method+" "+c.Path)
		}
	}
	return out
}

// NotFound is a 404 failure.
func NotFound(op types.Operation) error {
	return &types.Failure{Kind: types.FailureNotFound, Op: op, Status: 404}
}

// ServerError is a 500 failure.
func ServerError(op types.Operation) error {
	return &types.Failure{Kind: types.FailureServer, Op: op, Status: 500}
}

// Rows converts entities to the []any shape a decoded JSON array has.
func Rows(rows ...types.Entity) []any {
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = map[string]any(r.Clone())
	}
	return out
}

// Package gateway binds a ResourceConfig to a Transport. It resolves
// operations to endpoints, unwraps {"data": ...} envelopes, and maps every
// expected failure to a typed *types.Failure.
package gateway

import (
	"context"
	"net/url"

	"github.com/mesh-intelligence/backoffice/pkg/types"
)

// envelopeKeys are the keys allowed next to "data" in a response envelope.
// A map with any other key is treated as an entity that happens to have a
// "data" field.
var envelopeKeys = map[string]bool{
	"data":       true,
	"meta":       true,
	"links":      true,
	"total":      true,
	"count":      true,
	"page":       true,
	"pagination": true,
	"success":    true,
	"message":    true,
}

// Resource implements types.Gateway for one resource.
type Resource struct {
	cfg       types.ResourceConfig
	transport types.Transport
}

// New returns a gateway for cfg over transport. cfg is normalized so that
// endpoint verbs are always set.
func New(cfg types.ResourceConfig, transport types.Transport) *Resource {
	return &Resource{cfg: cfg.Normalize(), transport: transport}
}

// Call implements types.Gateway.
func (r *Resource) Call(ctx context.Context, op types.Operation, id string, payload any, query url.Values) (any, error) {
	ep := r.cfg.Operations.Endpoint(op)
	if ep == nil {
		return nil, &types.Failure{Kind: types.FailureMissing, Op: op}
	}
	out, err := r.Do(ctx, ep.Method, ep.Build(id), query, payload)
	if f, ok := types.FailureOf(err); ok && f.Op == "" {
		f.Op = op
	}
	return out, err
}

// Do implements types.Gateway.
func (r *Resource) Do(ctx context.Context, method, path string, query url.Values, payload any) (any, error) {
	if r.transport == nil {
		return nil, &types.Failure{Kind: types.FailureMissing, Method: method, Path: path}
	}
	out, err := r.transport.Do(ctx, method, path, query, payload)
	if err != nil {
		if _, ok := types.FailureOf(err); ok {
			return nil, err
		}
		return nil, &types.Failure{Kind: types.FailureNetwork, Method: method, Path: path, Err: err}
	}
	return Unwrap(out), nil
}

// Unwrap returns X for a {"data": X} envelope and v otherwise.
func Unwrap(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	data, ok := m["data"]
	if !ok {
		return v
	}
	for k := range m {
		if !envelopeKeys[k] {
			return v
		}
	}
	return data
}

package sqlite

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/mesh-intelligence/backoffice/pkg/types"
)

// Transport serves gateway requests from the local document store, so the
// engines run without a server. A path with an odd number of segments names
// a collection ("/students", "/students/s1/documents"); an even number names
// a document in it ("/students/s1").
//
//	GET    collection  list, query values filter top-level fields
//	POST   collection  create, id generated unless given in the body
//	GET    document    read
//	PATCH  document    merge
//	PUT    document    replace
//	DELETE document    delete
type Transport struct {
	backend *Backend
}

// NewTransport returns a transport over an attached backend.
func NewTransport(b *Backend) *Transport {
	return &Transport{backend: b}
}

// SplitPath splits a request path into its collection and document id.
// id is empty when the path names a collection.
func SplitPath(path string) (collection, id string, err error) {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return "", "", fmt.Errorf("%q: %w", path, ErrInvalidPath)
	}
	parts := strings.Split(trimmed, "/")
	for i, p := range parts {
		unescaped, err := url.PathUnescape(p)
		if err != nil || unescaped == "" {
			return "", "", fmt.Errorf("%q: %w", path, ErrInvalidPath)
		}
		parts[i] = unescaped
	}
	if len(parts)%2 == 0 {
		id = parts[len(parts)-1]
		parts = parts[:len(parts)-1]
	}
	return strings.Join(parts, "/"), id, nil
}

// Filter converts query values to a Fetch filter using the first value of
// each key.
func Filter(query url.Values) map[string]string {
	if len(query) == 0 {
		return nil
	}
	out := make(map[string]string, len(query))
	for k, v := range query {
		if len(v) > 0 && v[0] != "" {
			out[k] = v[0]
		}
	}
	return out
}

// Do implements types.Transport. Results have the shape of decoded JSON.
func (t *Transport) Do(ctx context.Context, method, path string, query url.Values, body any) (any, error) {
	fail := func(kind types.FailureKind, status int, err error) error {
		return &types.Failure{Kind: kind, Method: method, Path: path, Status: status, Err: err}
	}

	name, id, err := SplitPath(path)
	if err != nil {
		return nil, fail(types.FailureClient, http.StatusBadRequest, err)
	}
	coll, err := t.backend.Collection(name)
	if err != nil {
		return nil, fail(types.FailureServer, http.StatusServiceUnavailable, err)
	}

	var out any
	switch {
	case id == "" && method == http.MethodGet:
		docs, ferr := coll.Fetch(ctx, Filter(query))
		list := make([]any, len(docs))
		for i, d := range docs {
			list[i] = map[string]any(d)
		}
		out, err = list, ferr
	case id == "" && method == http.MethodPost:
		doc, ok := types.AsEntity(body)
		if !ok && body != nil {
			return nil, fail(types.FailureClient, http.StatusBadRequest, errors.New("body must be an object"))
		}
		out, err = asAny(coll.Set(ctx, "", doc))
	case id != "" && method == http.MethodGet:
		out, err = asAny(coll.Get(ctx, id))
	case id != "" && method == http.MethodPatch:
		doc, _ := types.AsEntity(body)
		out, err = asAny(coll.Merge(ctx, id, doc))
	case id != "" && method == http.MethodPut:
		doc, ok := types.AsEntity(body)
		if !ok {
			return nil, fail(types.FailureClient, http.StatusBadRequest, errors.New("body must be an object"))
		}
		out, err = asAny(coll.Set(ctx, id, doc))
	case id != "" && method == http.MethodDelete:
		err = coll.Delete(ctx, id)
	default:
		return nil, fail(types.FailureClient, http.StatusMethodNotAllowed,
			fmt.Errorf("%s not allowed on %s", method, path))
	}

	switch {
	case err == nil:
		return out, nil
	case errors.Is(err, types.ErrNotFound):
		return nil, fail(types.FailureNotFound, http.StatusNotFound, err)
	case errors.Is(err, ErrInvalidID), errors.Is(err, ErrInvalidPath):
		return nil, fail(types.FailureClient, http.StatusBadRequest, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil, fail(types.FailureNetwork, 0, err)
	}
	return nil, fail(types.FailureServer, http.StatusInternalServerError, err)
}

func asAny(doc types.Entity, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return map[string]any(doc), nil
}

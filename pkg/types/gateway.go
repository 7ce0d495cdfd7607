package types

import (
	"context"
	"errors"
	"fmt"
	"net/url"
)

// Transport performs one request against a resource backend and returns the
// decoded JSON body (nil for an empty body).
type Transport interface {
	Do(ctx context.Context, method, path string, query url.Values, body any) (any, error)
}

// Gateway is the engines' view of network I/O for one resource. Expected
// conditions (missing endpoint, 404, network failure) come back as *Failure.
type Gateway interface {
	// Call runs a configured resource operation. id may be empty for list
	// and create; payload and query may be nil.
	Call(ctx context.Context, op Operation, id string, payload any, query url.Values) (any, error)

	// Do runs an ad hoc request, used for tab sub-resources whose paths are
	// declared on TabConfig rather than Operations.
	Do(ctx context.Context, method, path string, query url.Values, payload any) (any, error)
}

// FailureKind classifies gateway failures.
type FailureKind string

// Failure kinds.
const (
	FailureMissing  FailureKind = "missing"
	FailureNotFound FailureKind = "not_found"
	FailureClient   FailureKind = "client"
	FailureServer   FailureKind = "server"
	FailureNetwork  FailureKind = "network"
	FailureDecode   FailureKind = "decode"
)

// Failure is the typed outcome of an unsuccessful gateway call.
type Failure struct {
	Kind   FailureKind
	Op     Operation
	Method string
	Path   string
	Status int
	Err    error
}

func (f *Failure) Error() string {
	msg := fmt.Sprintf("%s %s", f.Method, f.Path)
	if f.Op != "" {
		msg = string(f.Op) + ": " + msg
	}
	if f.Status != 0 {
		msg += fmt.Sprintf(" (%d)", f.Status)
	}
	msg += ": " + string(f.Kind)
	if f.Err != nil {
		msg += ": " + f.Err.Error()
	}
	return msg
}

func (f *Failure) Unwrap() error { return f.Err }

// Is lets errors.Is match the package sentinels against a failure kind.
func (f *Failure) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return f.Kind == FailureNotFound
	case ErrMissingEndpoint:
		return f.Kind == FailureMissing
	}
	return false
}

// FailureOf extracts a *Failure from an error chain.
func FailureOf(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// IsNotFound reports whether err is a 404-style failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsMissing reports whether err means the operation is not configured.
func IsMissing(err error) bool {
	return errors.Is(err, ErrMissingEndpoint)
}
